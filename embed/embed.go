// Package embed reconstructs higher-dimensional point clouds from low
// dimensional time series using time-delay (Takens) embeddings. Embedding
// parameters are either supplied directly through TakensEmbedding or searched
// automatically with SingleTakensEmbedding.
package embed

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/aouyang1/go-takens/timeseries"
	"github.com/aouyang1/go-takens/window"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNonPositiveTimeDelay = errors.New("time delay must be positive")
	ErrNonPositiveDimension = errors.New("dimension must be positive")
	ErrInsufficientLength   = errors.New("input too short for the requested embedding parameters")
	ErrTargetLenMismatch    = errors.New("target has a different length than the fitted series")
	ErrUnfitted             = errors.New("embedding has not been fit yet")
	ErrNoSeries             = errors.New("no series provided")
	ErrNoWindows            = errors.New("no windows provided")
)

const (
	DefaultTimeDelay = 1
	DefaultDimension = 2
)

// PointCloud is an ordered sequence of embedded points. Point k holds the
// concatenated observation vectors sampled at offsets
// k, k+timeDelay, ..., k+(dimension-1)*timeDelay of the source input.
type PointCloud [][]float64

// Len returns the number of points in the cloud.
func (pc PointCloud) Len() int {
	return len(pc)
}

// Dim returns the number of coordinates per point.
func (pc PointCloud) Dim() int {
	if len(pc) == 0 {
		return 0
	}
	return len(pc[0])
}

// Matrix returns the cloud as a dense row-per-point matrix.
func (pc PointCloud) Matrix() *mat.Dense {
	m, n := pc.Len(), pc.Dim()
	data := make([]float64, 0, m*n)
	for _, p := range pc {
		data = append(data, p...)
	}
	return mat.NewDense(m, n, data)
}

// CloudSet is an ordered collection of point clouds, one per source window.
type CloudSet []PointCloud

// Len returns the number of clouds in the set.
func (cs CloudSet) Len() int {
	return len(cs)
}

// Options configures a TakensEmbedding. Both parameters must be at least 1.
type Options struct {
	TimeDelay int `json:"time_delay"`
	Dimension int `json:"dimension"`
}

func NewDefaultOptions() *Options {
	return &Options{
		TimeDelay: DefaultTimeDelay,
		Dimension: DefaultDimension,
	}
}

// TakensEmbedding is a deterministic reshaping of a series or of each window
// in a collection into point clouds with fixed embedding parameters. It holds
// no fitted state beyond the parameters and the length of the last fitted
// series.
type TakensEmbedding struct {
	opt *Options

	n      int
	fitted bool
}

// New creates a TakensEmbedding with the given options. If no options are
// provided a default is used.
func New(opt *Options) (*TakensEmbedding, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.TimeDelay < 1 {
		return nil, fmt.Errorf("time delay of %d, %w", opt.TimeDelay, ErrNonPositiveTimeDelay)
	}
	if opt.Dimension < 1 {
		return nil, fmt.Errorf("dimension of %d, %w", opt.Dimension, ErrNonPositiveDimension)
	}
	return &TakensEmbedding{opt: opt}, nil
}

// Offset returns the number of leading samples consumed by the delay
// coordinates. Output sample k of a global embedding aligns with input sample
// Offset()+k.
func (te *TakensEmbedding) Offset() int {
	return te.opt.TimeDelay * (te.opt.Dimension - 1)
}

// NumPoints returns the number of embedded points an input of length n
// produces, which may be zero or negative when the input is too short.
func (te *TakensEmbedding) NumPoints(n int) int {
	return n - te.Offset()
}

// Fit records the series length for subsequent target resampling.
func (te *TakensEmbedding) Fit(s *timeseries.Series) error {
	if s.Len() == 0 {
		return ErrNoSeries
	}
	if te.NumPoints(s.Len()) <= 0 {
		return fmt.Errorf("series length %d with time delay %d and dimension %d, %w",
			s.Len(), te.opt.TimeDelay, te.opt.Dimension, ErrInsufficientLength)
	}
	te.n = s.Len()
	te.fitted = true
	return nil
}

// Transform embeds a whole series into a single point cloud.
func (te *TakensEmbedding) Transform(s *timeseries.Series) (PointCloud, error) {
	if s.Len() == 0 {
		return nil, ErrNoSeries
	}
	return embedValues(s.Values(), te.opt.TimeDelay, te.opt.Dimension)
}

// TransformCollection embeds every window of a collection independently with
// the same parameters. Windows are processed in parallel and clouds are
// returned in window emission order.
func (te *TakensEmbedding) TransformCollection(c *window.Collection) (CloudSet, error) {
	if c.Len() == 0 {
		return nil, ErrNoWindows
	}

	clouds := make(CloudSet, c.Len())

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < c.Len(); i++ {
		eg.Go(func() error {
			pc, err := embedValues(c.At(i).Values(), te.opt.TimeDelay, te.opt.Dimension)
			if err != nil {
				return fmt.Errorf("embedding window %d, %w", i, err)
			}
			clouds[i] = pc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return clouds, nil
}

// Resample aligns a target with a global embedding by dropping the leading
// samples consumed by the delay coordinates, so resampled value k pairs with
// embedded point k. The target must have the same length as the fitted
// series.
func (te *TakensEmbedding) Resample(target []float64) ([]float64, error) {
	if !te.fitted {
		return nil, ErrUnfitted
	}
	if len(target) != te.n {
		return nil, fmt.Errorf("target length %d with fitted length %d, %w", len(target), te.n, ErrTargetLenMismatch)
	}
	resampled := make([]float64, len(target)-te.Offset())
	copy(resampled, target[te.Offset():])
	return resampled, nil
}

// FitTransformResample fits the embedding on the series and returns the point
// cloud along with the resampled target.
func (te *TakensEmbedding) FitTransformResample(s *timeseries.Series, target []float64) (PointCloud, []float64, error) {
	if err := te.Fit(s); err != nil {
		return nil, nil, err
	}
	pc, err := te.Transform(s)
	if err != nil {
		return nil, nil, err
	}
	resampled, err := te.Resample(target)
	if err != nil {
		return nil, nil, err
	}
	return pc, resampled, nil
}

func embedValues(values [][]float64, timeDelay, dimension int) (PointCloud, error) {
	numPoints := len(values) - timeDelay*(dimension-1)
	if numPoints <= 0 {
		return nil, fmt.Errorf("input length %d with time delay %d and dimension %d, %w",
			len(values), timeDelay, dimension, ErrInsufficientLength)
	}

	var d int
	if len(values) > 0 {
		d = len(values[0])
	}

	pc := make(PointCloud, 0, numPoints)
	for t := 0; t < numPoints; t++ {
		point := make([]float64, 0, d*dimension)
		for k := 0; k < dimension; k++ {
			point = append(point, values[t+k*timeDelay]...)
		}
		pc = append(pc, point)
	}
	return pc, nil
}
