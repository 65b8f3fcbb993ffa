package embed

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/aouyang1/go-takens/timeseries"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNonPositiveTimeDelayMax = errors.New("max time delay must be positive")
	ErrNonPositiveDimensionMax = errors.New("max dimension must be positive")
	ErrInvalidTolerance        = errors.New("false neighbor tolerance must be in (0, 1)")
	ErrNonPositiveRatio        = errors.New("neighbor divergence ratio must be positive")
	ErrNegativeBins            = errors.New("histogram bins must not be negative")
	ErrMultivariateSearch      = errors.New("parameter search requires a univariate series")
	ErrNoLocalMinimum          = errors.New("no local minimum of mutual information found before max time delay")
	ErrToleranceNotReached     = errors.New("false neighbor fraction never dropped below tolerance before max dimension")
)

const (
	DefaultTimeDelayMax           = 10
	DefaultDimensionMax           = 5
	DefaultFalseNeighborTolerance = 0.1
	DefaultNeighborRatio          = 10.0

	minSearchSamples = 2
)

// EmbeddingParameters is the pair estimated by the automatic search or
// supplied directly to a TakensEmbedding.
type EmbeddingParameters struct {
	TimeDelay int `json:"time_delay"`
	Dimension int `json:"dimension"`
}

// SearchOptions configures the automatic embedding parameter search. Bins is
// the number of histogram bins used by the mutual information estimate; zero
// picks sqrt(n) bins. NeighborRatio is the divergence ratio beyond which a
// nearest neighbor counts as false after adding one delay coordinate.
type SearchOptions struct {
	TimeDelayMax           int     `json:"time_delay_max"`
	DimensionMax           int     `json:"dimension_max"`
	FalseNeighborTolerance float64 `json:"false_neighbor_tolerance"`
	NeighborRatio          float64 `json:"neighbor_ratio"`
	Bins                   int     `json:"bins"`
}

func NewDefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		TimeDelayMax:           DefaultTimeDelayMax,
		DimensionMax:           DefaultDimensionMax,
		FalseNeighborTolerance: DefaultFalseNeighborTolerance,
		NeighborRatio:          DefaultNeighborRatio,
	}
}

// SingleTakensEmbedding estimates optimal embedding parameters from a
// univariate series and then behaves like a TakensEmbedding in global mode.
// The time delay is the first local minimum of the mutual information between
// the series and its lagged copy; the dimension is the smallest candidate
// whose false nearest neighbor fraction drops below the tolerance. Both
// estimates are deterministic for a given series and configuration.
type SingleTakensEmbedding struct {
	opt *SearchOptions

	params    *EmbeddingParameters
	embedding *TakensEmbedding
	miCurve   []float64
	fnnCurve  []float64
}

// NewSingle creates a SingleTakensEmbedding with the given search options. If
// no options are provided a default is used.
func NewSingle(opt *SearchOptions) (*SingleTakensEmbedding, error) {
	if opt == nil {
		opt = NewDefaultSearchOptions()
	}
	if opt.TimeDelayMax < 1 {
		return nil, fmt.Errorf("max time delay of %d, %w", opt.TimeDelayMax, ErrNonPositiveTimeDelayMax)
	}
	if opt.DimensionMax < 1 {
		return nil, fmt.Errorf("max dimension of %d, %w", opt.DimensionMax, ErrNonPositiveDimensionMax)
	}
	if opt.FalseNeighborTolerance <= 0.0 || opt.FalseNeighborTolerance >= 1.0 {
		return nil, fmt.Errorf("tolerance of %f, %w", opt.FalseNeighborTolerance, ErrInvalidTolerance)
	}
	if opt.NeighborRatio == 0 {
		opt.NeighborRatio = DefaultNeighborRatio
	}
	if opt.NeighborRatio < 0 {
		return nil, fmt.Errorf("neighbor ratio of %f, %w", opt.NeighborRatio, ErrNonPositiveRatio)
	}
	if opt.Bins < 0 {
		return nil, fmt.Errorf("bins of %d, %w", opt.Bins, ErrNegativeBins)
	}
	return &SingleTakensEmbedding{opt: opt}, nil
}

// Fit estimates the time delay and dimension from the series. It fails with
// ErrNoLocalMinimum or ErrToleranceNotReached when a search bound is hit
// before the termination criterion is met, never defaulting to a guess.
func (ste *SingleTakensEmbedding) Fit(s *timeseries.Series) error {
	if s.Len() == 0 {
		return ErrNoSeries
	}
	if s.Dims() != 1 {
		return fmt.Errorf("series has %d features, %w", s.Dims(), ErrMultivariateSearch)
	}
	x, err := s.Column(0)
	if err != nil {
		return err
	}
	if len(x)-ste.opt.TimeDelayMax < minSearchSamples {
		return fmt.Errorf("series length %d with max time delay %d, %w",
			len(x), ste.opt.TimeDelayMax, ErrInsufficientLength)
	}

	bins := ste.opt.Bins
	if bins == 0 {
		bins = int(math.Sqrt(float64(len(x))))
		if bins < 2 {
			bins = 2
		}
	}

	miCurve, err := mutualInformationCurve(x, ste.opt.TimeDelayMax, bins)
	if err != nil {
		return err
	}
	minIdx, ok := firstLocalMinimum(miCurve)
	if !ok {
		return fmt.Errorf("max time delay of %d, %w", ste.opt.TimeDelayMax, ErrNoLocalMinimum)
	}
	timeDelay := minIdx + 1

	fnnCurve, err := falseNeighborCurve(x, timeDelay, ste.opt.DimensionMax, ste.opt.NeighborRatio)
	if err != nil {
		return err
	}
	dimension := 0
	for d, frac := range fnnCurve {
		if frac <= ste.opt.FalseNeighborTolerance {
			dimension = d + 1
			break
		}
	}
	if dimension == 0 {
		return fmt.Errorf("max dimension of %d with tolerance %f, %w",
			ste.opt.DimensionMax, ste.opt.FalseNeighborTolerance, ErrToleranceNotReached)
	}

	embedding, err := New(&Options{TimeDelay: timeDelay, Dimension: dimension})
	if err != nil {
		return err
	}
	if err := embedding.Fit(s); err != nil {
		return err
	}

	ste.params = &EmbeddingParameters{TimeDelay: timeDelay, Dimension: dimension}
	ste.embedding = embedding
	ste.miCurve = miCurve
	ste.fnnCurve = fnnCurve
	return nil
}

// Parameters returns the embedding parameters estimated by Fit.
func (ste *SingleTakensEmbedding) Parameters() (EmbeddingParameters, error) {
	if ste.params == nil {
		return EmbeddingParameters{}, ErrUnfitted
	}
	return *ste.params, nil
}

// MICurve returns the mutual information at each candidate time delay
// starting at 1, for inspecting the fitted search.
func (ste *SingleTakensEmbedding) MICurve() []float64 {
	curve := make([]float64, len(ste.miCurve))
	copy(curve, ste.miCurve)
	return curve
}

// FNNCurve returns the false neighbor fraction at each candidate dimension
// starting at 1, for inspecting the fitted search.
func (ste *SingleTakensEmbedding) FNNCurve() []float64 {
	curve := make([]float64, len(ste.fnnCurve))
	copy(curve, ste.fnnCurve)
	return curve
}

// Transform embeds the series with the fitted parameters.
func (ste *SingleTakensEmbedding) Transform(s *timeseries.Series) (PointCloud, error) {
	if ste.embedding == nil {
		return nil, ErrUnfitted
	}
	return ste.embedding.Transform(s)
}

// Resample aligns a target with the fitted global embedding.
func (ste *SingleTakensEmbedding) Resample(target []float64) ([]float64, error) {
	if ste.embedding == nil {
		return nil, ErrUnfitted
	}
	return ste.embedding.Resample(target)
}

// mutualInformationCurve evaluates the lagged mutual information at each
// candidate delay. Candidate evaluations are independent and run in parallel,
// written back by index so the curve order never depends on scheduling.
func mutualInformationCurve(x []float64, timeDelayMax, bins int) ([]float64, error) {
	curve := make([]float64, timeDelayMax)

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for tau := 1; tau <= timeDelayMax; tau++ {
		eg.Go(func() error {
			mi, err := mutualInformation(x, tau, bins)
			if err != nil {
				return fmt.Errorf("evaluating time delay %d, %w", tau, err)
			}
			curve[tau-1] = mi
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return curve, nil
}

// mutualInformation estimates the information shared between x[t] and
// x[t+tau] from a joint histogram over equal-width bins spanning the series
// range.
func mutualInformation(x []float64, tau, bins int) (float64, error) {
	n := len(x) - tau
	if n < minSearchSamples {
		return 0, fmt.Errorf("lag %d leaves %d samples, %w", tau, n, ErrInsufficientLength)
	}

	lo := floats.Min(x)
	hi := floats.Max(x)
	if hi == lo {
		// constant series carries no information at any lag
		return 0, nil
	}
	width := (hi - lo) / float64(bins)
	binOf := func(v float64) int {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		return b
	}

	joint := make([]float64, bins*bins)
	px := make([]float64, bins)
	py := make([]float64, bins)
	for t := 0; t < n; t++ {
		i := binOf(x[t])
		j := binOf(x[t+tau])
		joint[i*bins+j]++
		px[i]++
		py[j]++
	}

	total := float64(n)
	var mi float64
	for i := 0; i < bins; i++ {
		for j := 0; j < bins; j++ {
			pxy := joint[i*bins+j]
			if pxy == 0 {
				continue
			}
			mi += pxy / total * math.Log(pxy*total/(px[i]*py[j]))
		}
	}
	return mi, nil
}

// firstLocalMinimum returns the index of the first interior local minimum of
// the curve. A trailing decrease that never turns back up does not count so
// a too-small search bound surfaces as a failure instead of a guess.
func firstLocalMinimum(curve []float64) (int, bool) {
	for k := 1; k < len(curve)-1; k++ {
		if curve[k] < curve[k-1] && curve[k] <= curve[k+1] {
			return k, true
		}
	}
	return 0, false
}

// falseNeighborCurve evaluates the false nearest neighbor fraction at each
// candidate dimension using the chosen time delay. Candidates are independent
// and run in parallel, written back by index.
func falseNeighborCurve(x []float64, timeDelay, dimensionMax int, ratio float64) ([]float64, error) {
	curve := make([]float64, dimensionMax)

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for d := 1; d <= dimensionMax; d++ {
		eg.Go(func() error {
			frac, err := falseNeighborFraction(x, timeDelay, d, ratio)
			if err != nil {
				return fmt.Errorf("evaluating dimension %d, %w", d, err)
			}
			curve[d-1] = frac
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return curve, nil
}

// falseNeighborFraction embeds x at the given dimension and counts the
// fraction of points whose nearest neighbor diverges beyond the ratio once
// one more delay coordinate is added. Neighbors are found by exhaustive
// Euclidean search so the result is deterministic.
func falseNeighborFraction(x []float64, timeDelay, dimension int, ratio float64) (float64, error) {
	// only points that survive one more delay coordinate are comparable
	m := len(x) - dimension*timeDelay
	if m < minSearchSamples {
		return 0, fmt.Errorf("%d comparable points at dimension %d with time delay %d, %w",
			m, dimension, timeDelay, ErrInsufficientLength)
	}

	points := make([][]float64, m)
	for i := 0; i < m; i++ {
		p := make([]float64, dimension)
		for k := 0; k < dimension; k++ {
			p[k] = x[i+k*timeDelay]
		}
		points[i] = p
	}

	var falseCount int
	for i := 0; i < m; i++ {
		nearest := -1
		nearestDist := math.Inf(1)
		for j := 0; j < m; j++ {
			if j == i {
				continue
			}
			dist := floats.Distance(points[i], points[j], 2)
			if dist < nearestDist {
				nearestDist = dist
				nearest = j
			}
		}

		extra := math.Abs(x[i+dimension*timeDelay] - x[nearest+dimension*timeDelay])
		if nearestDist == 0 {
			if extra > 0 {
				falseCount++
			}
			continue
		}
		if extra/nearestDist > ratio {
			falseCount++
		}
	}
	return float64(falseCount) / float64(m), nil
}
