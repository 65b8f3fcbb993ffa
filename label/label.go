// Package label derives one target value per retained timestamp by
// aggregating a fixed-length forward window of an auxiliary series. The data
// series is trimmed so every label is computable from fully observed future
// values, guarding against leakage at fit time.
package label

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-takens/timeseries"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNonPositiveSize    = errors.New("lookahead size must be positive")
	ErrNoAggregation      = errors.New("no aggregation function provided")
	ErrWindowTooLarge     = errors.New("lookahead size exceeds series length")
	ErrSeriesLenMismatch  = errors.New("series has a different length than the fitted series")
	ErrTargetLenMismatch  = errors.New("target has a different length than the fitted series")
	ErrMultivariateTarget = errors.New("labelling requires a univariate target series")
	ErrUnfitted           = errors.New("labeller has not been fit yet")
	ErrNoSeries           = errors.New("no series provided")
)

const DefaultSize = 1

// Aggregation reduces one forward window of target values to a single label.
type Aggregation func([]float64) float64

// Max labels each timestamp with the largest value in its forward window.
func Max(window []float64) float64 {
	return floats.Max(window)
}

// Min labels each timestamp with the smallest value in its forward window.
func Min(window []float64) float64 {
	return floats.Min(window)
}

// Mean labels each timestamp with the average of its forward window.
func Mean(window []float64) float64 {
	return stat.Mean(window, nil)
}

// Std labels each timestamp with the standard deviation of its forward
// window.
func Std(window []float64) float64 {
	return stat.StdDev(window, nil)
}

// Last labels each timestamp with the final value of its forward window.
func Last(window []float64) float64 {
	return window[len(window)-1]
}

// Options configures a Labeller. Size is the forward window length and
// Aggregation reduces each window to one label.
type Options struct {
	Size        int         `json:"size"`
	Aggregation Aggregation `json:"-"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Size:        DefaultSize,
		Aggregation: Max,
	}
}

// Labeller trims a data series by Size-1 trailing positions and derives one
// label per retained timestamp from the corresponding forward window of a
// target series. Label i depends only on target values i..i+Size-1.
type Labeller struct {
	opt *Options

	n      int
	fitted bool
}

// New creates a Labeller with the given options. If no options are provided a
// default is used.
func New(opt *Options) (*Labeller, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Size <= 0 {
		return nil, fmt.Errorf("size of %d, %w", opt.Size, ErrNonPositiveSize)
	}
	if opt.Aggregation == nil {
		return nil, ErrNoAggregation
	}
	return &Labeller{opt: opt}, nil
}

// Fit records the series length so subsequent Transform and Resample calls
// stay aligned to it.
func (l *Labeller) Fit(s *timeseries.Series) error {
	if s.Len() == 0 {
		return ErrNoSeries
	}
	if l.opt.Size > s.Len() {
		return fmt.Errorf("size of %d with series length %d, %w", l.opt.Size, s.Len(), ErrWindowTooLarge)
	}
	l.n = s.Len()
	l.fitted = true
	return nil
}

// Transform trims the trailing Size-1 observations so the output length
// matches the derived target.
func (l *Labeller) Transform(s *timeseries.Series) (*timeseries.Series, error) {
	if !l.fitted {
		return nil, ErrUnfitted
	}
	if s.Len() != l.n {
		return nil, fmt.Errorf("series length %d with fitted length %d, %w", s.Len(), l.n, ErrSeriesLenMismatch)
	}
	return s.Slice(0, l.n-l.opt.Size+1)
}

// Resample derives one label per retained timestamp by aggregating each
// Size-length forward window of the target.
func (l *Labeller) Resample(target []float64) ([]float64, error) {
	if !l.fitted {
		return nil, ErrUnfitted
	}
	if len(target) != l.n {
		return nil, fmt.Errorf("target length %d with fitted length %d, %w", len(target), l.n, ErrTargetLenMismatch)
	}

	derived := make([]float64, 0, l.n-l.opt.Size+1)
	for i := 0; i+l.opt.Size <= l.n; i++ {
		derived = append(derived, l.opt.Aggregation(target[i:i+l.opt.Size]))
	}
	return derived, nil
}

// FitTransformResample fits on the data series and returns the trimmed data
// along with the derived target aggregated from the univariate target series.
// Both outputs always have equal length.
func (l *Labeller) FitTransformResample(x, y *timeseries.Series) (*timeseries.Series, []float64, error) {
	if y.Dims() > 1 {
		return nil, nil, fmt.Errorf("target series has %d features, %w", y.Dims(), ErrMultivariateTarget)
	}
	if y.Len() != x.Len() {
		return nil, nil, fmt.Errorf("target length %d with series length %d, %w", y.Len(), x.Len(), ErrTargetLenMismatch)
	}
	if err := l.Fit(x); err != nil {
		return nil, nil, err
	}
	trimmed, err := l.Transform(x)
	if err != nil {
		return nil, nil, err
	}
	target, err := y.Column(0)
	if err != nil {
		return nil, nil, err
	}
	derived, err := l.Resample(target)
	if err != nil {
		return nil, nil, err
	}
	return trimmed, derived, nil
}
