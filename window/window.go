// Package window slices an ordered time series into fixed-length windows along
// the time axis and resamples a paired target series so one label remains per
// window.
package window

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-takens/timeseries"
)

var (
	ErrNonPositiveSize   = errors.New("window size must be positive")
	ErrNonPositiveStride = errors.New("window stride must be positive")
	ErrWindowTooLarge    = errors.New("window size exceeds series length")
	ErrSeriesLenMismatch = errors.New("series has a different length than the fitted series")
	ErrTargetLenMismatch = errors.New("target has a different length than the fitted series")
	ErrUnfitted          = errors.New("sliding window has not been fit yet")
	ErrNoSeries          = errors.New("no series provided")
)

const (
	DefaultSize   = 10
	DefaultStride = 1
)

// Options configures a SlidingWindow. Size is the window length and Stride is
// the step between consecutive window starts.
type Options struct {
	Size   int `json:"size"`
	Stride int `json:"stride"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Size:   DefaultSize,
		Stride: DefaultStride,
	}
}

// Window is a contiguous fixed-length slice of a series identified by its
// start index. Its anchor index is the last contained index and defines the
// alignment with a paired target.
type Window struct {
	start  int
	values [][]float64
}

func (w Window) Start() int {
	return w.start
}

func (w Window) Size() int {
	return len(w.values)
}

// Anchor returns the last series index covered by the window.
func (w Window) Anchor() int {
	return w.start + len(w.values) - 1
}

// Values returns a copy of the window observations, one row per sample.
func (w Window) Values() [][]float64 {
	values := make([][]float64, len(w.values))
	for i, row := range w.values {
		values[i] = make([]float64, len(row))
		copy(values[i], row)
	}
	return values
}

// Column returns a copy of feature j across the window samples.
func (w Window) Column(j int) ([]float64, error) {
	if len(w.values) == 0 || j < 0 || j >= len(w.values[0]) {
		return nil, timeseries.ErrColOutOfBounds
	}
	col := make([]float64, len(w.values))
	for i, row := range w.values {
		col[i] = row[j]
	}
	return col, nil
}

// Collection is an ordered sequence of windows produced from one series,
// emitted oldest to newest. The last window always ends at the last index of
// the source series.
type Collection struct {
	windows []Window
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.windows)
}

func (c *Collection) At(i int) Window {
	return c.windows[i]
}

// Anchors returns the anchor index of every window in emission order.
func (c *Collection) Anchors() []int {
	anchors := make([]int, len(c.windows))
	for i, w := range c.windows {
		anchors[i] = w.Anchor()
	}
	return anchors
}

// SlidingWindow slices a series into fixed-length windows stepping back from
// the final index by Stride until fewer than Size samples remain. When
// (n-Size) is not a multiple of Stride the earliest leftover samples are
// excluded from every window; the last window is never shortened.
type SlidingWindow struct {
	opt *Options

	n      int
	fitted bool
}

// New creates a SlidingWindow with the given options. If no options are
// provided a default is used.
func New(opt *Options) (*SlidingWindow, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Size <= 0 {
		return nil, fmt.Errorf("size of %d, %w", opt.Size, ErrNonPositiveSize)
	}
	if opt.Stride <= 0 {
		return nil, fmt.Errorf("stride of %d, %w", opt.Stride, ErrNonPositiveStride)
	}
	return &SlidingWindow{opt: opt}, nil
}

// NumWindows returns the number of windows a series of length n produces.
func (sw *SlidingWindow) NumWindows(n int) int {
	if sw.opt.Size > n {
		return 0
	}
	return (n-sw.opt.Size)/sw.opt.Stride + 1
}

// Fit records the length of the series so subsequent Transform and Resample
// calls stay aligned to it.
func (sw *SlidingWindow) Fit(s *timeseries.Series) error {
	if s.Len() == 0 {
		return ErrNoSeries
	}
	if sw.opt.Size > s.Len() {
		return fmt.Errorf("size of %d with series length %d, %w", sw.opt.Size, s.Len(), ErrWindowTooLarge)
	}
	sw.n = s.Len()
	sw.fitted = true
	return nil
}

// Transform slices the series into windows. The input must have the same
// length as the series seen by Fit.
func (sw *SlidingWindow) Transform(s *timeseries.Series) (*Collection, error) {
	if !sw.fitted {
		return nil, ErrUnfitted
	}
	if s.Len() != sw.n {
		return nil, fmt.Errorf("series length %d with fitted length %d, %w", s.Len(), sw.n, ErrSeriesLenMismatch)
	}

	values := s.Values()
	numWindows := sw.NumWindows(sw.n)
	first := (sw.n - sw.opt.Size) % sw.opt.Stride

	windows := make([]Window, 0, numWindows)
	for i := 0; i < numWindows; i++ {
		start := first + i*sw.opt.Stride
		windows = append(windows, Window{
			start:  start,
			values: values[start : start+sw.opt.Size],
		})
	}
	return &Collection{windows: windows}, nil
}

// Resample picks one label per window from the target value at each window's
// anchor index. The target must have the same length as the fitted series.
func (sw *SlidingWindow) Resample(target []float64) ([]float64, error) {
	if !sw.fitted {
		return nil, ErrUnfitted
	}
	if len(target) != sw.n {
		return nil, fmt.Errorf("target length %d with fitted length %d, %w", len(target), sw.n, ErrTargetLenMismatch)
	}

	numWindows := sw.NumWindows(sw.n)
	first := (sw.n - sw.opt.Size) % sw.opt.Stride

	resampled := make([]float64, 0, numWindows)
	for i := 0; i < numWindows; i++ {
		anchor := first + i*sw.opt.Stride + sw.opt.Size - 1
		resampled = append(resampled, target[anchor])
	}
	return resampled, nil
}

// FitTransformResample fits the window on the series and returns the window
// collection along with the resampled target.
func (sw *SlidingWindow) FitTransformResample(s *timeseries.Series, target []float64) (*Collection, []float64, error) {
	if err := sw.Fit(s); err != nil {
		return nil, nil, err
	}
	windows, err := sw.Transform(s)
	if err != nil {
		return nil, nil, err
	}
	resampled, err := sw.Resample(target)
	if err != nil {
		return nil, nil, err
	}
	return windows, resampled, nil
}
