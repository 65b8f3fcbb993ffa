package timeseries

import (
	"errors"
	"fmt"
)

var (
	ErrNoObservations   = errors.New("no observations")
	ErrEmptyObservation = errors.New("observation has no features")
	ErrRaggedSeries     = errors.New("observations have inconsistent feature lengths")
	ErrRowOutOfBounds   = errors.New("observation index is out of bounds")
	ErrColOutOfBounds   = errors.New("feature index is out of bounds")
	ErrInvalidSlice     = errors.New("invalid slice bounds")
)

// Series is an ordered sequence of observations where each observation is a
// fixed-length vector of features. A univariate series has one feature per
// observation. The backing data is copied on construction and on every
// accessor so a Series never aliases caller memory.
type Series struct {
	values [][]float64
}

// NewUnivariate returns a Series with a single feature per observation.
func NewUnivariate(x []float64) (*Series, error) {
	if len(x) == 0 {
		return nil, ErrNoObservations
	}
	values := make([][]float64, len(x))
	for i, v := range x {
		values[i] = []float64{v}
	}
	return &Series{values: values}, nil
}

// NewMultivariate returns a Series from a row-per-observation slice. All rows
// must have the same non-zero number of features.
func NewMultivariate(x [][]float64) (*Series, error) {
	if len(x) == 0 {
		return nil, ErrNoObservations
	}
	d := len(x[0])
	if d == 0 {
		return nil, fmt.Errorf("at row 0, %w", ErrEmptyObservation)
	}
	values := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("at row %d expected %d features but got %d, %w", i, d, len(row), ErrRaggedSeries)
		}
		values[i] = make([]float64, d)
		copy(values[i], row)
	}
	return &Series{values: values}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Dims returns the number of features per observation.
func (s *Series) Dims() int {
	if s == nil || len(s.values) == 0 {
		return 0
	}
	return len(s.values[0])
}

// At returns the value of feature j at observation i.
func (s *Series) At(i, j int) (float64, error) {
	if i < 0 || i >= s.Len() {
		return 0.0, ErrRowOutOfBounds
	}
	if j < 0 || j >= s.Dims() {
		return 0.0, ErrColOutOfBounds
	}
	return s.values[i][j], nil
}

// Row returns a copy of observation i.
func (s *Series) Row(i int) ([]float64, error) {
	if i < 0 || i >= s.Len() {
		return nil, ErrRowOutOfBounds
	}
	row := make([]float64, s.Dims())
	copy(row, s.values[i])
	return row, nil
}

// Column returns a copy of feature j across all observations.
func (s *Series) Column(j int) ([]float64, error) {
	if j < 0 || j >= s.Dims() {
		return nil, ErrColOutOfBounds
	}
	col := make([]float64, s.Len())
	for i, row := range s.values {
		col[i] = row[j]
	}
	return col, nil
}

// Values returns a deep copy of the backing observation matrix.
func (s *Series) Values() [][]float64 {
	values := make([][]float64, s.Len())
	for i, row := range s.values {
		values[i] = make([]float64, len(row))
		copy(values[i], row)
	}
	return values
}

// Slice returns a new Series covering observations [start, end).
func (s *Series) Slice(start, end int) (*Series, error) {
	if start < 0 || end > s.Len() || start >= end {
		return nil, fmt.Errorf("bounds [%d, %d) on series of length %d, %w", start, end, s.Len(), ErrInvalidSlice)
	}
	values := make([][]float64, end-start)
	for i := start; i < end; i++ {
		values[i-start] = make([]float64, len(s.values[i]))
		copy(values[i-start], s.values[i])
	}
	return &Series{values: values}, nil
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	return &Series{values: s.Values()}
}
