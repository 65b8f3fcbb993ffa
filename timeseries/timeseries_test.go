package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnivariate(t *testing.T) {
	testData := map[string]struct {
		input []float64
		err   error
	}{
		"empty":  {nil, ErrNoObservations},
		"single": {[]float64{1.0}, nil},
		"many":   {[]float64{1.0, 2.0, 3.0}, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := NewUnivariate(td.input)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, len(td.input), s.Len())
			assert.Equal(t, 1, s.Dims())
		})
	}
}

func TestNewMultivariate(t *testing.T) {
	testData := map[string]struct {
		input [][]float64
		err   error
	}{
		"empty":       {nil, ErrNoObservations},
		"empty row":   {[][]float64{{}}, ErrEmptyObservation},
		"ragged":      {[][]float64{{1.0, 2.0}, {3.0}}, ErrRaggedSeries},
		"rectangular": {[][]float64{{1.0, 2.0}, {3.0, 4.0}, {5.0, 6.0}}, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := NewMultivariate(td.input)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, len(td.input), s.Len())
			assert.Equal(t, len(td.input[0]), s.Dims())
		})
	}
}

func TestSeriesDoesNotAliasInput(t *testing.T) {
	input := []float64{1.0, 2.0, 3.0}
	s, err := NewUnivariate(input)
	require.Nil(t, err)

	input[0] = 42.0
	v, err := s.At(0, 0)
	require.Nil(t, err)
	assert.Equal(t, 1.0, v)

	values := s.Values()
	values[1][0] = 42.0
	v, err = s.At(1, 0)
	require.Nil(t, err)
	assert.Equal(t, 2.0, v)
}

func TestSeriesAccessors(t *testing.T) {
	s, err := NewMultivariate([][]float64{{1.0, 10.0}, {2.0, 20.0}, {3.0, 30.0}})
	require.Nil(t, err)

	row, err := s.Row(1)
	require.Nil(t, err)
	assert.Equal(t, []float64{2.0, 20.0}, row)

	col, err := s.Column(1)
	require.Nil(t, err)
	assert.Equal(t, []float64{10.0, 20.0, 30.0}, col)

	_, err = s.Row(3)
	assert.ErrorIs(t, err, ErrRowOutOfBounds)

	_, err = s.Column(2)
	assert.ErrorIs(t, err, ErrColOutOfBounds)

	_, err = s.At(-1, 0)
	assert.ErrorIs(t, err, ErrRowOutOfBounds)
}

func TestSeriesSlice(t *testing.T) {
	s, err := NewUnivariate([]float64{0.0, 1.0, 2.0, 3.0, 4.0})
	require.Nil(t, err)

	testData := map[string]struct {
		start    int
		end      int
		err      error
		expected []float64
	}{
		"full":           {0, 5, nil, []float64{0.0, 1.0, 2.0, 3.0, 4.0}},
		"prefix":         {0, 3, nil, []float64{0.0, 1.0, 2.0}},
		"interior":       {1, 4, nil, []float64{1.0, 2.0, 3.0}},
		"negative start": {-1, 3, ErrInvalidSlice, nil},
		"past end":       {0, 6, ErrInvalidSlice, nil},
		"empty":          {2, 2, ErrInvalidSlice, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			sub, err := s.Slice(td.start, td.end)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			col, err := sub.Column(0)
			require.Nil(t, err)
			assert.Equal(t, td.expected, col)
		})
	}
}

func TestSeriesCopy(t *testing.T) {
	s, err := NewUnivariate([]float64{1.0, 2.0})
	require.Nil(t, err)

	c := s.Copy()
	require.Equal(t, s.Len(), c.Len())

	sVal, err := s.At(0, 0)
	require.Nil(t, err)
	cVal, err := c.At(0, 0)
	require.Nil(t, err)
	assert.Equal(t, sVal, cVal)
}
