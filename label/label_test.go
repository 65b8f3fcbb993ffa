package label

import (
	"testing"

	"github.com/aouyang1/go-takens/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampSeries(t *testing.T, n int) *timeseries.Series {
	t.Helper()
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	s, err := timeseries.NewUnivariate(x)
	require.Nil(t, err)
	return s
}

func TestNew(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"default":        {nil, nil},
		"valid":          {&Options{Size: 3, Aggregation: Mean}, nil},
		"zero size":      {&Options{Size: 0, Aggregation: Mean}, ErrNonPositiveSize},
		"negative size":  {&Options{Size: -2, Aggregation: Mean}, ErrNonPositiveSize},
		"no aggregation": {&Options{Size: 3}, ErrNoAggregation},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := New(td.opt)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
		})
	}
}

func TestSizeOneMaxIsIdentity(t *testing.T) {
	x := rampSeries(t, 10)

	l, err := New(&Options{Size: 1, Aggregation: Max})
	require.Nil(t, err)

	trimmed, derived, err := l.FitTransformResample(x, x)
	require.Nil(t, err)

	col, err := trimmed.Column(0)
	require.Nil(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, col)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, derived)
}

func TestForwardWindowAggregations(t *testing.T) {
	testData := map[string]struct {
		size     int
		agg      Aggregation
		expected []float64
	}{
		"max of three":  {3, Max, []float64{2, 3, 4, 5}},
		"min of three":  {3, Min, []float64{0, 1, 2, 3}},
		"mean of three": {3, Mean, []float64{1, 2, 3, 4}},
		"last of two":   {2, Last, []float64{1, 2, 3, 4, 5}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x := rampSeries(t, 6)
			l, err := New(&Options{Size: td.size, Aggregation: td.agg})
			require.Nil(t, err)

			trimmed, derived, err := l.FitTransformResample(x, x)
			require.Nil(t, err)

			assert.Equal(t, 6-td.size+1, trimmed.Len())
			assert.Equal(t, trimmed.Len(), len(derived))
			assert.Equal(t, td.expected, derived)
		})
	}
}

func TestCausality(t *testing.T) {
	// each derived label depends only on target[i..i+size-1]
	size := 4
	x := rampSeries(t, 12)
	y := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
	ySeries, err := timeseries.NewUnivariate(y)
	require.Nil(t, err)

	l, err := New(&Options{Size: size, Aggregation: Max})
	require.Nil(t, err)

	trimmed, derived, err := l.FitTransformResample(x, ySeries)
	require.Nil(t, err)
	require.Equal(t, 12-size+1, trimmed.Len())
	require.Equal(t, trimmed.Len(), len(derived))

	for i, label := range derived {
		window := y[i : i+size]
		expected := window[0]
		for _, v := range window {
			if v > expected {
				expected = v
			}
		}
		assert.Equal(t, expected, label, "label %d", i)
	}
}

func TestFitErrors(t *testing.T) {
	l, err := New(&Options{Size: 5, Aggregation: Mean})
	require.Nil(t, err)
	assert.ErrorIs(t, l.Fit(rampSeries(t, 4)), ErrWindowTooLarge)
}

func TestResampleErrors(t *testing.T) {
	l, err := New(&Options{Size: 2, Aggregation: Mean})
	require.Nil(t, err)

	_, err = l.Resample(make([]float64, 5))
	assert.ErrorIs(t, err, ErrUnfitted)

	require.Nil(t, l.Fit(rampSeries(t, 5)))
	_, err = l.Resample(make([]float64, 4))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)

	_, err = l.Transform(rampSeries(t, 6))
	assert.ErrorIs(t, err, ErrSeriesLenMismatch)
}

func TestFitTransformResampleErrors(t *testing.T) {
	l, err := New(&Options{Size: 2, Aggregation: Mean})
	require.Nil(t, err)

	x := rampSeries(t, 5)

	multi, err := timeseries.NewMultivariate([][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}})
	require.Nil(t, err)
	_, _, err = l.FitTransformResample(x, multi)
	assert.ErrorIs(t, err, ErrMultivariateTarget)

	short := rampSeries(t, 4)
	_, _, err = l.FitTransformResample(x, short)
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}
