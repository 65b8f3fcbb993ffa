package takens

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aouyang1/go-takens/embed"
	"github.com/aouyang1/go-takens/label"
	"github.com/aouyang1/go-takens/timeseries"
	"github.com/aouyang1/go-takens/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
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

// meanExtractor is a stand-in feature extractor reducing each window or point
// cloud to the mean of its first coordinate.
type meanExtractor struct{}

func (meanExtractor) Fit(data Dataset) error {
	return nil
}

func (meanExtractor) Transform(data Dataset) (Dataset, error) {
	switch d := data.(type) {
	case *window.Collection:
		features := make(FeatureMatrix, 0, d.Len())
		for i := 0; i < d.Len(); i++ {
			col, err := d.At(i).Column(0)
			if err != nil {
				return nil, err
			}
			features = append(features, []float64{stat.Mean(col, nil)})
		}
		return features, nil
	case embed.CloudSet:
		features := make(FeatureMatrix, 0, d.Len())
		for _, pc := range d {
			first := make([]float64, 0, pc.Len())
			for _, p := range pc {
				first = append(first, p[0])
			}
			features = append(features, []float64{stat.Mean(first, nil)})
		}
		return features, nil
	default:
		return nil, fmt.Errorf("got %T, %w", data, ErrUnsupportedDataset)
	}
}

type plainTransformer struct{}

func (plainTransformer) Fit(data Dataset) error {
	return nil
}

func (plainTransformer) Transform(data Dataset) (Dataset, error) {
	return data, nil
}

func TestNewPipeline(t *testing.T) {
	sw, err := window.New(nil)
	require.Nil(t, err)

	testData := map[string]struct {
		stages []Stage
		err    error
	}{
		"no stages": {nil, ErrNoStages},
		"nil transformer": {
			[]Stage{{Name: "empty"}},
			ErrNilTransformer,
		},
		"capability mismatch": {
			[]Stage{{Name: "plain", Transformer: plainTransformer{}, Resamples: true}},
			ErrResampleCapability,
		},
		"valid resampler": {
			[]Stage{WindowStage(sw)},
			nil,
		},
		"valid plain": {
			[]Stage{{Name: "plain", Transformer: plainTransformer{}}},
			nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := NewPipeline(td.stages, nil)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
		})
	}
}

func TestPipelineWindowToEstimator(t *testing.T) {
	s := rampSeries(t, 10)
	target := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	sw, err := window.New(&window.Options{Size: 3, Stride: 2})
	require.Nil(t, err)

	est, err := NewOLSEstimator(nil)
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{
		WindowStage(sw),
		ExtractorStage("window_mean", meanExtractor{}),
	}, est)
	require.Nil(t, err)

	transformed, resampled, err := p.FitTransform(s, target)
	require.Nil(t, err)

	// window means trail the anchored targets by exactly one
	features, ok := transformed.(FeatureMatrix)
	require.True(t, ok)
	assert.Equal(t, FeatureMatrix{{2}, {4}, {6}, {8}}, features)
	assert.Equal(t, []float64{3, 5, 7, 9}, resampled)

	predicted, err := p.Predict(s)
	require.Nil(t, err)
	require.Len(t, predicted, 4)
	for i, expected := range []float64{3, 5, 7, 9} {
		assert.InDelta(t, expected, predicted[i], 0.00001)
	}

	score, err := p.Score(s, target)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, score, 0.00001)
}

func TestPipelinePerWindowEmbedding(t *testing.T) {
	s := rampSeries(t, 10)
	target := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	sw, err := window.New(&window.Options{Size: 4, Stride: 2})
	require.Nil(t, err)
	te, err := embed.New(&embed.Options{TimeDelay: 1, Dimension: 2})
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{
		WindowStage(sw),
		EmbeddingStage(te),
		ExtractorStage("cloud_mean", meanExtractor{}),
	}, nil)
	require.Nil(t, err)

	transformed, resampled, err := p.FitTransform(s, target)
	require.Nil(t, err)

	// per-window embedding keeps one sample per window so the anchored
	// targets pass through unchanged
	assert.Equal(t, []float64{3, 5, 7, 9}, resampled)

	features, ok := transformed.(FeatureMatrix)
	require.True(t, ok)
	require.Len(t, features, 4)
	// window [0 1 2 3] embeds to points [0 1] [1 2] [2 3] whose first
	// coordinates average to 1
	assert.InDelta(t, 1.0, features[0][0], 0.00001)
}

func TestPipelineLabellerComposesWithWindow(t *testing.T) {
	s := rampSeries(t, 10)
	target := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	l, err := label.New(&label.Options{Size: 3, Aggregation: label.Max})
	require.Nil(t, err)
	sw, err := window.New(&window.Options{Size: 3, Stride: 1})
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{
		LabelStage(l),
		WindowStage(sw),
	}, nil)
	require.Nil(t, err)

	transformed, resampled, err := p.FitTransform(s, target)
	require.Nil(t, err)

	// labeller trims to 8 samples with labels max(target[i:i+3]),
	// then windowing anchors every remaining index from 2 on
	windows, ok := transformed.(*window.Collection)
	require.True(t, ok)
	assert.Equal(t, 6, windows.Len())
	assert.Equal(t, []float64{4, 5, 6, 7, 8, 9}, resampled)
}

func TestPipelineGlobalEmbedding(t *testing.T) {
	s := rampSeries(t, 10)
	target := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	te, err := embed.New(&embed.Options{TimeDelay: 2, Dimension: 3})
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{EmbeddingStage(te)}, nil)
	require.Nil(t, err)

	transformed, resampled, err := p.FitTransform(s, target)
	require.Nil(t, err)

	pc, ok := transformed.(embed.PointCloud)
	require.True(t, ok)
	assert.Equal(t, 6, pc.Len())
	assert.Equal(t, []float64{4, 5, 6, 7, 8, 9}, resampled)
}

func TestPipelineUnsupportedDataset(t *testing.T) {
	sw, err := window.New(nil)
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{WindowStage(sw)}, nil)
	require.Nil(t, err)

	err = p.Fit(FeatureMatrix{{1.0}}, []float64{1.0})
	assert.ErrorIs(t, err, ErrUnsupportedDataset)
}

func TestPipelineUnfitted(t *testing.T) {
	sw, err := window.New(nil)
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{WindowStage(sw)}, nil)
	require.Nil(t, err)

	_, err = p.Transform(rampSeries(t, 20))
	assert.ErrorIs(t, err, ErrUnfittedPipeline)
}

func TestPipelineNoEstimator(t *testing.T) {
	sw, err := window.New(nil)
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{WindowStage(sw)}, nil)
	require.Nil(t, err)

	s := rampSeries(t, 20)
	require.Nil(t, p.Fit(s, nil))

	_, err = p.Predict(s)
	assert.ErrorIs(t, err, ErrNoEstimator)

	_, err = p.Score(s, make([]float64, 20))
	assert.ErrorIs(t, err, ErrNoEstimator)
}

func TestPipelineStageErrorsAreWrapped(t *testing.T) {
	sw, err := window.New(&window.Options{Size: 30, Stride: 1})
	require.Nil(t, err)

	p, err := NewPipeline([]Stage{WindowStage(sw)}, nil)
	require.Nil(t, err)

	err = p.Fit(rampSeries(t, 10), nil)
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, window.ErrWindowTooLarge))
	assert.Contains(t, err.Error(), "sliding_window")
}
