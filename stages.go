package takens

import (
	"fmt"

	"github.com/aouyang1/go-takens/embed"
	"github.com/aouyang1/go-takens/label"
	"github.com/aouyang1/go-takens/models"
	"github.com/aouyang1/go-takens/timeseries"
	"github.com/aouyang1/go-takens/window"
)

func asSeries(data Dataset) (*timeseries.Series, error) {
	s, ok := data.(*timeseries.Series)
	if !ok {
		return nil, fmt.Errorf("got %T but expected *timeseries.Series, %w", data, ErrUnsupportedDataset)
	}
	return s, nil
}

// WindowStage wraps a SlidingWindow as a resampling pipeline stage consuming
// a series and producing a window collection.
func WindowStage(sw *window.SlidingWindow) Stage {
	return Stage{
		Name:        "sliding_window",
		Transformer: &windowStage{sw: sw},
		Resamples:   true,
	}
}

type windowStage struct {
	sw *window.SlidingWindow
}

func (s *windowStage) Fit(data Dataset) error {
	series, err := asSeries(data)
	if err != nil {
		return err
	}
	return s.sw.Fit(series)
}

func (s *windowStage) Transform(data Dataset) (Dataset, error) {
	series, err := asSeries(data)
	if err != nil {
		return nil, err
	}
	return s.sw.Transform(series)
}

func (s *windowStage) Resample(target []float64) ([]float64, error) {
	return s.sw.Resample(target)
}

// EmbeddingStage wraps a TakensEmbedding as a resampling pipeline stage. Fed
// a series it produces one global point cloud and resamples the target by the
// embedding anchor rule; fed a window collection it embeds every window
// independently and the target passes through one value per window.
func EmbeddingStage(te *embed.TakensEmbedding) Stage {
	return Stage{
		Name:        "takens_embedding",
		Transformer: &embeddingStage{te: te},
		Resamples:   true,
	}
}

type embeddingStage struct {
	te        *embed.TakensEmbedding
	perWindow bool
}

func (s *embeddingStage) Fit(data Dataset) error {
	switch d := data.(type) {
	case *timeseries.Series:
		s.perWindow = false
		return s.te.Fit(d)
	case *window.Collection:
		s.perWindow = true
		return nil
	default:
		return fmt.Errorf("got %T but expected *timeseries.Series or *window.Collection, %w", data, ErrUnsupportedDataset)
	}
}

func (s *embeddingStage) Transform(data Dataset) (Dataset, error) {
	switch d := data.(type) {
	case *timeseries.Series:
		return s.te.Transform(d)
	case *window.Collection:
		return s.te.TransformCollection(d)
	default:
		return nil, fmt.Errorf("got %T but expected *timeseries.Series or *window.Collection, %w", data, ErrUnsupportedDataset)
	}
}

func (s *embeddingStage) Resample(target []float64) ([]float64, error) {
	if s.perWindow {
		// per-window embedding keeps one cloud per window
		resampled := make([]float64, len(target))
		copy(resampled, target)
		return resampled, nil
	}
	return s.te.Resample(target)
}

// SingleEmbeddingStage wraps a SingleTakensEmbedding as a resampling pipeline
// stage operating in global mode with automatically searched parameters.
func SingleEmbeddingStage(ste *embed.SingleTakensEmbedding) Stage {
	return Stage{
		Name:        "single_takens_embedding",
		Transformer: &singleEmbeddingStage{ste: ste},
		Resamples:   true,
	}
}

type singleEmbeddingStage struct {
	ste *embed.SingleTakensEmbedding
}

func (s *singleEmbeddingStage) Fit(data Dataset) error {
	series, err := asSeries(data)
	if err != nil {
		return err
	}
	return s.ste.Fit(series)
}

func (s *singleEmbeddingStage) Transform(data Dataset) (Dataset, error) {
	series, err := asSeries(data)
	if err != nil {
		return nil, err
	}
	return s.ste.Transform(series)
}

func (s *singleEmbeddingStage) Resample(target []float64) ([]float64, error) {
	return s.ste.Resample(target)
}

// LabelStage wraps a Labeller as a resampling pipeline stage that trims the
// series and derives the target from forward windows of the current target.
func LabelStage(l *label.Labeller) Stage {
	return Stage{
		Name:        "labeller",
		Transformer: &labelStage{l: l},
		Resamples:   true,
	}
}

type labelStage struct {
	l *label.Labeller
}

func (s *labelStage) Fit(data Dataset) error {
	series, err := asSeries(data)
	if err != nil {
		return err
	}
	return s.l.Fit(series)
}

func (s *labelStage) Transform(data Dataset) (Dataset, error) {
	series, err := asSeries(data)
	if err != nil {
		return nil, err
	}
	return s.l.Transform(series)
}

func (s *labelStage) Resample(target []float64) ([]float64, error) {
	return s.l.Resample(target)
}

// ExtractorStage wraps an opaque feature extractor as an ordinary
// non-resampling pipeline stage.
func ExtractorStage(name string, fe FeatureExtractor) Stage {
	return Stage{
		Name:        name,
		Transformer: fe,
		Resamples:   false,
	}
}

// NewOLSEstimator wraps the reference OLS model as a pipeline terminal
// estimator consuming a feature matrix.
func NewOLSEstimator(opt *models.OLSOptions) (Estimator, error) {
	ols, err := models.NewOLS(opt)
	if err != nil {
		return nil, err
	}
	return &olsEstimator{ols: ols}, nil
}

type olsEstimator struct {
	ols *models.OLS
}

func asFeatureMatrix(data Dataset) (FeatureMatrix, error) {
	fm, ok := data.(FeatureMatrix)
	if !ok {
		return nil, fmt.Errorf("got %T, %w", data, ErrUnsupportedEstimate)
	}
	return fm, nil
}

func (e *olsEstimator) Fit(data Dataset, target []float64) error {
	fm, err := asFeatureMatrix(data)
	if err != nil {
		return err
	}
	return e.ols.Fit(fm, target)
}

func (e *olsEstimator) Predict(data Dataset) ([]float64, error) {
	fm, err := asFeatureMatrix(data)
	if err != nil {
		return nil, err
	}
	return e.ols.Predict(fm)
}

func (e *olsEstimator) Score(data Dataset, target []float64) (float64, error) {
	fm, err := asFeatureMatrix(data)
	if err != nil {
		return 0.0, err
	}
	return e.ols.Score(fm, target)
}
