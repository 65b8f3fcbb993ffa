// Package takens composes time-series windowing, delay embedding, and target
// resampling stages into a single pipeline that keeps data and target lengths
// aligned through every stage.
package takens

import (
	"errors"
	"fmt"
)

var (
	ErrNoStages            = errors.New("pipeline requires at least one stage")
	ErrNilTransformer      = errors.New("stage has no transformer")
	ErrResampleCapability  = errors.New("stage declares resampling but its transformer cannot resample")
	ErrTargetLenMismatch   = errors.New("data and target lengths diverged after a resampling stage")
	ErrNoEstimator         = errors.New("no terminal estimator configured")
	ErrNoTarget            = errors.New("no target provided")
	ErrUnfittedPipeline    = errors.New("pipeline has not been fit yet")
	ErrUnsupportedDataset  = errors.New("unsupported dataset type for stage")
	ErrUnsupportedEstimate = errors.New("estimator requires a feature matrix dataset")
)

// Dataset is the value passed between pipeline stages: a series, a window
// collection, a point cloud or cloud set, or a feature matrix. Its length is
// the number of samples currently flowing through the pipeline and must match
// the target length after every resampling stage.
type Dataset interface {
	Len() int
}

// FeatureMatrix is a row-per-sample feature vector dataset, typically the
// output of a feature extraction stage feeding the terminal estimator.
type FeatureMatrix [][]float64

func (f FeatureMatrix) Len() int {
	return len(f)
}

// Transformer is an ordinary pipeline stage that reshapes data and leaves the
// paired target untouched.
type Transformer interface {
	Fit(data Dataset) error
	Transform(data Dataset) (Dataset, error)
}

// TransformerResampler is a stage that changes the number of samples and
// re-derives the paired target at the same time.
type TransformerResampler interface {
	Transformer
	Resample(target []float64) ([]float64, error)
}

// FeatureExtractor maps a collection of same-shaped samples to one feature
// vector per sample. Extractors are consumed by the pipeline, not implemented
// by it; any deterministic Transformer producing a FeatureMatrix qualifies.
type FeatureExtractor = Transformer

// Estimator is the terminal stage of a pipeline.
type Estimator interface {
	Fit(data Dataset, target []float64) error
	Predict(data Dataset) ([]float64, error)
	Score(data Dataset, target []float64) (float64, error)
}

// Stage pairs a transformer with an explicit resampling capability tag. The
// tag is validated against the transformer's type at pipeline construction so
// a mismatch surfaces immediately rather than during a fit.
type Stage struct {
	Name        string
	Transformer Transformer
	Resamples   bool
}

// Pipeline chains heterogeneous stages, feeding each stage's fit with the
// data and target state produced by all prior stages. Stages without the
// resample capability pass the target through unchanged.
type Pipeline struct {
	stages    []Stage
	estimator Estimator
	fitted    bool
}

// NewPipeline creates a pipeline from an ordered list of stages and an
// optional terminal estimator.
func NewPipeline(stages []Stage, estimator Estimator) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	for i, st := range stages {
		if st.Transformer == nil {
			return nil, fmt.Errorf("stage %d %q, %w", i, st.Name, ErrNilTransformer)
		}
		if st.Resamples {
			if _, ok := st.Transformer.(TransformerResampler); !ok {
				return nil, fmt.Errorf("stage %d %q, %w", i, st.Name, ErrResampleCapability)
			}
		}
	}
	return &Pipeline{
		stages:    stages,
		estimator: estimator,
	}, nil
}

// Fit runs every stage's fit and transform in order, resampling the target
// through stages that declare the capability, and finally fits the terminal
// estimator when one is configured.
func (p *Pipeline) Fit(data Dataset, target []float64) error {
	_, _, err := p.fit(data, target)
	return err
}

// FitTransform behaves like Fit and additionally returns the final data and
// target state.
func (p *Pipeline) FitTransform(data Dataset, target []float64) (Dataset, []float64, error) {
	return p.fit(data, target)
}

func (p *Pipeline) fit(data Dataset, target []float64) (Dataset, []float64, error) {
	cur := data
	curTarget := target
	for _, st := range p.stages {
		if err := st.Transformer.Fit(cur); err != nil {
			return nil, nil, fmt.Errorf("fitting stage %q, %w", st.Name, err)
		}
		next, err := st.Transformer.Transform(cur)
		if err != nil {
			return nil, nil, fmt.Errorf("transforming stage %q, %w", st.Name, err)
		}
		if st.Resamples && curTarget != nil {
			curTarget, err = st.Transformer.(TransformerResampler).Resample(curTarget)
			if err != nil {
				return nil, nil, fmt.Errorf("resampling stage %q, %w", st.Name, err)
			}
			if len(curTarget) != next.Len() {
				return nil, nil, fmt.Errorf("stage %q produced %d samples with %d targets, %w",
					st.Name, next.Len(), len(curTarget), ErrTargetLenMismatch)
			}
		}
		cur = next
	}

	if p.estimator != nil && curTarget != nil {
		if err := p.estimator.Fit(cur, curTarget); err != nil {
			return nil, nil, fmt.Errorf("fitting estimator, %w", err)
		}
	}
	p.fitted = true
	return cur, curTarget, nil
}

// Transform applies every fitted stage's transform in order without refitting.
func (p *Pipeline) Transform(data Dataset) (Dataset, error) {
	if !p.fitted {
		return nil, ErrUnfittedPipeline
	}
	cur := data
	for _, st := range p.stages {
		next, err := st.Transformer.Transform(cur)
		if err != nil {
			return nil, fmt.Errorf("transforming stage %q, %w", st.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// TransformResample applies every fitted stage's transform while resampling
// the target through the stages that declare the capability.
func (p *Pipeline) TransformResample(data Dataset, target []float64) (Dataset, []float64, error) {
	if !p.fitted {
		return nil, nil, ErrUnfittedPipeline
	}
	cur := data
	curTarget := target
	for _, st := range p.stages {
		next, err := st.Transformer.Transform(cur)
		if err != nil {
			return nil, nil, fmt.Errorf("transforming stage %q, %w", st.Name, err)
		}
		if st.Resamples && curTarget != nil {
			curTarget, err = st.Transformer.(TransformerResampler).Resample(curTarget)
			if err != nil {
				return nil, nil, fmt.Errorf("resampling stage %q, %w", st.Name, err)
			}
			if len(curTarget) != next.Len() {
				return nil, nil, fmt.Errorf("stage %q produced %d samples with %d targets, %w",
					st.Name, next.Len(), len(curTarget), ErrTargetLenMismatch)
			}
		}
		cur = next
	}
	return cur, curTarget, nil
}

// Predict transforms the data through the fitted stages and delegates to the
// terminal estimator.
func (p *Pipeline) Predict(data Dataset) ([]float64, error) {
	if p.estimator == nil {
		return nil, ErrNoEstimator
	}
	transformed, err := p.Transform(data)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(transformed)
}

// Score transforms the data and target through the fitted stages and
// delegates to the terminal estimator.
func (p *Pipeline) Score(data Dataset, target []float64) (float64, error) {
	if p.estimator == nil {
		return 0.0, ErrNoEstimator
	}
	if target == nil {
		return 0.0, ErrNoTarget
	}
	transformed, resampled, err := p.TransformResample(data, target)
	if err != nil {
		return 0.0, err
	}
	return p.estimator.Score(transformed, resampled)
}
