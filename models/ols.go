// Package models provides the reference terminal estimator used at the end of
// a feature pipeline.
package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrNoTrainingData     = errors.New("no training features")
	ErrNoTargetData       = errors.New("no target values")
	ErrRaggedFeatures     = errors.New("feature rows have inconsistent lengths")
	ErrTargetLenMismatch  = errors.New("target length does not match feature rows")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrUntrainedModel     = errors.New("model has not been fit yet")
)

type OLSOptions struct {
	FitIntercept bool `json:"fit_intercept"`
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLS computes an ordinary least squares fit over row-per-sample feature
// vectors using QR factorization.
type OLS struct {
	opt *OLSOptions

	coef      []float64
	intercept float64
	trained   bool
}

// NewOLS creates an OLS model with the given options. If no options are
// provided a default is used.
func NewOLS(opt *OLSOptions) (*OLS, error) {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLS{opt: opt}, nil
}

func designMatrix(x [][]float64, fitIntercept bool) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrNoTrainingData
	}
	n := len(x[0])
	cols := n
	if fitIntercept {
		cols++
	}
	dm := mat.NewDense(len(x), cols, nil)
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrRaggedFeatures)
		}
		if fitIntercept {
			dm.Set(i, 0, 1.0)
			for j, v := range row {
				dm.Set(i, j+1, v)
			}
			continue
		}
		dm.SetRow(i, row)
	}
	return dm, nil
}

// Fit solves for the coefficients minimizing the squared error between the
// feature rows and the target.
func (o *OLS) Fit(x [][]float64, y []float64) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if len(y) == 0 {
		return ErrNoTargetData
	}
	if len(x) != len(y) {
		return fmt.Errorf("features have %d rows and target has %d values, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	dm, err := designMatrix(x, o.opt.FitIntercept)
	if err != nil {
		return err
	}
	_, n := dm.Dims()

	qr := new(mat.QR)
	qr.Factorize(dm)

	q := new(mat.Dense)
	r := new(mat.Dense)
	qr.QTo(q)
	qr.RTo(r)

	yMx := mat.NewDense(1, len(y), y)
	yq := new(mat.Dense)
	yq.Mul(yMx, q)

	c := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		c[i] = yq.At(0, i)
		for j := i + 1; j < n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= r.At(i, i)
	}

	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.coef = c
	}
	o.trained = true
	return nil
}

// Predict computes the fitted linear combination for each feature row.
func (o *OLS) Predict(x [][]float64) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if !o.trained {
		return nil, ErrUntrainedModel
	}
	if len(x) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(x[0]) != len(o.coef) {
		return nil, fmt.Errorf("got %d features, but model has %d coefficients, %w", len(x[0]), len(o.coef), ErrFeatureLenMismatch)
	}

	res := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(o.coef) {
			return nil, fmt.Errorf("at row %d, %w", i, ErrRaggedFeatures)
		}
		res[i] = o.intercept + floats.Dot(o.coef, row)
	}
	return res, nil
}

// Score returns the coefficient of determination of the prediction against
// the target.
func (o *OLS) Score(x [][]float64, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0.0, fmt.Errorf("features have %d rows and target has %d values, %w", len(x), len(y), ErrTargetLenMismatch)
	}
	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, y, nil), nil
}

func (o *OLS) Intercept() float64 {
	return o.intercept
}

func (o *OLS) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}
