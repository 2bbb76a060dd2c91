// Package model defines the estimator contracts shared by the scoring,
// search, calibration and out-of-fold helpers. Targets are always n×1
// column matrices.
package model

import (
	"github.com/YuminosukeSato/pml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Estimator is anything that can be fitted on (X, y).
type Estimator interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces one prediction per row.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor produces one probability column per class.
type ProbaPredictor interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Transformer maps rows of X through a fitted mapping.
type Transformer interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a fitted-value estimator.
type Regressor interface {
	Estimator
	Predictor
}

// Classifier is a label estimator that can also report class probabilities.
type Classifier interface {
	Estimator
	Predictor
	ProbaPredictor

	// Classes returns the sorted labels seen during Fit.
	Classes() []int
}

// Cloner returns an unfitted copy carrying the same hyperparameters.
type Cloner interface {
	Clone() Estimator
}

// ParamGetter exposes hyperparameters by snake_case name.
type ParamGetter interface {
	GetParams() map[string]interface{}
}

// ParamSetter updates hyperparameters by snake_case name.
type ParamSetter interface {
	SetParams(params map[string]interface{}) error
}

// RandomStateSetter is implemented by estimators with a seedable generator.
type RandomStateSetter interface {
	SetRandomState(seed int64)
}

// Wrapper is implemented by meta-estimators whose hyperparameters live on
// an inner estimator.
type Wrapper interface {
	BaseEstimator() Estimator
}

// Clone returns est.Clone() or an error when est cannot be cloned.
func Clone(est Estimator) (Estimator, error) {
	c, ok := est.(Cloner)
	if !ok {
		return nil, errors.NewValueError("model.Clone", "estimator does not implement Clone")
	}
	return c.Clone(), nil
}

// SetParam sets a single hyperparameter on est, or on its inner estimator
// when est is a Wrapper.
func SetParam(est Estimator, name string, value interface{}) error {
	if w, ok := est.(Wrapper); ok {
		est = w.BaseEstimator()
	}
	s, ok := est.(ParamSetter)
	if !ok {
		return errors.NewValueError("model.SetParam", "estimator does not implement SetParams")
	}
	return s.SetParams(map[string]interface{}{name: value})
}

// Name returns the estimator's type name for log records.
func Name(est interface{}) string {
	if n, ok := est.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "estimator"
}
