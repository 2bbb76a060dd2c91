package metrics

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

// ScoreFunc compares true targets with the output of Predict or
// PredictProba. classes is nil unless the estimator is a model.Classifier.
type ScoreFunc func(yTrue *mat.VecDense, out mat.Matrix, classes []int) (float64, error)

// Scorer turns a metric into an estimator score. Loss metrics are negated
// so that a higher score is always better.
type Scorer struct {
	Name            string
	Func            ScoreFunc
	GreaterIsBetter bool
	NeedsProba      bool
}

// Score evaluates a fitted est on (X, y).
func (s Scorer) Score(est model.Estimator, X, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0, errors.NewValueError("Scorer.Score", "nil target")
	}
	var (
		out mat.Matrix
		err error
	)
	if s.NeedsProba {
		p, ok := est.(model.ProbaPredictor)
		if !ok {
			return 0, errors.NewValueError("Scorer.Score", s.Name+" needs an estimator with PredictProba")
		}
		out, err = p.PredictProba(X)
	} else {
		p, ok := est.(model.Predictor)
		if !ok {
			return 0, errors.NewValueError("Scorer.Score", s.Name+" needs an estimator with Predict")
		}
		out, err = p.Predict(X)
	}
	if err != nil {
		return 0, err
	}

	var classes []int
	if c, ok := est.(model.Classifier); ok {
		classes = c.Classes()
	}
	v, err := s.Func(ColumnVec(y, 0), out, classes)
	if err != nil {
		return 0, errors.Wrapf(err, "scorer %s", s.Name)
	}
	if !s.GreaterIsBetter {
		v = -v
	}
	return v, nil
}

// FromFunc builds a Predict-based scorer from a vector metric.
func FromFunc(name string, fn func(yTrue, yPred *mat.VecDense) (float64, error), greaterIsBetter bool) Scorer {
	return Scorer{
		Name: name,
		Func: func(yTrue *mat.VecDense, out mat.Matrix, _ []int) (float64, error) {
			return fn(yTrue, ColumnVec(out, 0))
		},
		GreaterIsBetter: greaterIsBetter,
	}
}

// MatrixScore adapts a metric over (yTrue, output) matrices, such as
// AUCMatrix or MSEMatrix, to a ScoreFunc.
func MatrixScore(fn func(yTrue, out mat.Matrix) (float64, error)) ScoreFunc {
	return func(yTrue *mat.VecDense, out mat.Matrix, _ []int) (float64, error) {
		return fn(yTrue, out)
	}
}

var scorers = map[string]Scorer{
	"accuracy": FromFunc("accuracy", Accuracy, true),
	"neg_mean_squared_error": {
		Name: "neg_mean_squared_error",
		Func: MatrixScore(MSEMatrix),
	},
	"neg_mean_absolute_error": FromFunc("neg_mean_absolute_error", MAE, false),
	"r2":                      FromFunc("r2", R2Score, true),
	"roc_auc": {
		Name: "roc_auc",
		Func: func(yTrue *mat.VecDense, proba mat.Matrix, _ []int) (float64, error) {
			_, c := proba.Dims()
			return AUC(yTrue, ColumnVec(proba, c-1))
		},
		GreaterIsBetter: true,
		NeedsProba:      true,
	},
	"neg_log_loss": {
		Name: "neg_log_loss",
		Func: func(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
			_, c := proba.Dims()
			if classes == nil {
				if c != 1 {
					return 0, errors.NewValueError("neg_log_loss", "class labels unknown for multi-column probabilities")
				}
				return BinaryLogLoss(yTrue, ColumnVec(proba, 0))
			}
			return LogLoss(yTrue, proba, classes)
		},
		NeedsProba: true,
	},
}

// GetScorer looks up a scorer by its scikit-learn name.
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[strings.ToLower(name)]
	if !ok {
		return Scorer{}, errors.NewValidationError("scoring", "unknown scorer, expected one of "+strings.Join(ScorerNames(), ", "), name)
	}
	return s, nil
}

// ScorerNames lists the registered scorer names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for n := range scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultScorer is the estimator's own score: accuracy for classifiers,
// r2 for everything else.
func DefaultScorer(est model.Estimator) Scorer {
	if _, ok := est.(model.Classifier); ok {
		return scorers["accuracy"]
	}
	return scorers["r2"]
}

// ResolveScorer returns GetScorer(name), or DefaultScorer(est) when name
// is empty.
func ResolveScorer(name string, est model.Estimator) (Scorer, error) {
	if name == "" {
		return DefaultScorer(est), nil
	}
	return GetScorer(name)
}
