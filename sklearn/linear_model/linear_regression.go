package linear_model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
)

// LinearRegression is ordinary least squares.
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool
	positive     bool

	coef      []float64
	intercept float64
}

// LinearRegressionOption is a functional option for LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// NewLinearRegression creates an unfitted regressor.
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range options {
		opt(lr)
	}
	return lr
}

// WithLRFitIntercept sets whether to learn the intercept.
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) { lr.fitIntercept = fit }
}

// WithPositive clips negative coefficients to zero after solving.
func WithPositive(positive bool) LinearRegressionOption {
	return func(lr *LinearRegression) { lr.positive = positive }
}

// Name implements the naming hook used in log records.
func (lr *LinearRegression) Name() string { return "LinearRegression" }

// Fit solves the least squares problem [1 | X]·b = y. Underdetermined
// systems get the minimum norm solution.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 {
		return errors.NewValueError("LinearRegression.Fit", "no samples")
	}
	if rows != yRows {
		return errors.NewDimensionError("LinearRegression.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, yCols, 1)
	}
	lr.state.Reset()

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}
	design := mat.NewDense(rows, cols+offset, nil)
	for i := 0; i < rows; i++ {
		if offset == 1 {
			design.Set(i, 0, 1)
		}
		for j := 0; j < cols; j++ {
			design.Set(i, j+offset, X.At(i, j))
		}
	}

	var b mat.Dense
	if err := b.Solve(design, y); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return errors.NewModelError("LinearRegression.Fit", "solve", errors.Wrap(errors.ErrSingularMatrix, err.Error()))
		}
		log.GetLoggerWithName("linear_model").Warn("ill-conditioned design matrix",
			log.ModelNameKey, lr.Name(), "condition", float64(cond))
	}

	lr.intercept = 0
	if offset == 1 {
		lr.intercept = b.At(0, 0)
	}
	lr.coef = make([]float64, cols)
	for j := range lr.coef {
		lr.coef[j] = b.At(j+offset, 0)
		if lr.positive && lr.coef[j] < 0 {
			lr.coef[j] = 0
		}
	}

	lr.state.SetFitted(rows, cols)
	return nil
}

// Predict returns X·coef + intercept as an n×1 column.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted(lr.Name(), "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		v := lr.intercept
		for j := 0; j < cols; j++ {
			v += X.At(i, j) * lr.coef[j]
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Score returns the coefficient of determination R² on (X, y).
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := y.Dims()
	var mean float64
	for i := 0; i < rows; i++ {
		mean += y.At(i, 0)
	}
	mean /= float64(rows)

	var ssTot, ssRes float64
	for i := 0; i < rows; i++ {
		d := y.At(i, 0) - mean
		r := y.At(i, 0) - pred.At(i, 0)
		ssTot += d * d
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0, errors.NewValueError("LinearRegression.Score", "zero variance in y")
	}
	return 1 - ssRes/ssTot, nil
}

// Coef returns a copy of the fitted weights.
func (lr *LinearRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept returns the fitted intercept.
func (lr *LinearRegression) Intercept() float64 { return lr.intercept }

// IsFitted reports whether Fit has completed.
func (lr *LinearRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the hyperparameters by name.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"positive":      lr.positive,
	}
}

// SetParams updates hyperparameters.
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		var err error
		switch key := model.ParamKey(name); key {
		case "fit_intercept":
			lr.fitIntercept, err = model.Bool(key, v)
		case "positive":
			lr.positive, err = model.Bool(key, v)
		default:
			return model.UnknownParam(lr.Name(), name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LinearRegression) Clone() model.Estimator {
	return NewLinearRegression(WithLRFitIntercept(lr.fitIntercept), WithPositive(lr.positive))
}
