package linear_model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

func separable() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRTol(1e-6))
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}

	test := mat.NewDense(2, 2, []float64{1, 1, 3, 3})
	pred, err = lr.Predict(test)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
	assert.Equal(t, []int{0, 1}, lr.Classes())
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
	}
	// the first feature decides the label
	assert.Greater(t, proba.At(2, 1), proba.At(0, 1))
	assert.Greater(t, proba.At(3, 1), proba.At(1, 1))
}

func TestLogisticRegression_Score(t *testing.T) {
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 0, 1,
		0, 1, 0,
		0, 1, 1,
		1, 0, 0,
		1, 0, 1,
		1, 1, 0,
		1, 1, 1,
	})
	// class 1 when the feature sum exceeds 1.5
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 1, 0, 1, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(10))
	require.NoError(t, lr.Fit(X, y))
	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.75)

	Xs, ys := separable()
	lr2 := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(10))
	require.NoError(t, lr2.Fit(Xs, ys))
	score, err = lr2.Score(Xs, ys)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLogisticRegression_Regularization(t *testing.T) {
	X := mat.NewDense(10, 5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
		1, 1, 0, 0, 0,
		0, 1, 1, 0, 0,
		0, 0, 1, 1, 0,
		0, 0, 0, 1, 1,
		1, 0, 0, 0, 1,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 1, 1, 0, 0, 1, 1, 1})

	strong := NewLogisticRegression(WithLRC(0.01), WithLRMaxIter(1000))
	require.NoError(t, strong.Fit(X, y))
	weak := NewLogisticRegression(WithLRC(100), WithLRMaxIter(1000))
	require.NoError(t, weak.Fit(X, y))

	norm := func(w []float64) float64 {
		var s float64
		for _, v := range w {
			s += v * v
		}
		return math.Sqrt(s)
	}
	assert.Less(t, norm(strong.Coef()[0]), norm(weak.Coef()[0]))
}

func TestLogisticRegression_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		5, 0,
		6, 0,
		5, 1,
		0, 5,
		0, 6,
		1, 5,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(10))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2}, lr.Classes())
	assert.Len(t, lr.Coef(), 3)

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	require.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1)+proba.At(i, 2), 1e-9)
	}
}

func TestLogisticRegression_GetSetParams(t *testing.T) {
	lr := NewLogisticRegression()
	params := lr.GetParams()
	assert.Equal(t, 1.0, params["C"])
	assert.Equal(t, 100, params["max_iter"])

	require.NoError(t, lr.SetParams(map[string]interface{}{
		"C":       2,
		"MaxIter": 200.0,
		"penalty": "none",
		"tol":     1e-5,
	}))
	assert.Equal(t, 2.0, lr.C)
	assert.Equal(t, 200, lr.maxIter)
	assert.Equal(t, "none", lr.penalty)
	assert.Equal(t, 1e-5, lr.tol)

	err := lr.SetParams(map[string]interface{}{"alpha": 1.0})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestLogisticRegression_CloneAndSeed(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithLRC(3), WithLRRandomState(7))
	require.NoError(t, lr.Fit(X, y))

	c := lr.Clone().(*LogisticRegression)
	assert.False(t, c.IsFitted())
	assert.Equal(t, lr.GetParams(), c.GetParams())

	var _ model.Classifier = c
	var _ model.RandomStateSetter = c
	c.SetRandomState(7)
	require.NoError(t, c.Fit(X, y))
	assert.InDeltaSlice(t, lr.Coef()[0], c.Coef()[0], 1e-12)
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := lr.Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = lr.PredictProba(X)
	assert.Error(t, err)
}

func TestLogisticRegression_InvalidInput(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	assert.Error(t, lr.Fit(X, mat.NewDense(3, 1, []float64{1, 1, 1})), "single class")
	assert.Error(t, lr.Fit(X, mat.NewDense(2, 1, []float64{0, 1})), "row mismatch")

	lr = NewLogisticRegression(WithLRPenalty("l1"))
	assert.Error(t, lr.Fit(X, mat.NewDense(3, 1, []float64{0, 1, 1})))
}

func TestLogisticRegression_IterationLimitWarns(t *testing.T) {
	var warnings []error
	prev := errors.SetWarnSink(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarnSink(prev)

	X, y := separable()
	lr := NewLogisticRegression(WithLRMaxIter(1), WithLRTol(1e-12))
	require.NoError(t, lr.Fit(X, y))

	require.NotEmpty(t, warnings)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "lbfgs", cw.Algorithm)
}
