package model_selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/sklearn/linear_model"
)

func TestSelfPredictRestoresOrder(t *testing.T) {
	X, y := linearData(25)
	out, err := SelfPredict(linear_model.NewLinearRegression(), X, y, WithSplitter(NewKFold(5, true, 3)))
	require.NoError(t, err)
	r, c := out.Dims()
	require.Equal(t, 25, r)
	require.Equal(t, 1, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, y.At(i, 0), out.At(i, 0), 1e-8, "row %d", i)
	}
}

func TestSelfPredictTruncatesX(t *testing.T) {
	X, _ := linearData(30)
	_, y := linearData(20)
	out, err := SelfPredict(linear_model.NewLinearRegression(), X, y, WithSplitter(NewKFold(4, false, 0)))
	require.NoError(t, err)
	r, _ := out.Dims()
	assert.Equal(t, 20, r)
}

func TestSelfPredictProba(t *testing.T) {
	X, y := blobs(10)
	out, err := SelfPredictProba(linear_model.NewLogisticRegression(), X, y, WithFolds(5))
	require.NoError(t, err)
	r, c := out.Dims()
	require.Equal(t, 20, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, out)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-9)
		assert.Equal(t, int(y.At(i, 0)), floats.MaxIdx(row), "row %d", i)
	}
}

func TestSelfTransformUnsupported(t *testing.T) {
	X, y := linearData(20)
	_, err := SelfTransform(linear_model.NewLinearRegression(), X, y, WithSplitter(NewKFold(2, false, 0)))
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "does not support transform")
}

func TestSelfChunkedOpRowOutput(t *testing.T) {
	X, y := linearData(9)
	// returns the test rows' first feature as a single row
	op := func(_, _, Xte mat.Matrix) (mat.Matrix, error) {
		r, _ := Xte.Dims()
		row := mat.NewDense(1, r, nil)
		for i := 0; i < r; i++ {
			row.Set(0, i, Xte.At(i, 0))
		}
		return row, nil
	}
	out, err := SelfChunkedOp(X, y, op, NewKFold(3, true, 5))
	require.NoError(t, err)
	assert.Equal(t, mat.Col(nil, 0, X), mat.Col(nil, 0, out))
}

func TestSelfChunkedOpShapeMismatch(t *testing.T) {
	X, y := linearData(9)
	op := func(_, _, _ mat.Matrix) (mat.Matrix, error) { return mat.NewDense(2, 1, nil), nil }
	_, err := SelfChunkedOp(X, y, op, NewKFold(3, false, 0))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
