package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
	ms "github.com/YuminosukeSato/pml/sklearn/model_selection"
)

// scores returns raw scores that rank the positives above the negatives.
func scores(n int) (*mat.Dense, *mat.Dense) {
	s := mat.NewDense(2*n, 1, nil)
	y := mat.NewDense(2*n, 1, nil)
	for i := 0; i < n; i++ {
		s.Set(i, 0, -3+float64(i)*0.1)
		s.Set(n+i, 0, 1+float64(i)*0.1)
		y.Set(n+i, 0, 1)
	}
	return s, y
}

func TestCalibratePlattOutOfFold(t *testing.T) {
	s, y := scores(10)
	p, err := Calibrate(s, y, nil, Platt, ms.WithFolds(5))
	require.NoError(t, err)
	r, c := p.Dims()
	require.Equal(t, 20, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, p.At(i, 0)+p.At(i, 1), 1e-9)
		assert.Equal(t, int(y.At(i, 0)), floats.MaxIdx(mat.Row(nil, i, p)), "row %d", i)
	}
}

func TestCalibratePlattHeldOut(t *testing.T) {
	s, y := scores(10)
	test := mat.NewDense(2, 1, []float64{-5, 5})
	p, err := Calibrate(s, y, test, Platt)
	require.NoError(t, err)
	assert.Less(t, p.At(0, 1), 0.5)
	assert.Greater(t, p.At(1, 1), 0.5)
}

func TestCalibrateIsotonicSingleColumn(t *testing.T) {
	s, y := scores(10)
	test := mat.NewDense(3, 1, []float64{-100, 0, 100})
	p, err := Calibrate(s, y, test, Isotonic)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.At(0, 0), "clipped below")
	assert.Equal(t, 1.0, p.At(2, 0), "clipped above")

	oof, err := Calibrate(s, y, nil, Isotonic, ms.WithFolds(2))
	require.NoError(t, err)
	r, c := oof.Dims()
	assert.Equal(t, 20, r)
	assert.Equal(t, 1, c)
	for i := 0; i < r; i++ {
		v := oof.At(i, 0)
		assert.True(t, v >= 0 && v <= 1, "row %d: %v", i, v)
	}
}

func TestCalibrateIsotonicPerClass(t *testing.T) {
	n := 12
	train := mat.NewDense(3*n, 3, nil)
	y := mat.NewDense(3*n, 1, nil)
	for i := 0; i < 3*n; i++ {
		cls := i % 3
		y.Set(i, 0, float64(cls))
		for j := 0; j < 3; j++ {
			v := 0.1 + 0.01*float64(i%4)
			if j == cls {
				v = 0.8 + 0.01*float64(i%4)
			}
			train.Set(i, j, v)
		}
	}
	test := mat.NewDense(1, 3, []float64{0.9, 0.1, 0.1})
	p, err := Calibrate(train, y, test, Isotonic)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.At(0, 0))
	assert.Equal(t, 0.0, p.At(0, 1))
	assert.Equal(t, 0.0, p.At(0, 2))

	oof, err := Calibrate(train, y, nil, Isotonic, ms.WithFolds(3))
	require.NoError(t, err)
	r, c := oof.Dims()
	assert.Equal(t, 3*n, r)
	assert.Equal(t, 3, c)
}

func TestCalibrateErrors(t *testing.T) {
	s, y := scores(5)
	_, err := Calibrate(s, y, nil, "sigmoid")
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = Calibrate(s, mat.NewDense(3, 1, nil), nil, Platt)
	assert.Error(t, err)

	_, err = Calibrate(s, y, mat.NewDense(2, 2, nil), Platt)
	assert.Error(t, err)
}

func TestCalibrationCurve(t *testing.T) {
	yTrue := []float64{0, 0, 1, 0, 1, 1}
	yProb := []float64{0.15, 0.25, 0.35, 0.65, 0.95, 1.0}
	c, err := CalibrationCurve(yTrue, yProb, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3}, c.ProbTrue, 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, 2.6 / 3}, c.ProbPred, 1e-12)

	c, err = CalibrationCurve(yTrue, yProb, 10)
	require.NoError(t, err)
	assert.Len(t, c.ProbTrue, 5, "0.95 and 1.0 share the last bin, empty bins dropped")

	c, err = CalibrationCurve([]float64{0, 1}, []float64{0.5, 0.75}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, c.ProbTrue, "edge value goes to the lower bin")
	assert.Equal(t, []float64{0.5, 0.75}, c.ProbPred)

	_, err = CalibrationCurve(yTrue, yProb[:3], 2)
	assert.Error(t, err)
	_, err = CalibrationCurve([]float64{2}, []float64{0.5}, 2)
	assert.Error(t, err)
	_, err = CalibrationCurve([]float64{1}, []float64{1.5}, 2)
	assert.Error(t, err)
}

func TestPlotReliability(t *testing.T) {
	c, err := CalibrationCurve([]float64{0, 1, 1, 0}, []float64{0.2, 0.7, 0.9, 0.4}, 5)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "reliability.png")
	require.NoError(t, PlotReliability(path, []string{"model"}, []Curve{c}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, PlotReliability(path, nil, []Curve{c}))
}
