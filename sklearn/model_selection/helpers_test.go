package model_selection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

// linearData returns X = [i, (7i mod 5)] and y = 2·x0 + 5.
func linearData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64((7*i)%5))
		y.Set(i, 0, 2*float64(i)+5)
	}
	return X, y
}

// blobs returns two well separated classes of n rows each.
func blobs(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(2*n, 2, nil)
	y := mat.NewDense(2*n, 1, nil)
	for i := 0; i < n; i++ {
		off := float64(i%5) * 0.1
		X.Set(i, 0, -2-off)
		X.Set(i, 1, -2+off)
		X.Set(n+i, 0, 2+off)
		X.Set(n+i, 1, 2-off)
		y.Set(n+i, 0, 1)
	}
	return X, y
}

func withConfig(t *testing.T, fn func(c *config.Config)) {
	t.Helper()
	config.Set(fn)
	t.Cleanup(config.Reset)
}

// knob predicts the linearData target plus a penalty that is zero only
// when every parameter sits on its target.
type knob struct {
	params  map[string]float64
	targets map[string]float64
}

func newKnob() *knob {
	return &knob{
		params: map[string]float64{
			"max_depth": 3, "learning_rate": .5, "n_estimators": 50,
			"min_child_weight": 10, "subsample": 1, "colsample_bytree": 1,
		},
		targets: map[string]float64{
			"max_depth": 5, "learning_rate": .1, "n_estimators": 100,
			"min_child_weight": 2, "subsample": .8, "colsample_bytree": .9,
		},
	}
}

func (k *knob) Fit(_, _ mat.Matrix) error { return nil }

func (k *knob) Predict(X mat.Matrix) (mat.Matrix, error) {
	var penalty float64
	for name, v := range k.params {
		penalty += math.Abs(v - k.targets[name])
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 2*X.At(i, 0)+5+penalty)
	}
	return out, nil
}

func (k *knob) GetParams() map[string]interface{} {
	out := make(map[string]interface{}, len(k.params))
	for n, v := range k.params {
		out[n] = v
	}
	return out
}

func (k *knob) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		key := model.ParamKey(name)
		if _, ok := k.params[key]; !ok {
			return model.UnknownParam("knob", name)
		}
		f, err := model.Float(key, v)
		if err != nil {
			return err
		}
		k.params[key] = f
	}
	return nil
}

func (k *knob) Clone() model.Estimator {
	c := newKnob()
	for n, v := range k.params {
		c.params[n] = v
	}
	return c
}

// brokenFit fails every Fit.
type brokenFit struct{}

func (brokenFit) Fit(_, _ mat.Matrix) error { return errors.New("boom") }

func (brokenFit) Predict(X mat.Matrix) (mat.Matrix, error) { return X, nil }

func (b brokenFit) Clone() model.Estimator { return b }
