// Package isotonic fits monotone step-wise regressions used to calibrate
// classifier scores.
package isotonic

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

// Out-of-bounds policies for inputs outside the fitted range.
const (
	OutOfBoundsNaN   = "nan"
	OutOfBoundsClip  = "clip"
	OutOfBoundsRaise = "raise"
)

// IsotonicRegression fits a non-decreasing (or non-increasing) function of a
// single feature by pool adjacent violators. Predictions between fitted
// points are linearly interpolated.
type IsotonicRegression struct {
	state *model.StateManager

	increasing  bool
	outOfBounds string

	xs, ys []float64 // fitted knots, xs strictly increasing
}

// Option configures an IsotonicRegression.
type Option func(*IsotonicRegression)

// WithIncreasing selects the direction of monotonicity.
func WithIncreasing(increasing bool) Option {
	return func(ir *IsotonicRegression) { ir.increasing = increasing }
}

// WithOutOfBounds sets the policy for inputs outside the fitted range:
// OutOfBoundsNaN, OutOfBoundsClip or OutOfBoundsRaise.
func WithOutOfBounds(policy string) Option {
	return func(ir *IsotonicRegression) { ir.outOfBounds = policy }
}

// New returns an unfitted increasing regressor that yields NaN outside the
// fitted range.
func New(opts ...Option) *IsotonicRegression {
	ir := &IsotonicRegression{
		state:       model.NewStateManager(),
		increasing:  true,
		outOfBounds: OutOfBoundsNaN,
	}
	for _, opt := range opts {
		opt(ir)
	}
	return ir
}

// Name implements the naming hook used in log records.
func (ir *IsotonicRegression) Name() string { return "IsotonicRegression" }

// Fit learns the monotone mapping from the single column X to y.
func (ir *IsotonicRegression) Fit(X, y mat.Matrix) error {
	n, f := X.Dims()
	yRows, _ := y.Dims()
	switch {
	case n == 0:
		return errors.NewValueError("IsotonicRegression.Fit", "no samples")
	case f != 1:
		return errors.NewDimensionError("IsotonicRegression.Fit", 1, f, 1)
	case yRows != n:
		return errors.NewDimensionError("IsotonicRegression.Fit", n, yRows, 0)
	}
	if err := ir.validatePolicy(); err != nil {
		return err
	}
	ir.state.Reset()

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return X.At(order[a], 0) < X.At(order[b], 0) })

	// ties in x are pooled before PAV
	var xs, means, weights []float64
	for _, i := range order {
		x, v := X.At(i, 0), y.At(i, 0)
		if k := len(xs) - 1; k >= 0 && xs[k] == x {
			means[k] = (means[k]*weights[k] + v) / (weights[k] + 1)
			weights[k]++
			continue
		}
		xs = append(xs, x)
		means = append(means, v)
		weights = append(weights, 1)
	}

	if !ir.increasing {
		for i := range means {
			means[i] = -means[i]
		}
	}
	fitted := pav(means, weights)
	if !ir.increasing {
		for i := range fitted {
			fitted[i] = -fitted[i]
		}
	}

	ir.xs, ir.ys = xs, fitted
	ir.state.SetFitted(n, 1)
	return nil
}

// pav returns the weighted least squares non-decreasing fit of v.
func pav(v, w []float64) []float64 {
	type block struct {
		mean, weight float64
		size         int
	}
	blocks := make([]block, 0, len(v))
	for i := range v {
		blocks = append(blocks, block{mean: v[i], weight: w[i], size: 1})
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if prev.mean <= last.mean {
				break
			}
			tw := prev.weight + last.weight
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, block{
				mean:   (prev.mean*prev.weight + last.mean*last.weight) / tw,
				weight: tw,
				size:   prev.size + last.size,
			})
		}
	}
	out := make([]float64, 0, len(v))
	for _, b := range blocks {
		for k := 0; k < b.size; k++ {
			out = append(out, b.mean)
		}
	}
	return out
}

func (ir *IsotonicRegression) validatePolicy() error {
	switch ir.outOfBounds {
	case OutOfBoundsNaN, OutOfBoundsClip, OutOfBoundsRaise:
		return nil
	}
	return errors.NewValidationError("out_of_bounds", "must be nan, clip or raise", ir.outOfBounds)
}

// Transform maps the single column X through the fitted function.
func (ir *IsotonicRegression) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := ir.state.RequireFitted(ir.Name(), "Transform"); err != nil {
		return nil, err
	}
	n, f := X.Dims()
	if f != 1 {
		return nil, errors.NewDimensionError("IsotonicRegression.Transform", 1, f, 1)
	}
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v, err := ir.at(X.At(i, 0))
		if err != nil {
			return nil, err
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Predict is Transform.
func (ir *IsotonicRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return ir.Transform(X)
}

func (ir *IsotonicRegression) at(x float64) (float64, error) {
	lo, hi := ir.xs[0], ir.xs[len(ir.xs)-1]
	if x < lo || x > hi {
		switch ir.outOfBounds {
		case OutOfBoundsClip:
			x = math.Max(lo, math.Min(hi, x))
		case OutOfBoundsRaise:
			return 0, errors.NewValueError("IsotonicRegression.Transform", "input outside the fitted range")
		default:
			return math.NaN(), nil
		}
	}
	if math.IsNaN(x) {
		return math.NaN(), nil
	}
	k := sort.SearchFloat64s(ir.xs, x)
	if ir.xs[k] == x {
		return ir.ys[k], nil
	}
	x0, x1 := ir.xs[k-1], ir.xs[k]
	y0, y1 := ir.ys[k-1], ir.ys[k]
	return y0 + (y1-y0)*(x-x0)/(x1-x0), nil
}

// Knots returns the fitted x thresholds and their values.
func (ir *IsotonicRegression) Knots() ([]float64, []float64) {
	return append([]float64(nil), ir.xs...), append([]float64(nil), ir.ys...)
}

// GetParams returns the hyperparameters by name.
func (ir *IsotonicRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"increasing":    ir.increasing,
		"out_of_bounds": ir.outOfBounds,
	}
}

// SetParams updates hyperparameters.
func (ir *IsotonicRegression) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		var err error
		switch key := model.ParamKey(name); key {
		case "increasing":
			ir.increasing, err = model.Bool(key, v)
		case "out_of_bounds":
			ir.outOfBounds, err = model.String(key, v)
		default:
			return model.UnknownParam(ir.Name(), name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (ir *IsotonicRegression) Clone() model.Estimator {
	return New(WithIncreasing(ir.increasing), WithOutOfBounds(ir.outOfBounds))
}
