// Package ensemble blends the predictions of several fitted models.
package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/pml/metrics"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// maxEvaluations bounds the Nelder-Mead search.
const maxEvaluations = 5000

// Blend holds the optimised weights, which sum to one, and the score of
// the weighted average they produce.
type Blend struct {
	Weights []float64
	Score   float64
}

// Average returns the weighted mean of preds. Every matrix must have the
// same shape.
func Average(preds []mat.Matrix, weights []float64) (*mat.Dense, error) {
	if len(preds) == 0 {
		return nil, errors.ErrEmptyData
	}
	if len(weights) != len(preds) {
		return nil, errors.NewDimensionError("Average", len(preds), len(weights), 0)
	}
	r, c := preds[0].Dims()
	total := floats.Sum(weights)
	if total == 0 {
		return nil, errors.NewValueError("Average", "weights sum to zero")
	}
	out := mat.NewDense(r, c, nil)
	var scaled mat.Dense
	for i, p := range preds {
		if pr, pc := p.Dims(); pr != r || pc != c {
			return nil, errors.NewDimensionError("Average", r, pr, 0)
		}
		scaled.Scale(weights[i]/total, p)
		out.Add(out, &scaled)
	}
	return out, nil
}

// normalise clips w to [0, 1] and rescales it to sum to one. All-zero
// weights become uniform.
func normalise(w []float64) []float64 {
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = min(max(v, 0), 1)
	}
	s := floats.Sum(out)
	if s == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	floats.Scale(1/s, out)
	return out
}

// OptimiseWeights searches for the blend of preds that scores best against
// y. The search is Nelder-Mead from equal weights of 0.5; candidate weights
// are clipped to [0, 1] and normalised before scoring. The configuration's
// ScoringHigherBetter decides the direction.
func OptimiseWeights(preds []mat.Matrix, y mat.Matrix, score metrics.ScoreFunc) (Blend, error) {
	if len(preds) == 0 {
		return Blend{}, errors.ErrEmptyData
	}
	n, _ := y.Dims()
	for i, p := range preds {
		if r, _ := p.Dims(); r != n {
			return Blend{}, errors.Wrapf(errors.NewDimensionError("OptimiseWeights", n, r, 0), "prediction %d", i)
		}
	}
	sign := 1.0
	if config.Get().ScoringHigherBetter {
		sign = -1
	}
	yTrue := metrics.ColumnVec(y, 0)

	var evalErr error
	objective := func(w []float64) float64 {
		avg, err := Average(preds, normalise(w))
		if err == nil {
			var s float64
			if s, err = score(yTrue, avg, nil); err == nil {
				return sign * s
			}
		}
		if evalErr == nil {
			evalErr = err
		}
		return 0
	}

	x0 := make([]float64, len(preds))
	for i := range x0 {
		x0[i] = 0.5
	}
	if len(preds) == 1 {
		s, err := score(yTrue, preds[0], nil)
		if err != nil {
			return Blend{}, err
		}
		return Blend{Weights: []float64{1}, Score: s}, nil
	}

	res, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		x0,
		&optimize.Settings{FuncEvaluations: maxEvaluations},
		&optimize.NelderMead{},
	)
	if evalErr != nil {
		return Blend{}, errors.Wrap(evalErr, "scoring blend")
	}
	if err != nil {
		return Blend{}, errors.NewModelError("OptimiseWeights", "nelder-mead", err)
	}
	if res.Status == optimize.FunctionEvaluationLimit {
		errors.Warn(errors.NewConvergenceWarning("NelderMead", res.Stats.MajorIterations, res.Status.String()))
	}

	b := Blend{Weights: normalise(res.X), Score: sign * res.F}
	timer.Dbg(fmt.Sprintf("Ensemble Score: %v", b.Score))
	timer.Dbg(fmt.Sprintf("Best Weights: %v", b.Weights))
	log.GetLoggerWithName("ensemble").Debug("weights optimised",
		log.OperationKey, log.OperationOptimise,
		log.WeightsKey, b.Weights,
		log.ScoreKey, b.Score,
		log.IterationKey, res.Stats.MajorIterations,
	)
	return b, nil
}
