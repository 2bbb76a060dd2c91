package model_selection

import (
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

// TuneStep is one hyperparameter and the values to try for it.
type TuneStep struct {
	Param  string
	Values []interface{}
}

func floatValues(vs ...float64) []interface{} {
	return lo.Map(vs, func(v float64, _ int) interface{} { return v })
}

func ints(vs ...int) []interface{} {
	return lo.Map(vs, func(v int, _ int) interface{} { return v })
}

// DefaultBoostingSteps is the usual greedy order for tuning gradient
// boosted trees: depth, learning rate, size, leaf weight, then sampling.
var DefaultBoostingSteps = []TuneStep{
	{Param: "max_depth", Values: ints(lo.RangeFrom(3, 7)...)},
	{Param: "learning_rate", Values: floatValues(.001, .01, .025, .1, .2, .5)},
	{Param: "n_estimators", Values: ints(50, 75, 100, 150, 200, 250, 300, 350)},
	{Param: "min_child_weight", Values: ints(1, 2, 5, 10)},
	{Param: "subsample", Values: floatValues(.5, .6, .8, .9, .95, 1.)},
	{Param: "colsample_bytree", Values: floatValues(.5, .6, .8, .9, .95, 1.)},
}

// TuneSequentially tunes a clone of est one step at a time: every value of
// a step is cross-validated with nIter splits and the best is kept before
// moving to the next step. It returns the tuned clone and the winning
// score of each step.
func TuneSequentially(est model.Estimator, X, y mat.Matrix, steps []TuneStep, nIter int) (model.Estimator, []ValueScore, error) {
	tuned, err := model.Clone(est)
	if err != nil {
		return nil, nil, err
	}
	if nIter <= 0 {
		nIter = 5
	}
	picked := make([]ValueScore, 0, len(steps))
	for _, step := range steps {
		results, err := ScoreEstimatorValues(step.Param, step.Values, tuned, X, y, nIter)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "tuning %s", step.Param)
		}
		best := results[0]
		if err := model.SetParam(tuned, step.Param, best.Value); err != nil {
			return nil, nil, err
		}
		picked = append(picked, best)
	}
	return tuned, picked, nil
}
