package model_selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/pml/pkg/config"
)

func TestDefaultBoostingSteps(t *testing.T) {
	require.Len(t, DefaultBoostingSteps, 6)
	assert.Equal(t, "max_depth", DefaultBoostingSteps[0].Param)
	assert.Equal(t, []interface{}{3, 4, 5, 6, 7, 8, 9}, DefaultBoostingSteps[0].Values)
	assert.Len(t, DefaultBoostingSteps[2].Values, 8)
	assert.Equal(t, "colsample_bytree", DefaultBoostingSteps[5].Param)
}

func TestTuneSequentially(t *testing.T) {
	X, y := linearData(30)
	withConfig(t, func(c *config.Config) { c.Scoring = "neg_mean_squared_error" })

	est := newKnob()
	tuned, picked, err := TuneSequentially(est, X, y, DefaultBoostingSteps, 3)
	require.NoError(t, err)
	require.Len(t, picked, 6)

	got := tuned.(*knob).GetParams()
	assert.Equal(t, 5.0, got["max_depth"])
	assert.Equal(t, 0.1, got["learning_rate"])
	assert.Equal(t, 100.0, got["n_estimators"])
	assert.Equal(t, 2.0, got["min_child_weight"])
	assert.Equal(t, 0.8, got["subsample"])
	assert.Equal(t, 0.9, got["colsample_bytree"])

	assert.Equal(t, 3.0, est.params["max_depth"], "input estimator is not modified")
	assert.Equal(t, "subsample", picked[4].Param)
}

func TestTuneSequentiallyUnknownParam(t *testing.T) {
	X, y := linearData(30)
	_, _, err := TuneSequentially(newKnob(), X, y, []TuneStep{{Param: "depth", Values: ints(1)}}, 3)
	assert.ErrorContains(t, err, "tuning depth")
}
