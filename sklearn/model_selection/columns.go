package model_selection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/dataset"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// ColumnOp is a named transformation of a single column value.
type ColumnOp struct {
	Name  string
	Apply func(float64) float64
}

func (op ColumnOp) String() string { return op.Name }

// Operator returns a copy of frame with op applied to col.
type Operator func(frame *dataset.Frame, col string, op ColumnOp) (*dataset.Frame, error)

// MapColumn applies op to every value of col.
func MapColumn(frame *dataset.Frame, col string, op ColumnOp) (*dataset.Frame, error) {
	values, err := frame.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = op.Apply(v)
	}
	return frame.Mutate(col, out)
}

// ColumnResult is the best operation found for one column. Best is "no-op"
// when nothing beat the baseline. Improvement is positive when Best helps.
type ColumnResult struct {
	Column      string  `yaml:"column"`
	Best        string  `yaml:"best"`
	Score       float64 `yaml:"score"`
	Improvement float64 `yaml:"improvement"`
}

// ScoreOperationsOnColumns cross-validates est on frame once as a baseline
// and then once per (column, op) pair, keeping the best op of each column.
// Columns missing from frame are skipped. A nil operator means MapColumn; a
// panicking operator or op is reported as a *errors.PanicError.
func ScoreOperationsOnColumns(est model.Estimator, frame *dataset.Frame, y mat.Matrix, columns []string, ops []ColumnOp, operator Operator, nIter int) ([]ColumnResult, error) {
	if operator == nil {
		operator = MapColumn
	}
	sign := 1.0
	if !config.Get().ScoringHigherBetter {
		sign = -1
	}
	cv := func(f *dataset.Frame, prefix string) (float64, error) {
		X, err := f.Matrix()
		if err != nil {
			return 0, err
		}
		mean, _, err := DoCV(est, X, y, WithNIter(nIter), WithPrefix(prefix))
		return mean, err
	}

	baseline, err := cv(frame, "CV - baseline")
	if err != nil {
		return nil, errors.Wrap(err, "baseline")
	}

	var results []ColumnResult
	for _, c := range columns {
		if !frame.Has(c) {
			continue
		}
		r := ColumnResult{Column: c, Best: "no-op", Score: baseline}
		for _, op := range ops {
			var changed *dataset.Frame
			err := errors.SafeExecute("ScoreOperationsOnColumns", func() (err error) {
				changed, err = operator(frame.Copy(), c, op)
				return err
			})
			if err != nil {
				return nil, errors.Wrapf(err, "column %s op %s", c, op)
			}
			score, err := cv(changed, fmt.Sprintf("CV - col[%s] op[%s]", c, op))
			if err != nil {
				return nil, err
			}
			// keeps the better score under the configured direction
			if sign*score > sign*r.Score {
				r.Best, r.Score = op.String(), score
			}
		}
		r.Improvement = sign * (r.Score - baseline)
		timer.Dbg(r)
		results = append(results, r)
	}
	return results, nil
}
