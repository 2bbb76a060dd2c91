package model_selection

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/core/random"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// ChunkOp fits on a training chunk and returns one output row per row of
// Xte.
type ChunkOp func(Xtr, ytr, Xte mat.Matrix) (mat.Matrix, error)

// SelfChunkedOp runs op on every fold of cv and stitches the test outputs
// back together ordered by original row index. A nil cv is a shuffled
// 5-fold StratifiedKFold seeded from the configuration.
func SelfChunkedOp(X, y mat.Matrix, op ChunkOp, cv model.Splitter) (*mat.Dense, error) {
	if cv == nil {
		cv = NewStratifiedKFold(5, true, config.Get().Seed)
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, err
	}

	type chunkRow struct {
		index int
		out   mat.Matrix
		row   int
	}
	var (
		rows []chunkRow
		cols = -1
	)
	for fi, fold := range folds {
		out, err := op(TakeRows(X, fold.Train), TakeRows(y, fold.Train), TakeRows(X, fold.Test))
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", fi)
		}
		r, c := out.Dims()
		if r == 1 && c == len(fold.Test) && c > 1 {
			out, r, c = out.T(), c, 1
		}
		if r != len(fold.Test) {
			return nil, errors.NewDimensionError("SelfChunkedOp", len(fold.Test), r, 0)
		}
		if cols >= 0 && c != cols {
			return nil, errors.NewDimensionError("SelfChunkedOp", cols, c, 1)
		}
		cols = c
		for i, idx := range fold.Test {
			rows = append(rows, chunkRow{index: idx, out: out, row: i})
		}
	}
	if len(rows) == 0 {
		return nil, errors.NewValueError("SelfChunkedOp", "splitter produced no test rows")
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].index < rows[j].index })
	res := mat.NewDense(len(rows), cols, nil)
	for i, cr := range rows {
		for j := 0; j < cols; j++ {
			res.Set(i, j, cr.out.At(cr.row, j))
		}
	}
	return res, nil
}

type selfOptions struct {
	cv model.Splitter
}

// SelfOption configures the out-of-fold helpers.
type SelfOption func(*selfOptions)

// WithFolds uses a shuffled StratifiedKFold with n folds.
func WithFolds(n int) SelfOption {
	return func(o *selfOptions) { o.cv = NewStratifiedKFold(n, true, config.Get().Seed) }
}

// WithSplitter uses cv to produce the folds.
func WithSplitter(cv model.Splitter) SelfOption { return func(o *selfOptions) { o.cv = cv } }

// SelfPredict returns out-of-fold Predict output for every row of X.
func SelfPredict(est model.Estimator, X, y mat.Matrix, opts ...SelfOption) (*mat.Dense, error) {
	return selfPredict(est, X, y, "predict", opts)
}

// SelfPredictProba returns out-of-fold class probabilities.
func SelfPredictProba(est model.Estimator, X, y mat.Matrix, opts ...SelfOption) (*mat.Dense, error) {
	return selfPredict(est, X, y, "predict_proba", opts)
}

// SelfTransform returns out-of-fold Transform output.
func SelfTransform(est model.Estimator, X, y mat.Matrix, opts ...SelfOption) (*mat.Dense, error) {
	return selfPredict(est, X, y, "transform", opts)
}

func apply(est model.Estimator, method string, X mat.Matrix) (mat.Matrix, error) {
	switch method {
	case "predict":
		if p, ok := est.(model.Predictor); ok {
			return p.Predict(X)
		}
	case "predict_proba":
		if p, ok := est.(model.ProbaPredictor); ok {
			return p.PredictProba(X)
		}
	case "transform":
		if t, ok := est.(model.Transformer); ok {
			return t.Transform(X)
		}
	}
	return nil, errors.NewValueError("self_"+method, model.Name(est)+" does not support "+method)
}

func selfPredict(est model.Estimator, X, y mat.Matrix, method string, opts []SelfOption) (*mat.Dense, error) {
	var o selfOptions
	for _, opt := range opts {
		opt(&o)
	}
	n, _ := y.Dims()
	if xr, _ := X.Dims(); xr < n {
		return nil, errors.NewDimensionError("self_"+method, n, xr, 0)
	}
	X = HeadRows(X, n)

	timer.Start("self_" + method + " with cv chunks starting")
	random.Reseed(est)

	out, err := SelfChunkedOp(X, y, func(Xtr, ytr, Xte mat.Matrix) (mat.Matrix, error) {
		clone, err := model.Clone(est)
		if err != nil {
			return nil, err
		}
		if err := clone.Fit(Xtr, ytr); err != nil {
			return nil, err
		}
		return apply(clone, method, Xte)
	}, o.cv)
	if err != nil {
		return nil, err
	}
	timer.Stop("self_predict completed")
	log.GetLoggerWithName("model_selection").Debug("out-of-fold output",
		log.OperationKey, log.OperationSelfPredict,
		log.ModelNameKey, model.Name(est),
		log.SamplesKey, n,
	)
	return out, nil
}
