package model_selection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/core/parallel"
	"github.com/YuminosukeSato/pml/core/random"
	"github.com/YuminosukeSato/pml/metrics"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// CrossValScore fits a clone of est on the train side of every fold and
// returns the scorer's value on the test side, in fold order. Folds run on
// parallel.Workers(nJobs, folds) goroutines.
func CrossValScore(est model.Estimator, X, y mat.Matrix, cv model.Splitter, scorer metrics.Scorer, nJobs int) ([]float64, error) {
	n, _ := X.Dims()
	if yr, _ := y.Dims(); yr != n {
		return nil, errors.NewDimensionError("CrossValScore", n, yr, 0)
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, err
	}
	if len(folds) == 0 {
		return nil, errors.NewValueError("CrossValScore", "splitter produced no folds")
	}

	logger := log.GetLoggerWithName("model_selection")
	scores := make([]float64, len(folds))
	err = parallel.Run(len(folds), nJobs, func(i int) (err error) {
		defer errors.Recover(&err, "CrossValScore")
		clone, err := model.Clone(est)
		if err != nil {
			return err
		}
		fold := folds[i]
		if err := clone.Fit(TakeRows(X, fold.Train), TakeRows(y, fold.Train)); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		s, err := scorer.Score(clone, TakeRows(X, fold.Test), TakeRows(y, fold.Test))
		if err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		scores[i] = s
		logger.Debug("fold scored",
			log.OperationKey, log.OperationCrossValidate,
			log.FoldKey, i,
			log.ScoringKey, scorer.Name,
			log.ScoreKey, s,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Summarize returns the mean of scores and its standard error (sample
// standard deviation over √n). The error is NaN for fewer than two scores.
func Summarize(scores []float64) (mean, sem float64) {
	if len(scores) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stat.Mean(scores, nil)
	if len(scores) < 2 {
		return mean, math.NaN()
	}
	return mean, stat.StdDev(scores, nil) / math.Sqrt(float64(len(scores)))
}

type cvOptions struct {
	nSamples   int
	nIter      int
	testSize   float64
	quiet      bool
	scoring    string
	scorer     *metrics.Scorer
	stratified bool
	nJobs      int
	prefix     string
}

// CVOption configures DoCV.
type CVOption func(*cvOptions)

// WithNSamples limits the evaluation to the first n rows.
func WithNSamples(n int) CVOption { return func(o *cvOptions) { o.nSamples = n } }

// WithNIter sets the number of shuffle splits (default 3).
func WithNIter(n int) CVOption { return func(o *cvOptions) { o.nIter = n } }

// WithTestSize sets the test fraction or count (default 1/nIter).
func WithTestSize(size float64) CVOption { return func(o *cvOptions) { o.testSize = size } }

// Quiet suppresses the start and done log lines.
func Quiet() CVOption { return func(o *cvOptions) { o.quiet = true } }

// WithScoring selects a registered scorer by name (default config Scoring).
func WithScoring(name string) CVOption { return func(o *cvOptions) { o.scoring = name } }

// WithScorer uses s instead of a registered scorer.
func WithScorer(s metrics.Scorer) CVOption { return func(o *cvOptions) { o.scorer = &s } }

// Stratified makes the default splitter a StratifiedShuffleSplit.
func Stratified() CVOption { return func(o *cvOptions) { o.stratified = true } }

// WithNJobs sets the fold parallelism; -1 defers to config CVNJobs.
func WithNJobs(n int) CVOption { return func(o *cvOptions) { o.nJobs = n } }

// WithPrefix sets the label used in the log lines (default "CV").
func WithPrefix(p string) CVOption { return func(o *cvOptions) { o.prefix = p } }

// DoCV reseeds est, cross-validates it with shuffle splits seeded from the
// configuration (or the configured custom splitter) and returns the mean
// test score and its standard error. The default test fraction is 1/nIter,
// so a single iteration needs an explicit WithTestSize.
func DoCV(est model.Estimator, X, y mat.Matrix, opts ...CVOption) (float64, float64, error) {
	o := cvOptions{nIter: 3, nJobs: -1, prefix: "CV"}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.quiet {
		timer.Start("starting " + o.prefix)
	}
	mean, sem, err := crossValidate(est, X, y, o)
	if err != nil {
		timer.Cancel()
		return 0, 0, err
	}
	if !o.quiet {
		timer.Stop(fmt.Sprintf("done %s: %.5f (+/-%.5f)", o.prefix, mean, sem))
	}
	return mean, sem, nil
}

func crossValidate(est model.Estimator, X, y mat.Matrix, o cvOptions) (float64, float64, error) {
	cfg := config.Get()
	random.Reseed(est)

	n, _ := y.Dims()
	if xr, _ := X.Dims(); xr < n {
		return 0, 0, errors.NewDimensionError("DoCV", n, xr, 0)
	}
	X = HeadRows(X, n)
	if o.nSamples > 0 && o.nSamples < n {
		X, y = HeadRows(X, o.nSamples), HeadRows(y, o.nSamples)
	}

	scorer, err := resolveScorer(o.scorer, o.scoring, cfg.Scoring, est)
	if err != nil {
		return 0, 0, err
	}
	if o.nIter < 1 {
		return 0, 0, errors.NewValidationError("n_iter", "must be positive", o.nIter)
	}
	if o.testSize == 0 {
		// 1/1 would read as a count of one row
		if o.nIter < 2 {
			return 0, 0, errors.NewValidationError("n_iter", "must be at least 2 without an explicit test size", o.nIter)
		}
		o.testSize = 1 / float64(o.nIter)
	}

	var cv model.Splitter
	switch {
	case cfg.CustomCV != nil:
		cv = cfg.CustomCV
	case o.stratified:
		cv = NewStratifiedShuffleSplit(o.nIter, o.testSize, cfg.Seed)
	default:
		cv = NewShuffleSplit(o.nIter, o.testSize, cfg.Seed)
	}
	if o.nJobs == -1 && cfg.CVNJobs > 0 {
		o.nJobs = cfg.CVNJobs
	}

	scores, err := CrossValScore(est, X, y, cv, scorer, o.nJobs)
	if err != nil {
		return 0, 0, err
	}
	mean, sem := Summarize(scores)
	return mean, sem, nil
}

func resolveScorer(s *metrics.Scorer, name, fallback string, est model.Estimator) (metrics.Scorer, error) {
	if s != nil {
		return *s, nil
	}
	if name == "" {
		name = fallback
	}
	return metrics.ResolveScorer(name, est)
}

// ValueScore is the cross-validated score of one hyperparameter value.
type ValueScore struct {
	Param string      `yaml:"param"`
	Value interface{} `yaml:"value"`
	Mean  float64     `yaml:"mean"`
	SEM   float64     `yaml:"sem"`
}

// ScoreEstimatorValues cross-validates a clone of est for every value of
// param and returns the results sorted by mean score, best first.
func ScoreEstimatorValues(param string, values []interface{}, est model.Estimator, X, y mat.Matrix, nIter int) ([]ValueScore, error) {
	results := make([]ValueScore, 0, len(values))
	for _, v := range values {
		clone, err := model.Clone(est)
		if err != nil {
			return nil, err
		}
		if err := model.SetParam(clone, param, v); err != nil {
			return nil, err
		}
		mean, sem, err := DoCV(clone, X, y,
			WithNIter(nIter),
			WithPrefix(fmt.Sprintf("CV - prop[%s] val[%v]", param, v)),
		)
		if err != nil {
			return nil, err
		}
		results = append(results, ValueScore{Param: param, Value: v, Mean: mean, SEM: sem})
	}
	if len(results) == 0 {
		return nil, errors.NewValueError("ScoreEstimatorValues", "no values to score")
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Mean > results[j].Mean })
	timer.Dbg("best", results[0].Param, results[0].Value, results[0].Mean)
	return results, nil
}
