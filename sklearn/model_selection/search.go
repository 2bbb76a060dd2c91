package model_selection

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/core/parallel"
	"github.com/YuminosukeSato/pml/core/random"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// ParamGrid maps hyperparameter names to the values to try.
type ParamGrid map[string][]interface{}

// Candidates expands the grid into every combination. Keys are normalised
// with model.ParamKey and iterated in sorted order, so the expansion is
// deterministic. An empty grid yields one empty candidate.
func (g ParamGrid) Candidates() ([]map[string]interface{}, error) {
	norm := make(map[string][]interface{}, len(g))
	for k, vs := range g {
		key := model.ParamKey(k)
		if _, dup := norm[key]; dup {
			return nil, errors.NewValidationError(k, "duplicate parameter after normalisation", key)
		}
		if len(vs) == 0 {
			return nil, errors.NewValidationError(k, "no values to search", vs)
		}
		norm[key] = vs
	}
	keys := lo.Keys(norm)
	sort.Strings(keys)

	out := []map[string]interface{}{{}}
	for _, k := range keys {
		next := make([]map[string]interface{}, 0, len(out)*len(norm[k]))
		for _, base := range out {
			for _, v := range norm[k] {
				c := lo.Assign(base, map[string]interface{}{k: v})
				next = append(next, c)
			}
		}
		out = next
	}
	return out, nil
}

// CandidateResult holds the fold scores of one parameter combination.
type CandidateResult struct {
	Params map[string]interface{} `yaml:"params"`
	Mean   float64                `yaml:"mean"`
	Std    float64                `yaml:"std"`
	Scores []float64              `yaml:"scores"`
}

// SearchResult is the outcome of a grid or randomised search.
type SearchResult struct {
	Scoring       string                 `yaml:"scoring"`
	Candidates    []CandidateResult      `yaml:"candidates"`
	BestIndex     int                    `yaml:"best_index"`
	BestParams    map[string]interface{} `yaml:"best_params"`
	BestScore     float64                `yaml:"best_score"`
	BestEstimator model.Estimator        `yaml:"-"`
}

// WriteYAML writes the result as a YAML document.
func (r *SearchResult) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encoding search result")
	}
	return enc.Close()
}

// Save writes the YAML report to path, creating its directory.
func (r *SearchResult) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := r.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GridSearchCV scores every combination of Grid with cross-validation.
type GridSearchCV struct {
	Estimator model.Estimator
	Grid      ParamGrid
	CV        model.Splitter
	// Scoring names a registered scorer; empty falls back to config then
	// to the estimator default.
	Scoring string
	NJobs   int
	Refit   bool
}

// NewGridSearchCV returns a search over grid with 5-fold CV that refits the
// best candidate on the full data.
func NewGridSearchCV(est model.Estimator, grid ParamGrid) *GridSearchCV {
	return &GridSearchCV{
		Estimator: est,
		Grid:      grid,
		CV:        NewKFold(5, false, 0),
		NJobs:     1,
		Refit:     true,
	}
}

// Fit runs the search.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) (*SearchResult, error) {
	cands, err := gs.Grid.Candidates()
	if err != nil {
		return nil, err
	}
	return search(gs.Estimator, cands, X, y, gs.CV, gs.Scoring, gs.NJobs, gs.Refit)
}

// RandomizedSearchCV scores NIter combinations drawn without replacement
// from the expanded grid.
type RandomizedSearchCV struct {
	GridSearchCV
	NIter       int
	RandomState int64
}

// NewRandomizedSearchCV returns a search of nIter candidates.
func NewRandomizedSearchCV(est model.Estimator, grid ParamGrid, nIter int, randomState int64) *RandomizedSearchCV {
	return &RandomizedSearchCV{
		GridSearchCV: *NewGridSearchCV(est, grid),
		NIter:        nIter,
		RandomState:  randomState,
	}
}

// Fit runs the search.
func (rs *RandomizedSearchCV) Fit(X, y mat.Matrix) (*SearchResult, error) {
	if rs.NIter < 1 {
		return nil, errors.NewValidationError("n_iter", "must be positive", rs.NIter)
	}
	cands, err := rs.Grid.Candidates()
	if err != nil {
		return nil, err
	}
	if rs.NIter < len(cands) {
		perm := random.FromSeed(rs.RandomState).Perm(len(cands))[:rs.NIter]
		cands = lo.Map(perm, func(i, _ int) map[string]interface{} { return cands[i] })
	}
	return search(rs.Estimator, cands, X, y, rs.CV, rs.Scoring, rs.NJobs, rs.Refit)
}

func applyParams(est model.Estimator, params map[string]interface{}) (model.Estimator, error) {
	clone, err := model.Clone(est)
	if err != nil {
		return nil, err
	}
	for k, v := range params {
		if err := model.SetParam(clone, k, v); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

func search(est model.Estimator, cands []map[string]interface{}, X, y mat.Matrix, cv model.Splitter, scoring string, nJobs int, refit bool) (*SearchResult, error) {
	scorer, err := resolveScorer(nil, scoring, config.Get().Scoring, est)
	if err != nil {
		return nil, err
	}
	if n, _ := X.Dims(); n == 0 {
		return nil, errors.ErrEmptyData
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, err
	}
	nf := len(folds)
	if nf == 0 {
		return nil, errors.NewValueError("search", "splitter produced no folds")
	}

	scores := make([][]float64, len(cands))
	for i := range scores {
		scores[i] = make([]float64, nf)
	}
	logger := log.GetLoggerWithName("model_selection")
	err = parallel.Run(len(cands)*nf, nJobs, func(k int) (err error) {
		defer errors.Recover(&err, "search")
		ci, fi := k/nf, k%nf
		clone, err := applyParams(est, cands[ci])
		if err != nil {
			return err
		}
		fold := folds[fi]
		if err := clone.Fit(TakeRows(X, fold.Train), TakeRows(y, fold.Train)); err != nil {
			return errors.Wrapf(err, "candidate %v fold %d", cands[ci], fi)
		}
		s, err := scorer.Score(clone, TakeRows(X, fold.Test), TakeRows(y, fold.Test))
		if err != nil {
			return errors.Wrapf(err, "candidate %v fold %d", cands[ci], fi)
		}
		scores[ci][fi] = s
		logger.Debug("candidate scored",
			log.OperationKey, log.OperationSearch,
			log.CandidateKey, ci,
			log.FoldKey, fi,
			log.ScoreKey, s,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &SearchResult{Scoring: scorer.Name, BestScore: math.Inf(-1)}
	for i, c := range cands {
		mean, std := stat.MeanStdDev(scores[i], nil)
		if nf < 2 {
			std = 0
		}
		res.Candidates = append(res.Candidates, CandidateResult{Params: c, Mean: mean, Std: std, Scores: scores[i]})
		if mean > res.BestScore {
			res.BestIndex, res.BestScore = i, mean
		}
	}
	res.BestParams = cands[res.BestIndex]

	if refit {
		best, err := applyParams(est, res.BestParams)
		if err != nil {
			return nil, err
		}
		if err := best.Fit(X, y); err != nil {
			return nil, errors.Wrap(err, "refit")
		}
		res.BestEstimator = best
	}
	return res, nil
}

type gsOptions struct {
	samples          float64
	nIter            int
	nJobs            int
	scoring          string
	randomIterations int
}

// SearchOption configures DoGS.
type SearchOption func(*gsOptions)

// WithSearchSamples limits the search to a shuffled subset of the rows. A
// value up to 1 is a fraction of the rows, a larger value a row count.
func WithSearchSamples(n float64) SearchOption { return func(o *gsOptions) { o.samples = n } }

// WithSearchNIter sets the number of shuffle splits (default 3).
func WithSearchNIter(n int) SearchOption { return func(o *gsOptions) { o.nIter = n } }

// WithSearchNJobs sets the parallelism (default -2, all CPUs but one).
func WithSearchNJobs(n int) SearchOption { return func(o *gsOptions) { o.nJobs = n } }

// WithSearchScoring selects a registered scorer by name.
func WithSearchScoring(name string) SearchOption { return func(o *gsOptions) { o.scoring = name } }

// WithRandomIterations switches to a randomised search of n candidates.
// The best candidate is not refitted.
func WithRandomIterations(n int) SearchOption { return func(o *gsOptions) { o.randomIterations = n } }

// DoGS shuffles (X, y) with the configured seed, keeps the requested
// number of rows and searches grid with shuffle-split cross-validation.
func DoGS(est model.Estimator, X, y mat.Matrix, grid ParamGrid, opts ...SearchOption) (*SearchResult, error) {
	o := gsOptions{samples: 1, nIter: 3, nJobs: -2}
	for _, opt := range opts {
		opt(&o)
	}
	timer.Start("starting grid search")
	res, err := gridSearch(est, X, y, grid, o)
	if err != nil {
		timer.Cancel()
		return nil, err
	}
	timer.Stop("done grid search")
	timer.Dbg(res.BestParams, res.BestScore)
	return res, nil
}

func gridSearch(est model.Estimator, X, y mat.Matrix, grid ParamGrid, o gsOptions) (*SearchResult, error) {
	cfg := config.Get()
	random.Reseed(est)

	n, _ := y.Dims()
	if xr, _ := X.Dims(); xr != n {
		return nil, errors.NewDimensionError("DoGS", n, xr, 0)
	}
	nSamples := int(o.samples)
	if o.samples <= 1 {
		nSamples = int(float64(n) * o.samples)
	}
	if nSamples < 2 || nSamples > n {
		return nil, errors.NewValidationError("n_samples", fmt.Sprintf("must select between 2 and %d rows", n), o.samples)
	}
	idx := random.FromSeed(cfg.Seed).Perm(n)[:nSamples]
	Xs, ys := TakeRows(X, idx), TakeRows(y, idx)

	cv := NewShuffleSplit(o.nIter, 0.1, cfg.Seed)
	if o.randomIterations > 0 {
		rs := NewRandomizedSearchCV(est, grid, o.randomIterations, cfg.Seed)
		rs.CV, rs.Scoring, rs.NJobs, rs.Refit = cv, o.scoring, o.nJobs, false
		return rs.Fit(Xs, ys)
	}
	gs := NewGridSearchCV(est, grid)
	gs.CV, gs.Scoring, gs.NJobs = cv, o.scoring, o.nJobs
	return gs.Fit(Xs, ys)
}
