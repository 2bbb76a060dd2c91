package linear_model

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
)

// LogisticRegression is an L2 regularised logistic regression classifier.
// Two classes are fitted directly; more classes are fitted one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager

	penalty      string  // "l2" or "none"
	C            float64 // inverse regularisation strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64 // < 0 starts from zero weights

	coef      [][]float64 // one row per fitted binary problem
	intercept []float64
	classes   []int
	nIter     []int
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates an unfitted classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularisation, "l2" or "none".
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithLRC sets the inverse regularisation strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithLogisticFitIntercept sets whether to fit an intercept.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithLRMaxIter sets the LBFGS iteration limit.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLRTol sets the gradient norm at which fitting stops.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLRRandomState seeds the initial weights.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// Name implements the naming hook used in log records.
func (lr *LogisticRegression) Name() string { return "LogisticRegression" }

// Fit trains the classifier on X and the n×1 label column y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.NewValueError("LogisticRegression.Fit", "no samples")
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "must be l2 or none", lr.penalty)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}

	lr.state.Reset()
	lr.classes = uniqueLabels(y)
	if len(lr.classes) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "needs samples of at least two classes")
	}

	Xd := mat.DenseCopyOf(X)
	problems := len(lr.classes)
	if problems == 2 {
		problems = 1
	}
	lr.coef = make([][]float64, problems)
	lr.intercept = make([]float64, problems)
	lr.nIter = make([]int, problems)

	var rng *rand.Rand
	if lr.randomState >= 0 {
		rng = rand.New(rand.NewPCG(uint64(lr.randomState), 0))
	}

	for k := 0; k < problems; k++ {
		positive := lr.classes[len(lr.classes)-1]
		if problems > 1 {
			positive = lr.classes[k]
		}
		target := make([]float64, nSamples)
		for i := range target {
			if int(y.At(i, 0)) == positive {
				target[i] = 1
			}
		}
		if err := lr.fitBinary(Xd, target, k, rng); err != nil {
			return errors.NewModelError("LogisticRegression.Fit", "optimisation", err)
		}
	}

	lr.state.SetFitted(nSamples, nFeatures)
	log.GetLoggerWithName("linear_model").Debug("fitted",
		log.ModelNameKey, lr.Name(),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)
	return nil
}

// fitBinary minimises the mean log loss plus ||w||²/(2·C·n) with LBFGS.
// The last element of the parameter vector is the intercept.
func (lr *LogisticRegression) fitBinary(X *mat.Dense, target []float64, k int, rng *rand.Rand) error {
	n, f := X.Dims()
	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1 / (lr.C * float64(n))
	}

	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	gw := mat.NewVecDense(f, nil)

	forward := func(theta []float64) {
		z.MulVec(X, mat.NewVecDense(f, theta[:f]))
		b := theta[f]
		for i := 0; i < n; i++ {
			z.SetVec(i, z.AtVec(i)+b)
		}
	}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			forward(theta)
			var loss float64
			for i := 0; i < n; i++ {
				zi := z.AtVec(i)
				loss += softplus(zi) - target[i]*zi
			}
			loss /= float64(n)
			for _, w := range theta[:f] {
				loss += 0.5 * lambda * w * w
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			forward(theta)
			var gb float64
			for i := 0; i < n; i++ {
				r := sigmoid(z.AtVec(i)) - target[i]
				resid.SetVec(i, r)
				gb += r
			}
			gw.MulVec(X.T(), resid)
			for j := 0; j < f; j++ {
				grad[j] = gw.AtVec(j)/float64(n) + lambda*theta[j]
			}
			if lr.fitIntercept {
				grad[f] = gb / float64(n)
			} else {
				grad[f] = 0
			}
		},
	}

	init := make([]float64, f+1)
	if rng != nil {
		for j := 0; j < f; j++ {
			init[j] = rng.NormFloat64() * 0.01
		}
	}

	settings := &optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}
	res, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if res == nil {
		return err
	}
	if err != nil || res.Status == optimize.IterationLimit {
		msg := res.Status.String()
		if err != nil {
			msg = err.Error()
		}
		errors.Warn(errors.NewConvergenceWarning("lbfgs", res.Stats.MajorIterations, msg))
	}

	lr.coef[k] = append([]float64(nil), res.X[:f]...)
	lr.intercept[k] = res.X[f]
	lr.nIter[k] = res.Stats.MajorIterations
	return nil
}

// DecisionFunction returns the linear scores, one column per fitted problem.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := lr.state.RequireFitted(lr.Name(), "DecisionFunction"); err != nil {
		return nil, err
	}
	n, f := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", f); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, len(lr.coef), nil)
	for k, w := range lr.coef {
		col := mat.NewVecDense(n, nil)
		col.MulVec(X, mat.NewVecDense(f, w))
		for i := 0; i < n; i++ {
			out.Set(i, k, col.AtVec(i)+lr.intercept[k])
		}
	}
	return out, nil
}

// PredictProba returns one probability column per class in Classes order.
// One-vs-rest scores are normalised to sum to one per row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := scores.Dims()
	proba := mat.NewDense(n, len(lr.classes), nil)
	for i := 0; i < n; i++ {
		if len(lr.coef) == 1 {
			p := sigmoid(scores.At(i, 0))
			proba.Set(i, 0, 1-p)
			proba.Set(i, 1, p)
			continue
		}
		var sum float64
		for k := range lr.coef {
			p := sigmoid(scores.At(i, k))
			proba.Set(i, k, p)
			sum += p
		}
		for k := range lr.coef {
			proba.Set(i, k, proba.At(i, k)/sum)
		}
	}
	return proba, nil
}

// Predict returns the most probable class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, c := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		best := 0
		for k := 1; k < c; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		out.Set(i, 0, float64(lr.classes[best]))
	}
	return out, nil
}

// Score returns the mean accuracy on (X, y).
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Classes returns the sorted labels seen in Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// Coef returns the fitted weights, one row per binary problem.
func (lr *LogisticRegression) Coef() [][]float64 { return lr.coef }

// Intercept returns the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 { return lr.intercept }

// NIter returns the LBFGS iterations used per binary problem.
func (lr *LogisticRegression) NIter() []int { return lr.nIter }

// IsFitted reports whether Fit has completed.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// SetRandomState seeds the initial weights of the next Fit.
func (lr *LogisticRegression) SetRandomState(seed int64) { lr.randomState = seed }

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LogisticRegression) Clone() model.Estimator {
	return NewLogisticRegression(
		WithLRPenalty(lr.penalty),
		WithLRC(lr.C),
		WithLogisticFitIntercept(lr.fitIntercept),
		WithLRMaxIter(lr.maxIter),
		WithLRTol(lr.tol),
		WithLRRandomState(lr.randomState),
	)
}

// GetParams returns the hyperparameters by name.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

// SetParams updates hyperparameters. Numeric values may be given as any
// int or float type.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		var err error
		switch key := model.ParamKey(name); key {
		case "penalty":
			lr.penalty, err = model.String(key, v)
		case "C", "c":
			lr.C, err = model.Float(key, v)
		case "fit_intercept":
			lr.fitIntercept, err = model.Bool(key, v)
		case "max_iter":
			lr.maxIter, err = model.Int(key, v)
		case "tol":
			lr.tol, err = model.Float(key, v)
		case "random_state":
			var seed int
			seed, err = model.Int(key, v)
			lr.randomState = int64(seed)
		default:
			return model.UnknownParam(lr.Name(), name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func uniqueLabels(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
