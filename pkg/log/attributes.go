// Attribute keys shared by pml log records. Keys are dotted so records can
// be filtered by prefix ("cv.", "search.", "io.").

package log

// Model and operation context.
const (
	// ModelNameKey is the estimator type, e.g. "LogisticRegression".
	ModelNameKey = "model.name"

	// OperationKey is the helper being run, see the Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey is the package or subsystem writing the record.
	ComponentKey = "ml.component"

	// TimerIDKey identifies a Start/Stop pair in the timer table.
	TimerIDKey = "timer.id"

	// RunIDKey tags every record of one configured run.
	RunIDKey = "config.run_id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TargetsKey  = "data.targets"
	PathKey     = "io.path"
	FormatKey   = "io.format"
)

// Timing and scores.
const (
	DurationMsKey = "perf.duration_ms"
	ElapsedKey    = "perf.elapsed"
	ScoreKey      = "metrics.score"
	ScoreSEMKey   = "metrics.score_sem"
	ScoringKey    = "metrics.scoring"
	FoldKey       = "cv.fold"
	NFoldsKey     = "cv.n_folds"
	NJobsKey      = "cv.n_jobs"
	CandidateKey  = "search.candidate"
	ParamsKey     = "search.params"
	WeightsKey    = "ensemble.weights"
	IterationKey  = "training.iteration"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
	SuggestionKey = "error.suggestion"
)

// Configuration.
const (
	RandomSeedKey = "config.random_seed"
	DebugKey      = "config.debug"
)

// Standard values for OperationKey and ErrorCodeKey.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationPredictProba  = "predict_proba"
	OperationTransform     = "transform"
	OperationScore         = "score"
	OperationCrossValidate = "cross_validate"
	OperationSearch        = "search"
	OperationSelfPredict   = "self_predict"
	OperationCalibrate     = "calibrate"
	OperationOptimise      = "optimise"
	OperationLoad          = "load"
	OperationDump          = "dump"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
