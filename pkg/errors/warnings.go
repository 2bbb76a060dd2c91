package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

// WarnSink receives every warning passed to Warn.
type WarnSink func(w error)

var (
	sinkMu sync.Mutex
	sink   WarnSink = stderrSink
)

func stderrSink(w error) { log.Printf("pml-warning: %v\n", w) }

// SetWarnSink installs s and returns the sink it replaced. A nil s restores
// the stderr fallback. pkg/log installs a zerolog-backed sink at init.
//
//	prev := errors.SetWarnSink(func(error) {})
//	defer errors.SetWarnSink(prev)
func SetWarnSink(s WarnSink) WarnSink {
	if s == nil {
		s = stderrSink
	}
	sinkMu.Lock()
	defer sinkMu.Unlock()
	prev := sink
	sink = s
	return prev
}

// Warn reports a non-fatal condition to the installed sink.
func Warn(w error) {
	sinkMu.Lock()
	s := sink
	sinkMu.Unlock()
	s(w)
}

// ConvergenceWarning is raised when an iterative solver stops at its
// iteration limit.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{algorithm, iterations, message}
}

func (w *ConvergenceWarning) Error() string {
	msg := fmt.Sprintf("%s failed to converge after %d iterations", w.Algorithm, w.Iterations)
	if w.Message == "" {
		return msg
	}
	return msg + ": " + w.Message
}

func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message)
}

// UndefinedMetricWarning is raised when a metric cannot be computed for the
// given inputs and a substitute value is returned instead.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

// NewUndefinedMetricWarning creates an UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{metric, condition, result}
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s", w.Metric, w.Result, w.Condition)
}

func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "UndefinedMetricWarning").
		Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result)
}
