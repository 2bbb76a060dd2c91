// Package timer implements the debug logging helpers used around long
// running calls: Start records a timestamp under an id and logs a message,
// Stop logs a second message with the elapsed time appended and forgets the
// id. Both are no-ops unless config Debug is on or Force is passed.
//
//	timer.Start("starting CV")
//	...
//	timer.Stop("done CV: 0.81250 (+/-0.01200)") // "..., took: 1.52s"
//
// When no id is given the name of the calling function is used, so a Start
// and Stop in the same function pair up without coordination.
package timer

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/log"
)

// GlobalID is used when the caller cannot be resolved.
const GlobalID = "global"

type options struct {
	id    string
	force bool
}

// Option configures Start and Stop.
type Option func(*options)

// WithID pairs Start and Stop by an explicit id.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// Force logs even when debug is off.
func Force() Option {
	return func(o *options) { o.force = true }
}

// Table maps ids to start timestamps.
type Table struct {
	mu     sync.Mutex
	starts map[string]time.Time
	now    func() time.Time
}

// NewTable returns an empty Table using the wall clock.
func NewTable() *Table {
	return &Table{starts: make(map[string]time.Time), now: time.Now}
}

var defaultTable = NewTable()

func logger() log.Logger {
	return log.GetLoggerWithName("timer")
}

func resolve(opts []Option, skip int) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = callerName(skip + 1)
	}
	return o
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return GlobalID
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return GlobalID
	}
	return fn.Name()
}

func indent(msg string) string {
	if n := config.Get().Indent; n > 0 {
		return strings.Repeat("  ", n) + msg
	}
	return msg
}

func (t *Table) start(msg string, o options) {
	if !o.force && !config.Debug() {
		return
	}
	t.mu.Lock()
	t.starts[o.id] = t.now()
	t.mu.Unlock()
	logger().Info(indent(msg), log.TimerIDKey, o.id)
}

func (t *Table) stop(msg string, o options) string {
	if !o.force && !config.Debug() {
		return ""
	}
	t.mu.Lock()
	started, ok := t.starts[o.id]
	delete(t.starts, o.id)
	now := t.now()
	t.mu.Unlock()

	took := "unknown"
	fields := []any{log.TimerIDKey, o.id}
	if ok {
		elapsed := now.Sub(started)
		took = elapsed.String()
		fields = append(fields, log.DurationMsKey, elapsed.Milliseconds())
	}
	msg = fmt.Sprintf("%s, took: %s", msg, took)
	logger().Info(indent(msg), fields...)
	return msg
}

// Start records the current time under the resolved id and logs msg.
func (t *Table) Start(msg string, opts ...Option) {
	t.start(msg, resolve(opts, 1))
}

// Stop logs msg with the elapsed time since the matching Start and returns
// the logged message, or "" when logging is disabled. An id that was never
// started reports "took: unknown".
func (t *Table) Stop(msg string, opts ...Option) string {
	return t.stop(msg, resolve(opts, 1))
}

// Cancel forgets the resolved id without logging. Calls that fail between
// Start and Stop use it so the id does not stay pending.
func (t *Table) Cancel(opts ...Option) {
	t.cancel(resolve(opts, 1))
}

func (t *Table) cancel(o options) {
	t.mu.Lock()
	delete(t.starts, o.id)
	t.mu.Unlock()
}

// Pending returns the ids started but not yet stopped.
func (t *Table) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.starts))
	for id := range t.starts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start is Table.Start on the process-wide table.
func Start(msg string, opts ...Option) {
	defaultTable.start(msg, resolve(opts, 1))
}

// Stop is Table.Stop on the process-wide table.
func Stop(msg string, opts ...Option) string {
	return defaultTable.stop(msg, resolve(opts, 1))
}

// Cancel is Table.Cancel on the process-wide table.
func Cancel(opts ...Option) {
	defaultTable.cancel(resolve(opts, 1))
}

// Pending lists the open ids of the process-wide table.
func Pending() []string {
	return defaultTable.Pending()
}

// Debug logs msg when debug is on.
func Debug(msg string) {
	if !config.Debug() {
		return
	}
	logger().Info(indent(msg))
}

// Dbg logs its arguments separated by spaces when debug is on.
func Dbg(args ...any) {
	if !config.Debug() {
		return
	}
	logger().Info(indent(strings.TrimSuffix(fmt.Sprintln(args...), "\n")))
}
