package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// capture is the state shared by a TestLogger and every logger derived
// from it with With.
type capture struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	level Level
}

// TestLogger records JSON lines in memory so tests can assert on what a
// helper logged.
type TestLogger struct {
	c      *capture
	fields map[string]interface{}
}

// NewTestLogger creates a TestLogger capturing records at or above level.
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("fold scored", log.FoldKey, 2)
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	c := &capture{level: level}
	return &TestLogger{c: c, fields: map[string]interface{}{}}, &c.buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	putFields(merged, t.fields)
	putPairs(merged, fields)
	return &TestLogger{c: t.c, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return level >= t.c.level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if !t.Enabled(context.Background(), level) {
		return
	}
	entry := map[string]interface{}{"level": level.String(), "message": msg}
	putFields(entry, t.fields)
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			entry["error"] = err.Error()
			fields = fields[1:]
		}
	}
	putPairs(entry, fields)

	line, _ := json.Marshal(entry)
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.buf.Write(append(line, '\n'))
}

func putFields(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

func putPairs(dst map[string]interface{}, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		dst[fmt.Sprint(kv[i])] = v
	}
}

// Entries decodes the captured records in order.
func (t *TestLogger) Entries() ([]map[string]interface{}, error) {
	t.c.mu.Lock()
	raw := t.c.buf.String()
	t.c.mu.Unlock()

	var entries []map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(raw))
	for {
		var e map[string]interface{}
		err := dec.Decode(&e)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

// Messages returns the message of every captured record in order.
func (t *TestLogger) Messages() []string {
	entries, _ := t.Entries()
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		if m, ok := e["message"].(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// ContainsMessage reports whether any record contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	for _, m := range t.Messages() {
		if strings.Contains(m, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record has key == value. Numbers
// compare as float64 after the JSON round trip.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, _ := t.Entries()
	for _, e := range entries {
		if v, ok := e[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops all captured records.
func (t *TestLogger) Clear() {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.buf.Reset()
}

// TestLoggerProvider serves a single TestLogger.
type TestLoggerProvider struct{ logger *TestLogger }

// NewTestLoggerProvider creates a provider around a fresh TestLogger.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.c.mu.Lock()
	defer p.logger.c.mu.Unlock()
	p.logger.c.level = level
}

// CaptureLogs installs a TestLoggerProvider and returns its logger together
// with a restore function for t.Cleanup.
//
//	logger, restore := log.CaptureLogs(log.LevelDebug)
//	t.Cleanup(restore)
func CaptureLogs(level Level) (*TestLogger, func()) {
	p, _ := NewTestLoggerProvider(level)
	prev := SetProvider(p)
	return p.logger, func() { SetProvider(prev) }
}
