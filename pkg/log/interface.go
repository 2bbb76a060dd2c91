// Package log provides the structured logging interface used across pml.
//
// The interface is slog-shaped (message plus alternating key/value fields);
// the default implementation writes through zerolog. Helpers that time
// cross-validation runs, searches and file loads log through a named logger
// so that records can be filtered by component:
//
//	logger := log.GetLoggerWithName("model_selection")
//	logger.Info("done CV: 0.81250 (+/-0.01200)",
//	    log.OperationKey, log.OperationCrossValidate,
//	    log.DurationMsKey, 1234,
//	)

package log

import (
	"context"
)

// Logger is the logging surface pml helpers write to. Fields alternate
// key, value; an error passed as the first field of Error is recorded under
// "error" together with its stack when it has one.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether a record at level would be written.
	Enabled(ctx context.Context, level Level) bool
}

// Level mirrors slog.Level values.
type Level int

// Log levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider hands out loggers. Installing one with SetProvider
// redirects every package level logger, which is how tests capture output.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
