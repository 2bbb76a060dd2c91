// Package errors provides the error types and warning plumbing shared by every
// pml package. Constructors attach a stack trace through cockroachdb/errors so
// that pkg/log can emit it next to the failing operation.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyData is returned when an operation receives no samples.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear system cannot be solved.
	ErrSingularMatrix = New("singular matrix")
)

// NotFittedError is returned by Predict/Transform on an unfitted estimator.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("pml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

func (e *NotFittedError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "NotFittedError").Str("model_name", e.ModelName).Str("method", e.Method)
}

// DimensionError reports a shape mismatch along one axis (0 rows, 1 columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("pml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "DimensionError").
		Str("operation", e.Op).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Int("expected", e.Expected).
		Int("got", e.Got)
}

// ValidationError reports an invalid parameter value.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

func (e *ValidationError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "ValidationError").
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// ValueError reports an argument that is well typed but not acceptable.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string { return "pml: " + e.Op + ": " + e.Message }

// ModelError wraps a failure inside an estimator or optimiser.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return "pml: " + e.Op + ": " + e.Kind
	}
	return fmt.Sprintf("pml: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// FileExistsError is returned when a dump target already exists and the
// caller did not ask to overwrite it.
type FileExistsError struct{ Path string }

// NewFileExistsError creates a FileExistsError with a stack trace.
func NewFileExistsError(path string) error {
	return errors.WithStack(&FileExistsError{Path: path})
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("pml: file: %s already exists. Set force to overwrite", e.Path)
}

func (e *FileExistsError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "FileExistsError").Str("path", e.Path)
}

// MissingFileError is returned by loaders asked to fail on a missing file.
type MissingFileError struct{ Path string }

// NewMissingFileError creates a MissingFileError with a stack trace.
func NewMissingFileError(path string) error {
	return errors.WithStack(&MissingFileError{Path: path})
}

func (e *MissingFileError) Error() string { return "pml: could not find the file: " + e.Path }

func (e *MissingFileError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "MissingFileError").Str("path", e.Path)
}

// UnsupportedFormatError is returned for file formats or archive layouts
// the loaders cannot read.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

// NewUnsupportedFormatError creates an UnsupportedFormatError with a stack trace.
func NewUnsupportedFormatError(path, reason string) error {
	return errors.WithStack(&UnsupportedFormatError{Path: path, Reason: reason})
}

func (e *UnsupportedFormatError) Error() string { return "pml: " + e.Path + ": " + e.Reason }

// Thin re-exports so callers need a single errors import.

func Is(err, target error) bool             { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }
func Wrap(err error, msg string) error      { return errors.Wrap(err, msg) }
func New(msg string) error                  { return errors.New(msg) }
func WithStack(err error) error             { return errors.WithStack(err) }
func Newf(format string, args ...any) error { return errors.Newf(format, args...) }

func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// Stacktrace returns the first recorded stack of err, or "".
func Stacktrace(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}
