package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "pml: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "pml: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 9, 0)
	assert.Equal(t, "pml: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 9", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 9, dimErr.Got)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "PredictProba")
	assert.Equal(t, "pml: LogisticRegression: this model is not fitted yet. Call Fit() before using PredictProba()", err.Error())

	var notFitted *NotFittedError
	assert.True(t, As(err, &notFitted))
}

func TestFileErrors(t *testing.T) {
	err := NewFileExistsError("data/pickles/x.gob")
	assert.Equal(t, "pml: file: data/pickles/x.gob already exists. Set force to overwrite", err.Error())
	var exists *FileExistsError
	assert.True(t, As(err, &exists))

	err = NewMissingFileError("data/pickles/y.gob")
	assert.Equal(t, "pml: could not find the file: data/pickles/y.gob", err.Error())
	var missing *MissingFileError
	assert.True(t, As(err, &missing))

	err = NewUnsupportedFormatError("a.zip", "zip files with multiple files not supported")
	var unsupported *UnsupportedFormatError
	require.True(t, As(err, &unsupported))
	assert.Equal(t, "a.zip", unsupported.Path)
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("NelderMead", 1000, "function value did not settle")
	assert.Equal(t, "NelderMead failed to converge after 1000 iterations: function value did not settle", warn.Error())

	bare := NewConvergenceWarning("LogisticRegression", 100, "")
	assert.Equal(t, "LogisticRegression failed to converge after 100 iterations", bare.Error())
}

func TestWarnRoutesToSink(t *testing.T) {
	var got []error
	prev := SetWarnSink(func(w error) { got = append(got, w) })
	defer SetWarnSink(prev)

	Warn(NewUndefinedMetricWarning("roc_auc", "only one class present", 0.5))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "roc_auc")
}

func TestSetWarnSinkNilRestoresFallback(t *testing.T) {
	var got error
	prev := SetWarnSink(func(w error) { got = w })
	defer SetWarnSink(prev)

	Warn(NewConvergenceWarning("NelderMead", 10, ""))
	assert.Error(t, got)

	SetWarnSink(nil)
	got = nil
	Warn(NewConvergenceWarning("NelderMead", 10, ""))
	assert.NoError(t, got)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in DoCV")
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in DoCV")

	wrapped = Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in Predict: expected 10, got 5")
}

func TestErrorChaining(t *testing.T) {
	base := fmt.Errorf("base error")
	err := NewModelError("Operation", "failed", Wrap(base, "wrapped once"))
	assert.True(t, strings.Contains(err.Error(), "base error"))
	assert.True(t, stderrors.Is(err, base))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "ScoreOperationsOnColumns")
		panic("operator exploded")
	}

	err := run()
	var panicErr *PanicError
	require.True(t, stderrors.As(err, &panicErr))
	assert.Equal(t, "ScoreOperationsOnColumns", panicErr.Operation)
	assert.Equal(t, "operator exploded", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestRecoverKeepsExistingError(t *testing.T) {
	original := fmt.Errorf("original error")
	run := func() (err error) {
		defer Recover(&err, "Fit")
		err = original
		panic("after error")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Fit")
	assert.True(t, stderrors.Is(err, original))
}

func TestSafeExecute(t *testing.T) {
	assert.NoError(t, SafeExecute("noop", func() error { return nil }))

	sentinel := fmt.Errorf("function error")
	assert.Equal(t, sentinel, SafeExecute("fails", func() error { return sentinel }))

	err := SafeExecute("panics", func() error { panic("boom") })
	var panicErr *PanicError
	assert.True(t, stderrors.As(err, &panicErr))
}
