package progress

import (
	"bytes"
	"iter"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

func count(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

func TestSliceCompletes(t *testing.T) {
	var buf bytes.Buffer
	var got []string
	for v := range Slice([]string{"a", "b", "c", "d", "e"}, WithName("Jobs"), WithWriter(&buf)) {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Contains(t, buf.String(), "Jobs: 1 / 5")
	assert.Contains(t, buf.String(), "Jobs: 5\n")
}

func TestIterateUnknownSize(t *testing.T) {
	_, err := Iterate(count(10))
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))

	var buf bytes.Buffer
	seq, err := Iterate(count(10), WithEvery(2), WithWriter(&buf))
	require.NoError(t, err)
	n := 0
	for range seq {
		n++
	}
	assert.Equal(t, 10, n)
	assert.Contains(t, buf.String(), "Items: 10\n")
}

func forceColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })
}

func TestIterateEarlyBreak(t *testing.T) {
	forceColor(t)
	var buf bytes.Buffer
	seq, err := Iterate(count(100), WithSize(100), WithWriter(&buf))
	require.NoError(t, err)
	for v := range seq {
		if v == 2 {
			break
		}
	}
	assert.Contains(t, buf.String(), "Items: 3\n")
	assert.Contains(t, buf.String(), "\x1b[31m", "an early stop is reported as failed")
	assert.NotContains(t, buf.String(), "\x1b[32m")
}

func TestIterateCompletionIsGreen(t *testing.T) {
	forceColor(t)
	var buf bytes.Buffer
	for range Slice([]int{1, 2, 3}, WithWriter(&buf)) {
	}
	assert.Contains(t, buf.String(), "\x1b[32m")
	assert.NotContains(t, buf.String(), "\x1b[31m")
}

func TestIteratePanicPropagates(t *testing.T) {
	var buf bytes.Buffer
	seq, err := Iterate(count(5), WithSize(5), WithWriter(&buf))
	require.NoError(t, err)
	assert.PanicsWithValue(t, "boom", func() {
		for v := range seq {
			if v == 1 {
				panic("boom")
			}
		}
	})
	assert.Contains(t, buf.String(), "Items: 2\n")
}

func TestEveryDefaults(t *testing.T) {
	o := options{name: "Rows", size: 1000}
	assert.Equal(t, "Rows: 7 / 1000", o.label(7))
	o.size = -1
	assert.Equal(t, "Rows: 7 / ?", o.label(7))

	var buf bytes.Buffer
	seq, err := Iterate(count(0), WithSize(0), WithWriter(&buf))
	require.NoError(t, err)
	for range seq {
	}
	assert.Contains(t, buf.String(), "Items: 0\n")
}
