// Package progress renders a terminal progress bar while a sequence is
// consumed.
package progress

import (
	"fmt"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// defaultUpdates is roughly how many times a bar of known size redraws.
const defaultUpdates = 200

type options struct {
	name  string
	size  int
	every int
	out   io.Writer
}

// Option configures Iterate.
type Option func(*options)

// WithName sets the label prefix (default "Items").
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithSize declares the number of items. Without it the bar is a spinner.
func WithSize(n int) Option { return func(o *options) { o.size = n } }

// WithEvery redraws every n items. It is required when the size is unknown.
func WithEvery(n int) Option { return func(o *options) { o.every = n } }

// WithWriter sends the bar to w instead of stderr.
func WithWriter(w io.Writer) Option { return func(o *options) { o.out = w } }

// Iterate wraps seq so that consuming it draws a progress bar labelled
// "Name: i / size" ("Name: i / ?" for unknown sizes). When the consumer
// runs the sequence to its end the label becomes "Name: i" in green. When
// it stops early or panics the label turns red, and a panic continues.
func Iterate[T any](seq iter.Seq[T], opts ...Option) (iter.Seq[T], error) {
	o := options{name: "Items", size: -1, out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.every > 0:
	case o.size < 0:
		return nil, errors.NewValueError("progress.Iterate", "sequence has no size, set every")
	case o.size <= defaultUpdates:
		o.every = 1
	default:
		o.every = o.size / defaultUpdates
	}

	return func(yield func(T) bool) {
		barMax := o.size
		if barMax == 0 {
			barMax = -1
		}
		bar := progressbar.NewOptions(barMax,
			progressbar.OptionSetWriter(o.out),
			progressbar.OptionSetDescription(o.name),
			progressbar.OptionSetPredictTime(false),
		)
		i, done := 0, false
		defer func() {
			if r := recover(); r != nil || !done {
				_ = bar.Clear()
				color.New(color.FgRed).Fprintf(o.out, "\n%s: %d\n", o.name, i)
				if r != nil {
					panic(r)
				}
				return
			}
			if o.size > 0 {
				_ = bar.Set(i)
			}
			_ = bar.Finish()
			color.New(color.FgGreen).Fprintf(o.out, "\n%s: %d\n", o.name, i)
		}()

		for v := range seq {
			i++
			if i == 1 || i%o.every == 0 {
				bar.Describe(o.label(i))
				if o.size > 0 {
					_ = bar.Set(i)
				} else {
					_ = bar.Add(o.every)
				}
			}
			if !yield(v) {
				return
			}
		}
		done = true
	}, nil
}

func (o options) label(i int) string {
	if o.size < 0 {
		return fmt.Sprintf("%s: %d / ?", o.name, i)
	}
	return fmt.Sprintf("%s: %d / %d", o.name, i, o.size)
}

// Slice iterates xs with a bar sized to len(xs).
func Slice[T any](xs []T, opts ...Option) iter.Seq[T] {
	seq, _ := Iterate(slices.Values(xs), append([]Option{WithSize(len(xs))}, opts...)...)
	return seq
}
