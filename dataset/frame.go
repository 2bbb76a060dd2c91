// Package dataset loads tabular files into Frames, a thin numeric view over
// gota dataframes that feeds the cross-validation helpers.
package dataset

import (
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// Frame is an immutable table. Every method that changes data returns a new
// Frame.
type Frame struct {
	df dataframe.DataFrame
}

// FromDataFrame wraps df, returning df.Err if it carries one.
func FromDataFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataframe")
	}
	return &Frame{df: df}, nil
}

// FromRecords builds a Frame from rows of strings whose first row is the
// header. Column types are detected.
func FromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}
	return FromDataFrame(dataframe.LoadRecords(records))
}

// FromMatrix builds a float Frame from m. Missing names become X0, X1, ...
func FromMatrix(m mat.Matrix, names ...string) (*Frame, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.ErrEmptyData
	}
	cols := make([]series.Series, c)
	for j := 0; j < c; j++ {
		name := "X" + strconv.Itoa(j)
		if j < len(names) {
			name = names[j]
		}
		cols[j] = series.New(mat.Col(nil, j, m), series.Float, name)
	}
	return FromDataFrame(dataframe.New(cols...))
}

// DataFrame returns the underlying gota dataframe.
func (f *Frame) DataFrame() dataframe.DataFrame { return f.df }

// Names returns the column names in order.
func (f *Frame) Names() []string { return f.df.Names() }

// Nrow returns the number of rows.
func (f *Frame) Nrow() int { return f.df.Nrow() }

// Ncol returns the number of columns.
func (f *Frame) Ncol() int { return f.df.Ncol() }

// Has reports whether col is a column name.
func (f *Frame) Has(col string) bool { return lo.Contains(f.df.Names(), col) }

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame { return &Frame{df: f.df.Copy()} }

// Records returns the header followed by every row as strings.
func (f *Frame) Records() [][]string { return f.df.Records() }

// Column returns col as floats; unparsable cells are NaN.
func (f *Frame) Column(col string) ([]float64, error) {
	if !f.Has(col) {
		return nil, errors.NewValueError("Frame.Column", "no column "+col)
	}
	return f.df.Col(col).Float(), nil
}

// Vector returns col as a vector.
func (f *Frame) Vector(col string) (*mat.VecDense, error) {
	v, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, errors.ErrEmptyData
	}
	return mat.NewVecDense(len(v), v), nil
}

// Matrix returns the named columns, or every column when none are named,
// as an Nrow×len(cols) matrix.
func (f *Frame) Matrix(cols ...string) (*mat.Dense, error) {
	if len(cols) == 0 {
		cols = f.Names()
	}
	if len(cols) == 0 || f.Nrow() == 0 {
		return nil, errors.ErrEmptyData
	}
	out := mat.NewDense(f.Nrow(), len(cols), nil)
	for j, c := range cols {
		v, err := f.Column(c)
		if err != nil {
			return nil, err
		}
		out.SetCol(j, v)
	}
	return out, nil
}

// Drop returns the Frame without cols.
func (f *Frame) Drop(cols ...string) (*Frame, error) {
	for _, c := range cols {
		if !f.Has(c) {
			return nil, errors.NewValueError("Frame.Drop", "no column "+c)
		}
	}
	return FromDataFrame(f.df.Drop(cols))
}

// Mutate returns a Frame where col holds values, replacing or appending it.
func (f *Frame) Mutate(col string, values []float64) (*Frame, error) {
	if len(values) != f.Nrow() {
		return nil, errors.NewDimensionError("Frame.Mutate", f.Nrow(), len(values), 0)
	}
	return FromDataFrame(f.df.Mutate(series.New(values, series.Float, col)))
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n >= f.Nrow() {
		return f
	}
	return &Frame{df: f.df.Subset(lo.Range(n))}
}
