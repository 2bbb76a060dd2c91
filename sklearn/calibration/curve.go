package calibration

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// Curve is a reliability curve: for every non-empty bin, the observed
// fraction of positives against the mean predicted probability.
type Curve struct {
	ProbTrue []float64
	ProbPred []float64
}

// CalibrationCurve bins yProb into nBins equal-width bins over [0, 1],
// right-closed except for the first. Empty bins are dropped.
func CalibrationCurve(yTrue, yProb []float64, nBins int) (Curve, error) {
	if len(yTrue) != len(yProb) {
		return Curve{}, errors.NewDimensionError("CalibrationCurve", len(yTrue), len(yProb), 0)
	}
	if len(yTrue) == 0 {
		return Curve{}, errors.ErrEmptyData
	}
	if nBins < 1 {
		return Curve{}, errors.NewValidationError("n_bins", "must be positive", nBins)
	}
	if floats.Min(yProb) < 0 || floats.Max(yProb) > 1 {
		return Curve{}, errors.NewValueError("CalibrationCurve", "probabilities must lie in [0, 1]")
	}
	for _, v := range yTrue {
		if v != 0 && v != 1 {
			return Curve{}, errors.NewValueError("CalibrationCurve", fmt.Sprintf("labels must be 0 or 1, got %v", v))
		}
	}

	edges := floats.Span(make([]float64, nBins+1), 0, 1)
	sumTrue := make([]float64, nBins)
	sumPred := make([]float64, nBins)
	count := make([]float64, nBins)
	for i, p := range yProb {
		// a value on an interior edge belongs to the lower bin
		b := sort.SearchFloat64s(edges[1:nBins], p)
		sumTrue[b] += yTrue[i]
		sumPred[b] += p
		count[b]++
	}

	var c Curve
	for b := range count {
		if count[b] == 0 {
			continue
		}
		c.ProbTrue = append(c.ProbTrue, sumTrue[b]/count[b])
		c.ProbPred = append(c.ProbPred, sumPred[b]/count[b])
	}
	return c, nil
}

// PlotReliability draws the named curves against the perfectly calibrated
// diagonal and saves the figure to path. The format follows the extension.
func PlotReliability(path string, names []string, curves []Curve) error {
	if len(names) != len(curves) {
		return errors.NewDimensionError("PlotReliability", len(curves), len(names), 0)
	}
	p := plot.New()
	p.Title.Text = "Reliability diagram"
	p.X.Label.Text = "Mean predicted probability"
	p.Y.Label.Text = "Fraction of positives"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "diagonal")
	}
	diag.LineStyle.Color = color.Gray{Y: 128}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)
	p.Legend.Add("perfectly calibrated", diag)

	for i, c := range curves {
		xys := make(plotter.XYs, len(c.ProbPred))
		for j := range xys {
			xys[j].X, xys[j].Y = c.ProbPred[j], c.ProbTrue[j]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return errors.Wrapf(err, "curve %s", names[i])
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		p.Add(line, points)
		p.Legend.Add(names[i], line, points)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}
