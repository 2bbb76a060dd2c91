package model_selection

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

type scoreBars struct {
	plotter.XYs
	plotter.YErrors
}

// PlotValueScores saves a chart of the mean score of every value in
// results, in the given order, with ±SEM error bars. Results must all
// refer to the same parameter.
func PlotValueScores(path string, results []ValueScore) error {
	if len(results) == 0 {
		return errors.NewValueError("PlotValueScores", "no results to plot")
	}
	bars := scoreBars{
		XYs:     make(plotter.XYs, len(results)),
		YErrors: make(plotter.YErrors, len(results)),
	}
	labels := make([]string, len(results))
	for i, r := range results {
		if r.Param != results[0].Param {
			return errors.NewValueError("PlotValueScores", "mixed parameters "+results[0].Param+" and "+r.Param)
		}
		sem := r.SEM
		if math.IsNaN(sem) {
			sem = 0
		}
		bars.XYs[i] = plotter.XY{X: float64(i), Y: r.Mean}
		bars.YErrors[i].Low, bars.YErrors[i].High = sem, sem
		labels[i] = fmt.Sprint(r.Value)
	}

	p := plot.New()
	p.Title.Text = "CV score by " + results[0].Param
	p.X.Label.Text = results[0].Param
	p.Y.Label.Text = "score"
	p.Add(plotter.NewGrid())
	p.NominalX(labels...)

	line, points, err := plotter.NewLinePoints(bars.XYs)
	if err != nil {
		return errors.Wrap(err, "scores")
	}
	line.Color = plotutil.Color(0)
	points.Color = plotutil.Color(0)
	errBars, err := plotter.NewYErrorBars(bars)
	if err != nil {
		return errors.Wrap(err, "error bars")
	}
	p.Add(line, points, errBars)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}
