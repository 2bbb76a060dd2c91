// Package calibration turns raw classifier scores into probabilities with
// Platt scaling or isotonic regression, and draws reliability diagrams.
package calibration

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
	"github.com/YuminosukeSato/pml/sklearn/isotonic"
	"github.com/YuminosukeSato/pml/sklearn/linear_model"
	ms "github.com/YuminosukeSato/pml/sklearn/model_selection"
)

// Calibration methods.
const (
	Platt    = "platt"
	Isotonic = "isotonic"
)

// Calibrate maps the scores yTrain (one column per class, or a single
// score column) to probabilities learned against the labels yTrue.
//
// With yTest nil the result is out-of-fold over yTrain's rows; otherwise
// the calibrator is fitted on all of yTrain and applied to yTest. opts
// choose the folds of the out-of-fold fit.
func Calibrate(yTrain, yTrue, yTest mat.Matrix, method string, opts ...ms.SelfOption) (*mat.Dense, error) {
	n, k := yTrain.Dims()
	if r, _ := yTrue.Dims(); r != n {
		return nil, errors.NewDimensionError("Calibrate", n, r, 0)
	}
	if yTest != nil {
		if _, tk := yTest.Dims(); tk != k {
			return nil, errors.NewDimensionError("Calibrate", k, tk, 1)
		}
	}
	timer.Start("calibrating with " + method)
	defer timer.Stop("done calibrating")
	log.GetLoggerWithName("calibration").Debug("calibrate",
		log.OperationKey, log.OperationCalibrate,
		log.SamplesKey, n,
		log.TargetsKey, k,
		"method", method,
	)

	switch method {
	case Platt:
		return platt(yTrain, yTrue, yTest, opts)
	case Isotonic:
		if k > 1 {
			return isotonicPerClass(yTrain, yTrue, yTest, opts)
		}
		out, err := isotonicColumn(yTrain, yTrue, yTest, opts)
		if err != nil {
			return nil, err
		}
		r, _ := out.Dims()
		for i := 0; i < r; i++ {
			if math.IsNaN(out.At(i, 0)) {
				out.Set(i, 0, 0)
			}
		}
		return out, nil
	default:
		return nil, errors.NewValueError("Calibrate", "unknown calibration method: "+method)
	}
}

func platt(yTrain, yTrue, yTest mat.Matrix, opts []ms.SelfOption) (*mat.Dense, error) {
	clf := linear_model.NewLogisticRegression()
	if yTest == nil {
		n, k := yTrain.Dims()
		X := mat.NewDense(n, k+1, nil)
		X.Slice(0, n, 0, k).(*mat.Dense).Copy(yTrain)
		for i := 0; i < n; i++ {
			X.Set(i, k, 1)
		}
		return ms.SelfPredictProba(clf, X, yTrue, opts...)
	}
	if err := clf.Fit(yTrain, yTrue); err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(yTest)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(proba), nil
}

func isotonicColumn(xTrain, yTrue, xTest mat.Matrix, opts []ms.SelfOption) (*mat.Dense, error) {
	clf := isotonic.New(isotonic.WithOutOfBounds(isotonic.OutOfBoundsClip))
	if xTest == nil {
		return ms.SelfTransform(clf, xTrain, yTrue, opts...)
	}
	if err := clf.Fit(xTrain, yTrue); err != nil {
		return nil, err
	}
	out, err := clf.Transform(xTest)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}

// isotonicPerClass calibrates every score column one-vs-rest against
// yTrue == column index.
func isotonicPerClass(yTrain, yTrue, yTest mat.Matrix, opts []ms.SelfOption) (*mat.Dense, error) {
	n, k := yTrain.Dims()
	rows := n
	if yTest != nil {
		rows, _ = yTest.Dims()
	}
	res := mat.NewDense(rows, k, nil)
	for j := 0; j < k; j++ {
		target := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			if int(yTrue.At(i, 0)) == j {
				target.Set(i, 0, 1)
			}
		}
		var test mat.Matrix
		if yTest != nil {
			test = column(yTest, j)
		}
		out, err := isotonicColumn(column(yTrain, j), target, test, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "class %d", j)
		}
		res.SetCol(j, mat.Col(nil, 0, out))
	}
	return res, nil
}

func column(m mat.Matrix, j int) *mat.Dense {
	r, _ := m.Dims()
	return mat.NewDense(r, 1, mat.Col(nil, j, m))
}
