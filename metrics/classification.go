package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

const logLossEps = 1e-15

func requireBinary(op string, y []float64) error {
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// Accuracy is the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := range t {
		if t[i] == p[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(t)), nil
}

// ClassificationError is 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC is the area under the ROC curve for 0/1 labels, computed as the
// Mann-Whitney statistic with ties counted as one half. With a single class
// present the score is undefined; 0.5 is returned and a warning raised.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	t, s, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := requireBinary("AUC", t); err != nil {
		return 0, err
	}

	idx := make([]int, len(s))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s[idx[a]] < s[idx[b]] })

	// average ranks over tied scores
	ranks := make([]float64, len(s))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && s[idx[j+1]] == s[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i, label := range t {
		if label == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// AUCMatrix is AUC over the first column of each matrix.
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	r, c := yTrue.Dims()
	rs, cs := yScore.Dims()
	if r == 0 || c == 0 || rs == 0 || cs == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	return AUC(ColumnVec(yTrue, 0), ColumnVec(yScore, 0))
}

// BinaryLogLoss is the mean negative log-likelihood of 0/1 labels under
// positive-class probabilities, clipped to [eps, 1-eps].
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	t, p, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := requireBinary("BinaryLogLoss", t); err != nil {
		return 0, err
	}
	var loss float64
	for i := range t {
		q := clip(p[i], logLossEps, 1-logLossEps)
		if t[i] == 1 {
			loss -= math.Log(q)
		} else {
			loss -= math.Log(1 - q)
		}
	}
	return loss / float64(len(t)), nil
}

// LogLoss is the multi-class log loss. Column k of proba holds the
// probability of classes[k]; rows are renormalised after clipping.
func LogLoss(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
	if yTrue == nil || yTrue.IsEmpty() || proba == nil {
		return 0, errors.NewValueError("LogLoss", "empty input")
	}
	n, k := proba.Dims()
	if n != yTrue.Len() {
		return 0, errors.NewDimensionError("LogLoss", yTrue.Len(), n, 0)
	}
	if len(classes) != k {
		return 0, errors.NewDimensionError("LogLoss", len(classes), k, 1)
	}
	col := make(map[int]int, k)
	for j, c := range classes {
		col[c] = j
	}

	var loss float64
	for i := 0; i < n; i++ {
		j, ok := col[int(yTrue.AtVec(i))]
		if !ok {
			return 0, errors.NewValueError("LogLoss", "label not present in classes")
		}
		var total float64
		for c := 0; c < k; c++ {
			total += clip(proba.At(i, c), logLossEps, 1-logLossEps)
		}
		loss -= math.Log(clip(proba.At(i, j), logLossEps, 1-logLossEps) / total)
	}
	return loss / float64(n), nil
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
