// Package model_selection holds the splitters, cross-validation scoring,
// hyperparameter search and out-of-fold prediction helpers.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/core/parallel"
	"github.com/YuminosukeSato/pml/core/random"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

// KFold splits rows into NSplits consecutive folds, optionally shuffled.
type KFold struct {
	Splits      int
	Shuffle     bool
	RandomState int64
}

// NewKFold creates a k-fold splitter. nSplits below 2 defaults to 5.
func NewKFold(nSplits int, shuffle bool, randomState int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{Splits: nSplits, Shuffle: shuffle, RandomState: randomState}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int { return kf.Splits }

// Split generates one fold per split; every row is tested exactly once.
func (kf *KFold) Split(X, _ mat.Matrix) ([]model.Fold, error) {
	n, _ := X.Dims()
	if err := checkSplits("KFold", kf.Splits, n); err != nil {
		return nil, err
	}
	indices := lo.Range(n)
	if kf.Shuffle {
		r := random.FromSeed(kf.RandomState)
		r.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	folds := make([]model.Fold, kf.Splits)
	size, rem := n/kf.Splits, n%kf.Splits
	start := 0
	for i := range folds {
		end := start + size
		if i < rem {
			end++
		}
		test := append([]int(nil), indices[start:end]...)
		folds[i] = model.Fold{Train: complement(n, test), Test: test}
		start = end
	}
	return folds, nil
}

// StratifiedKFold is KFold preserving the class proportions of y in every
// fold.
type StratifiedKFold struct {
	Splits      int
	Shuffle     bool
	RandomState int64
}

// NewStratifiedKFold creates a stratified k-fold splitter. nSplits below 2
// defaults to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, randomState int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{Splits: nSplits, Shuffle: shuffle, RandomState: randomState}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int { return skf.Splits }

// Split deals the rows of each class round-robin over the folds.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]model.Fold, error) {
	n, _ := X.Dims()
	if err := checkSplits("StratifiedKFold", skf.Splits, n); err != nil {
		return nil, err
	}
	groups, err := classGroups("StratifiedKFold", n, y)
	if err != nil {
		return nil, err
	}

	var r *rand.Rand
	if skf.Shuffle {
		r = random.FromSeed(skf.RandomState)
	}
	tests := make([][]int, skf.Splits)
	offset := 0
	for _, g := range groups {
		if r != nil {
			r.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		}
		for i, idx := range g {
			f := (offset + i) % skf.Splits
			tests[f] = append(tests[f], idx)
		}
		// continue where this class stopped so fold sizes stay balanced
		offset = (offset + len(g)) % skf.Splits
	}

	folds := make([]model.Fold, skf.Splits)
	for i, test := range tests {
		if len(test) == 0 {
			return nil, errors.NewValueError("StratifiedKFold", "a fold has no test samples; reduce the number of splits")
		}
		sort.Ints(test)
		folds[i] = model.Fold{Train: complement(n, test), Test: test}
	}
	return folds, nil
}

// ShuffleSplit draws Splits independent random train/test partitions.
//
// TestSize in (0, 1) is a fraction of the rows, TestSize >= 1 an absolute
// count. TrainSize follows the same rule; zero means all remaining rows.
type ShuffleSplit struct {
	Splits      int
	TestSize    float64
	TrainSize   float64
	RandomState int64
}

// NewShuffleSplit creates a shuffle splitter. testSize 0 defaults to 0.1.
func NewShuffleSplit(nSplits int, testSize float64, randomState int64) *ShuffleSplit {
	if testSize == 0 {
		testSize = 0.1
	}
	return &ShuffleSplit{Splits: nSplits, TestSize: testSize, RandomState: randomState}
}

// NSplits returns the number of partitions.
func (ss *ShuffleSplit) NSplits() int { return ss.Splits }

// Split returns Splits partitions drawn from one seeded generator.
func (ss *ShuffleSplit) Split(X, _ mat.Matrix) ([]model.Fold, error) {
	n, _ := X.Dims()
	nTest, nTrain, err := splitSizes("ShuffleSplit", n, ss.Splits, ss.TestSize, ss.TrainSize)
	if err != nil {
		return nil, err
	}
	r := random.FromSeed(ss.RandomState)
	folds := make([]model.Fold, ss.Splits)
	for i := range folds {
		perm := r.Perm(n)
		folds[i] = model.Fold{
			Test:  perm[:nTest],
			Train: perm[nTest : nTest+nTrain],
		}
	}
	return folds, nil
}

// StratifiedShuffleSplit is ShuffleSplit keeping the class proportions of y
// in both the train and test side.
type StratifiedShuffleSplit struct {
	Splits      int
	TestSize    float64
	TrainSize   float64
	RandomState int64
}

// NewStratifiedShuffleSplit creates a stratified shuffle splitter.
// testSize 0 defaults to 0.1.
func NewStratifiedShuffleSplit(nSplits int, testSize float64, randomState int64) *StratifiedShuffleSplit {
	if testSize == 0 {
		testSize = 0.1
	}
	return &StratifiedShuffleSplit{Splits: nSplits, TestSize: testSize, RandomState: randomState}
}

// NSplits returns the number of partitions.
func (sss *StratifiedShuffleSplit) NSplits() int { return sss.Splits }

// Split allocates the test rows to classes by largest remainder, keeping
// at least one training row per class.
func (sss *StratifiedShuffleSplit) Split(X, y mat.Matrix) ([]model.Fold, error) {
	n, _ := X.Dims()
	nTest, nTrain, err := splitSizes("StratifiedShuffleSplit", n, sss.Splits, sss.TestSize, sss.TrainSize)
	if err != nil {
		return nil, err
	}
	groups, err := classGroups("StratifiedShuffleSplit", n, y)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if len(g) < 2 {
			return nil, errors.NewValueError("StratifiedShuffleSplit", "the least populated class in y has only 1 member")
		}
	}
	if nTest < len(groups) {
		return nil, errors.NewValueError("StratifiedShuffleSplit", "test size is smaller than the number of classes")
	}

	// every class keeps at least one training row
	caps := lo.Map(groups, func(g []int, _ int) int { return len(g) - 1 })
	testCounts := allocate(groups, nTest, n, caps)
	caps = lo.Map(groups, func(g []int, k int) int { return len(g) - testCounts[k] })
	trainCounts := allocate(groups, nTrain, n, caps)

	r := random.FromSeed(sss.RandomState)
	folds := make([]model.Fold, sss.Splits)
	for s := range folds {
		var test, train []int
		for k, g := range groups {
			perm := r.Perm(len(g))
			for i, p := range perm {
				switch {
				case i < testCounts[k]:
					test = append(test, g[p])
				case i < testCounts[k]+trainCounts[k]:
					train = append(train, g[p])
				}
			}
		}
		r.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
		r.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
		folds[s] = model.Fold{Train: train, Test: test}
	}
	return folds, nil
}

// allocate splits total over the groups proportionally to their size by
// largest remainder without exceeding caps.
func allocate(groups [][]int, total, n int, caps []int) []int {
	counts := make([]int, len(groups))
	rems := make([]float64, len(groups))
	assigned := 0
	for k, g := range groups {
		exact := float64(total) * float64(len(g)) / float64(n)
		counts[k] = min(int(math.Floor(exact)), caps[k])
		rems[k] = exact - float64(counts[k])
		assigned += counts[k]
	}
	order := lo.Range(len(groups))
	sort.SliceStable(order, func(a, b int) bool { return rems[order[a]] > rems[order[b]] })
	for assigned < total {
		progressed := false
		for _, k := range order {
			if assigned == total {
				break
			}
			if counts[k] < caps[k] {
				counts[k]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return counts
}

func checkSplits(op string, splits, n int) error {
	if splits < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", splits)
	}
	if splits > n {
		return errors.NewValueError(op, "cannot have more splits than samples")
	}
	return nil
}

// splitSizes resolves fraction or count sizes to row counts.
func splitSizes(op string, n, splits int, testSize, trainSize float64) (int, int, error) {
	if splits < 1 {
		return 0, 0, errors.NewValidationError("n_splits", "must be positive", splits)
	}
	resolve := func(size float64, ceil bool) int {
		if size >= 1 {
			return int(size)
		}
		v := size * float64(n)
		if ceil {
			return int(math.Ceil(v))
		}
		return int(math.Floor(v))
	}
	if testSize <= 0 {
		return 0, 0, errors.NewValidationError("test_size", "must be positive", testSize)
	}
	nTest := resolve(testSize, true)
	nTrain := n - nTest
	if trainSize > 0 {
		nTrain = resolve(trainSize, false)
	}
	if nTest < 1 || nTrain < 1 || nTest+nTrain > n {
		return 0, 0, errors.NewValueError(op, "train and test sizes do not fit the number of samples")
	}
	return nTest, nTrain, nil
}

// classGroups returns the row indices of each label in sorted label order.
func classGroups(op string, n int, y mat.Matrix) ([][]int, error) {
	if y == nil {
		return nil, errors.NewValueError(op, "stratified splitting needs y")
	}
	if r, _ := y.Dims(); r != n {
		return nil, errors.NewDimensionError(op, n, r, 0)
	}
	byLabel := lo.GroupBy(lo.Range(n), func(i int) float64 { return y.At(i, 0) })
	labels := lo.Keys(byLabel)
	sort.Float64s(labels)
	return lo.Map(labels, func(l float64, _ int) []int { return byLabel[l] }), nil
}

func complement(n int, test []int) []int {
	in := make([]bool, n)
	for _, i := range test {
		in[i] = true
	}
	train := make([]int, 0, n-len(test))
	for i := 0; i < n; i++ {
		if !in[i] {
			train = append(train, i)
		}
	}
	return train
}

// takeRowsInline is the row count up to which TakeRows copies on the
// calling goroutine.
const takeRowsInline = 4096

// TakeRows copies the rows idx of m, in the order given. Large selections
// are copied in one contiguous range per CPU.
func TakeRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	parallel.ParallelizeWithThreshold(len(idx), takeRowsInline, func(start, end int) {
		for i := start; i < end; i++ {
			r := idx[i]
			for j := 0; j < c; j++ {
				out.Set(i, j, m.At(r, j))
			}
		}
	})
	return out
}

// HeadRows returns a view of the first n rows of m, or m itself when it
// already has at most n rows.
func HeadRows(m mat.Matrix, n int) mat.Matrix {
	r, c := m.Dims()
	if r <= n {
		return m
	}
	if s, ok := m.(interface {
		Slice(i, k, j, l int) mat.Matrix
	}); ok {
		return s.Slice(0, n, 0, c)
	}
	return TakeRows(m, lo.Range(n))
}
