package model

import "gonum.org/v1/gonum/mat"

// Fold is one train/test partition of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter generates cross-validation folds.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	NSplits() int
}
