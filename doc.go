// Package pml is a set of helpers for exploratory machine learning in Go.
//
// The helpers sit on top of gonum matrices and a small set of
// scikit-learn style estimators. They cover the repetitive parts of a
// modelling session: timing and logging, seeded randomness, scoring with
// shuffle-split cross-validation, hyperparameter search, caching results
// on disk, loading tables from many file formats, blending models and
// calibrating their probabilities.
//
// # Packages
//
//   - pkg/config: the process-wide run configuration (seed, debug flag,
//     default scoring, cross-validation parallelism, custom splitter).
//   - pkg/timer: debug messages and a start/stop timer table.
//   - core/random: seeded generators and estimator reseeding.
//   - sklearn/model_selection: splitters, DoCV, DoGS, sequential tuning
//     and out-of-fold prediction.
//   - sklearn/calibration: Platt and isotonic calibration.
//   - sklearn/ensemble: blend weight optimisation.
//   - persist and dataset: gob/npy caching and table loading.
//   - progress: a terminal progress bar over iter.Seq.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//
//	    "github.com/YuminosukeSato/pml/pkg/config"
//	    ms "github.com/YuminosukeSato/pml/sklearn/model_selection"
//	    "github.com/YuminosukeSato/pml/sklearn/linear_model"
//	)
//
//	func main() {
//	    config.Set(func(c *config.Config) { c.Seed = 42 })
//	    mean, sem, err := ms.DoCV(linear_model.NewLogisticRegression(), X, y,
//	        ms.Stratified(), ms.WithScoring("roc_auc"))
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Printf("%.5f (+/-%.5f)\n", mean, sem)
//	}
//
// # Errors
//
// Every package returns the typed errors of pkg/errors, which carry a
// stack trace and marshal themselves into zerolog records.
package pml
