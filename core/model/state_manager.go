package model

import (
	"sync"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// StateManager tracks whether an estimator has been fitted and on what
// shape. Fields are exported for gob.
type StateManager struct {
	Fitted    bool
	NFeatures int
	NSamples  int

	mu sync.RWMutex
}

// NewStateManager returns an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether SetFitted has been called since the last Reset.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the estimator as fitted on nSamples×nFeatures data.
func (s *StateManager) SetFitted(nSamples, nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
	s.NSamples = nSamples
	s.NFeatures = nFeatures
}

// Reset clears the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// Features returns the number of columns seen during fitting.
func (s *StateManager) Features() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures
}

// RequireFitted returns a NotFittedError for modelName.method when unfitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks a prediction input has the fitted column count.
func (s *StateManager) RequireFeatures(op string, got int) error {
	if want := s.Features(); want != got {
		return errors.NewDimensionError(op, want, got, 1)
	}
	return nil
}
