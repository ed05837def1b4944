package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSingleClass indicates a classifier target with only one class present.
	ErrSingleClass = errors.New("target has a single class")

	// ErrNotConverged indicates the solver hit its iteration limit.
	ErrNotConverged = errors.New("solver did not converge")

	// ErrSingular indicates a system that could not be factorised.
	ErrSingular = errors.New("singular system")

	// ErrNotFitted indicates Predict was called before a successful Fit.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrDimension indicates mismatched matrix or vector sizes.
	ErrDimension = errors.New("dimension mismatch")
)

// ModelFitError reports that a propensity or outcome model could not be fit
// or produced unusable predictions. Estimation must not continue past it.
type ModelFitError struct {
	Model string
	Err   error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("fit %s model: %v", e.Model, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }

// InsufficientDataError reports a treatment arm with too few rows to fit an
// outcome model.
type InsufficientDataError struct {
	Arm  string
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s arm has %d units, need at least %d", e.Arm, e.Have, e.Need)
}
