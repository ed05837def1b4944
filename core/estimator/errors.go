package estimator

import (
	"errors"
	"fmt"
)

// Groups named in a DegenerateGroupError.
const (
	GroupTreated = "treated"
	GroupControl = "control"
	GroupStratum = "stratum"
	GroupMatched = "matched"
)

// ErrEmptyGroup indicates a subgroup with no units.
var ErrEmptyGroup = errors.New("group is empty")

// DegenerateGroupError reports that a denominator an estimate depends on is
// zero, so the estimate cannot be computed.
type DegenerateGroupError struct {
	Group    string
	Estimand string
	Err      error
}

func (e *DegenerateGroupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("degenerate %s group: %s cannot be estimated", e.Group, e.Estimand)
	}
	return fmt.Sprintf("degenerate %s group: %s cannot be estimated: %v", e.Group, e.Estimand, e.Err)
}

func (e *DegenerateGroupError) Unwrap() error { return e.Err }

// DegenerateStratumWarning flags a propensity stratum that lacks treated or
// control units. Its within-stratum effect is undefined.
type DegenerateStratumWarning struct {
	Stratum int
	Treated int
	Control int
}

func (w DegenerateStratumWarning) Error() string {
	return fmt.Sprintf("stratum %d has %d treated and %d control units", w.Stratum, w.Treated, w.Control)
}
