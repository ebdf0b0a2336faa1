// Package engine implements the risk-gated remediation execution engine:
// decision gating, the sequential task state machine, rollback-point
// bookkeeping and emergency compensating rollback.
package engine

import (
	"errors"
	"fmt"
)

// ErrPlanNotFound is returned by a PlanStore when the requested plan does not
// exist.
var ErrPlanNotFound = errors.New("remediation plan not found")

// ErrEngineClosed is returned when a new execution is requested after
// Shutdown.
var ErrEngineClosed = errors.New("engine is shut down")

// FatalPlanError is the only error class that escapes
// ExecuteRemediationPlan: the plan could not be fetched or assessed, so the
// engine never entered the task loop. Task and rollback failures are always
// resolved internally.
type FatalPlanError struct {
	PlanID string
	Op     string // "fetch" or "assess"
	Err    error
}

func (e *FatalPlanError) Error() string {
	return fmt.Sprintf("fatal %s error for plan %s: %v", e.Op, e.PlanID, e.Err)
}

func (e *FatalPlanError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the underlying cause is a missing plan.
func (e *FatalPlanError) NotFound() bool {
	return errors.Is(e.Err, ErrPlanNotFound)
}
