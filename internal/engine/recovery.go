package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// RecoveryContext carries what a recovery strategy needs to re-drive a failed
// task: a bounded retry budget and a closure that re-runs the task end to end
// (execute plus verify).
type RecoveryContext struct {
	TaskID     string
	MaxRetries int
	Retry      func(ctx context.Context) (*TaskResult, error)
}

// RecoveryOutcome reports whether a failed task was salvaged.
type RecoveryOutcome struct {
	Recovered bool
	Result    *TaskResult
	Strategy  string
}

// ErrorRecovery attempts to salvage a failed task before it is recorded as a
// failure.
type ErrorRecovery interface {
	AttemptRecovery(ctx context.Context, taskErr error, rc RecoveryContext) RecoveryOutcome
}

// transientMarkers identify errors worth retrying: throttling, timeouts and
// flaky connectivity.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"throttl",
	"rate exceeded",
	"too many requests",
	"connection reset",
	"temporar",
	"unavailable",
}

// RetryRecovery is the default recovery strategy: transient-looking failures
// get up to MaxRetries fresh attempts, anything else is unrecoverable.
type RetryRecovery struct {
	log *zap.SugaredLogger
}

// NewRetryRecovery creates the default recovery strategy.
func NewRetryRecovery(logger *zap.Logger) *RetryRecovery {
	return &RetryRecovery{log: logger.Sugar()}
}

// AttemptRecovery retries transient failures through rc.Retry.
func (r *RetryRecovery) AttemptRecovery(ctx context.Context, taskErr error, rc RecoveryContext) RecoveryOutcome {
	if taskErr == nil || rc.Retry == nil || !isTransient(taskErr) {
		return RecoveryOutcome{}
	}

	for i := 1; i <= rc.MaxRetries; i++ {
		if ctx.Err() != nil {
			return RecoveryOutcome{}
		}
		r.log.Infow("attempting task recovery", "task_id", rc.TaskID, "attempt", i, "cause", taskErr)
		res, err := rc.Retry(ctx)
		if err == nil {
			return RecoveryOutcome{Recovered: true, Result: res, Strategy: "retry"}
		}
		taskErr = err
	}

	r.log.Warnw("task recovery exhausted", "task_id", rc.TaskID, "error", taskErr)
	return RecoveryOutcome{}
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
