// Package model - execution state, rollback points and results for remediation runs.
package model

import "time"

// Execution statuses. Transitions are forward-only:
// initializing -> executing -> {completed|partial|failed}; cancelled is
// reachable from executing only via a shutdown signal.
const (
	ExecutionStatusInitializing = "initializing"
	ExecutionStatusExecuting    = "executing"
	ExecutionStatusCompleted    = "completed"
	ExecutionStatusPartial      = "partial"
	ExecutionStatusFailed       = "failed"
	ExecutionStatusCancelled    = "cancelled"
	ExecutionStatusRejected     = "rejected"
)

// Rollback strategy types, one per task type.
const (
	RollbackTerraformDestroy = "terraform-destroy"
	RollbackStackDelete      = "stack-delete"
	RollbackReverseScript    = "reverse-script"
	RollbackManual           = "manual-rollback"
)

// RollbackStrategy describes how a task's changes can be undone.
type RollbackStrategy struct {
	Type      string `json:"type"`
	Automated bool   `json:"automated"`
}

// RollbackPoint records the pre-execution snapshot and undo strategy for one
// task attempt. Created exactly once per attempt, before execution, and never
// mutated afterwards. PreExecutionState may be nil when the snapshot service
// failed; that is logged, never fatal.
type RollbackPoint struct {
	ID                string                 `json:"id"`
	ExecutionID       string                 `json:"execution_id"`
	TaskID            string                 `json:"task_id"`
	TaskType          string                 `json:"task_type"`
	ResourceARN       string                 `json:"resource_arn,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
	PreExecutionState map[string]interface{} `json:"pre_execution_state,omitempty"`
	Strategy          RollbackStrategy       `json:"strategy"`
}

// CompletedTaskRecord is the bookkeeping entry for a task that finished
// successfully, possibly after recovery.
type CompletedTaskRecord struct {
	TaskID    string                 `json:"task_id"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Recovered bool                   `json:"recovered,omitempty"`
}

// FailedTaskRecord is the bookkeeping entry for a task that failed and could
// not be recovered.
type FailedTaskRecord struct {
	TaskID   string        `json:"task_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

// ExecutionState is the full per-execution bookkeeping owned by the engine
// for the lifetime of one run. A task lands in exactly one of CompletedTasks
// or FailedTasks; len(RollbackPoints) equals the number of task attempts.
type ExecutionState struct {
	ExecutionID    string                `json:"execution_id"`
	PlanID         string                `json:"plan_id"`
	StartTime      time.Time             `json:"start_time"`
	Status         string                `json:"status"`
	CompletedTasks []CompletedTaskRecord `json:"completed_tasks"`
	FailedTasks    []FailedTaskRecord    `json:"failed_tasks"`
	RollbackPoints []RollbackPoint       `json:"rollback_points"`
	RiskAssessment *RiskAssessment       `json:"risk_assessment,omitempty"`
}

// ExecutionMetrics summarizes a finished run.
type ExecutionMetrics struct {
	TotalTasks      int                    `json:"total_tasks"`
	TasksAttempted  int                    `json:"tasks_attempted"`
	TasksSucceeded  int                    `json:"tasks_succeeded"`
	TasksFailed     int                    `json:"tasks_failed"`
	TasksRecovered  int                    `json:"tasks_recovered"`
	SuccessRate     float64                `json:"success_rate"`
	Advisories      map[string]interface{} `json:"advisories,omitempty"`
}

// ExecutionResult is the snapshot returned to the caller when a run ends.
// It must be fully built before the execution is removed from the live
// registry since nothing else persists the in-flight state.
type ExecutionResult struct {
	ExecutionID    string                `json:"execution_id"`
	PlanID         string                `json:"plan_id"`
	Status         string                `json:"status"`
	Reason         string                `json:"reason,omitempty"`
	CompletedTasks []CompletedTaskRecord `json:"completed_tasks"`
	FailedTasks    []FailedTaskRecord    `json:"failed_tasks"`
	TotalDuration  time.Duration         `json:"total_duration"`
	RiskAssessment *RiskAssessment       `json:"risk_assessment,omitempty"`
	Metrics        ExecutionMetrics      `json:"metrics"`
}

// ExecutionRecord is the document shape persisted to the execution collection
// once a run reaches a terminal status.
type ExecutionRecord struct {
	Key            string           `json:"_key,omitempty"`
	ObjType        string           `json:"objtype,omitempty"`
	ExecutionID    string           `json:"execution_id"`
	PlanID         string           `json:"plan_id"`
	Status         string           `json:"status"`
	StartTime      time.Time        `json:"start_time"`
	FinishedAt     time.Time        `json:"finished_at"`
	TotalDuration  time.Duration    `json:"total_duration"`
	TasksSucceeded int              `json:"tasks_succeeded"`
	TasksFailed    int              `json:"tasks_failed"`
	RiskLevel      string           `json:"risk_level,omitempty"`
	RiskScore      float64          `json:"risk_score,omitempty"`
	Metrics        ExecutionMetrics `json:"metrics"`
}
