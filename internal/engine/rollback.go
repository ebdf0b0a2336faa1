package engine

import (
	"context"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshotter captures the current state of a cloud resource. Best-effort:
// a failure here degrades a rollback point, it never blocks execution.
type Snapshotter interface {
	CaptureState(ctx context.Context, resourceARN string) (map[string]interface{}, error)
}

// rollbackStrategies is the fixed task-type → strategy lookup. Only the
// IaC-backed types can be rolled back without a human.
var rollbackStrategies = map[string]model.RollbackStrategy{
	model.TaskTypeTerraform:      {Type: model.RollbackTerraformDestroy, Automated: true},
	model.TaskTypeCloudFormation: {Type: model.RollbackStackDelete, Automated: true},
	model.TaskTypeBoto3:          {Type: model.RollbackReverseScript, Automated: false},
	model.TaskTypeManual:         {Type: model.RollbackManual, Automated: false},
}

// RollbackManager creates pre-task rollback points and performs the
// reverse-order compensating rollback after a fatal failure.
type RollbackManager struct {
	snapshots Snapshotter
	executors map[string]TaskExecutor
	log       *zap.SugaredLogger
}

// NewRollbackManager creates a rollback manager. snapshots may be nil when no
// snapshot backend is configured; points are then created without state.
func NewRollbackManager(snapshots Snapshotter, executors map[string]TaskExecutor, logger *zap.Logger) *RollbackManager {
	return &RollbackManager{snapshots: snapshots, executors: executors, log: logger.Sugar()}
}

// StrategyForTaskType returns the fixed rollback strategy for a task type.
// Unknown types fall back to manual rollback.
func StrategyForTaskType(taskType string) model.RollbackStrategy {
	if s, ok := rollbackStrategies[taskType]; ok {
		return s
	}
	return model.RollbackStrategy{Type: model.RollbackManual, Automated: false}
}

// CreateRollbackPoint captures the pre-execution resource state and undo
// strategy for a task attempt. Snapshot failures are logged and leave the
// state nil; the point is always created.
func (m *RollbackManager) CreateRollbackPoint(ctx context.Context, executionID string, task model.RemediationTask) model.RollbackPoint {
	point := model.RollbackPoint{
		ID:          uuid.NewString(),
		ExecutionID: executionID,
		TaskID:      task.ID,
		TaskType:    task.Type,
		ResourceARN: task.ResourceARN,
		Timestamp:   time.Now(),
		Strategy:    StrategyForTaskType(task.Type),
	}

	if m.snapshots != nil && task.ResourceARN != "" {
		state, err := m.snapshots.CaptureState(ctx, task.ResourceARN)
		if err != nil {
			m.log.Warnw("pre-execution snapshot failed",
				"task_id", task.ID, "resource", task.ResourceARN, "error", err)
		} else {
			point.PreExecutionState = state
		}
	}

	// Carry the parameters a later rollback needs even when the snapshot
	// itself failed or was skipped.
	for _, key := range []string{"working_dir", "stack_name", "rollback_action"} {
		if v := stringParam(task.Parameters, key); v != "" {
			if point.PreExecutionState == nil {
				point.PreExecutionState = make(map[string]interface{})
			}
			if _, exists := point.PreExecutionState[key]; !exists {
				point.PreExecutionState[key] = v
			}
		}
	}

	return point
}

// PerformEmergencyRollback undoes the given rollback points in strict reverse
// order (most recent task first). Each point is independent: a failed
// rollback is logged and the remaining points still run. Returns the number
// of points rolled back successfully.
func (m *RollbackManager) PerformEmergencyRollback(ctx context.Context, executionID string, points []model.RollbackPoint) int {
	if len(points) == 0 {
		m.log.Infow("emergency rollback requested with no rollback points", "execution_id", executionID)
		return 0
	}

	m.log.Warnw("performing emergency rollback",
		"execution_id", executionID, "points", len(points))

	rolledBack := 0
	for i := len(points) - 1; i >= 0; i-- {
		point := points[i]
		executor, ok := m.executors[point.TaskType]
		if !ok {
			m.log.Errorw("no executor for rollback point",
				"point_id", point.ID, "task_type", point.TaskType)
			continue
		}
		if err := executor.Rollback(ctx, point); err != nil {
			m.log.Errorw("rollback point failed",
				"point_id", point.ID, "task_id", point.TaskID, "strategy", point.Strategy.Type, "error", err)
			continue
		}
		rolledBack++
		m.log.Infow("rollback point undone",
			"point_id", point.ID, "task_id", point.TaskID, "strategy", point.Strategy.Type)
	}

	m.log.Warnw("emergency rollback finished",
		"execution_id", executionID, "rolled_back", rolledBack, "total", len(points))
	return rolledBack
}
