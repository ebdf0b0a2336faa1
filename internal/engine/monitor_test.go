package engine

import (
	"testing"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestObserveHealthyExecutionHasNoSuggestions(t *testing.T) {
	m := NewPerformanceMonitor(zap.NewNop())

	state := model.ExecutionState{
		CompletedTasks: []model.CompletedTaskRecord{
			{TaskID: "t1", Duration: time.Second},
			{TaskID: "t2", Duration: 2 * time.Second},
		},
	}
	suggestions := m.Observe(state, 10*time.Second, 5*time.Minute)
	assert.Empty(t, suggestions)
}

func TestObserveFlagsLowSuccessRate(t *testing.T) {
	m := NewPerformanceMonitor(zap.NewNop())

	state := model.ExecutionState{
		CompletedTasks: []model.CompletedTaskRecord{{TaskID: "t1", Duration: time.Second}},
		FailedTasks: []model.FailedTaskRecord{
			{TaskID: "t2", Duration: time.Second},
			{TaskID: "t3", Duration: time.Second},
		},
	}
	suggestions := m.Observe(state, time.Minute, 5*time.Minute)
	assert.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "success rate")
}

func TestObserveFlagsSlowTasks(t *testing.T) {
	m := NewPerformanceMonitor(zap.NewNop())

	state := model.ExecutionState{
		CompletedTasks: []model.CompletedTaskRecord{
			{TaskID: "t1", Duration: 55 * time.Second},
			{TaskID: "t2", Duration: 58 * time.Second},
		},
	}
	suggestions := m.Observe(state, 2*time.Minute, time.Minute)
	assert.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "timeout")
}

func TestObserveEmptyState(t *testing.T) {
	m := NewPerformanceMonitor(zap.NewNop())
	assert.Nil(t, m.Observe(model.ExecutionState{}, time.Minute, time.Minute))
}
