package engine

import (
	"fmt"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"go.uber.org/zap"
)

// AdaptivePerformanceMonitor samples an execution's throughput and success
// rate mid-run and suggests adjustments. Suggestions are advisory only: they
// are logged and attached to the result metrics but never fed back into the
// running task loop.
type AdaptivePerformanceMonitor struct {
	// MinSuccessRate below which executor health is flagged.
	MinSuccessRate float64
	// SlowTaskFraction of the task timeout above which the average task
	// duration is considered too close to the limit.
	SlowTaskFraction float64

	log *zap.SugaredLogger
}

// NewPerformanceMonitor creates a monitor with the default thresholds.
func NewPerformanceMonitor(logger *zap.Logger) *AdaptivePerformanceMonitor {
	return &AdaptivePerformanceMonitor{
		MinSuccessRate:   0.8,
		SlowTaskFraction: 0.8,
		log:              logger.Sugar(),
	}
}

// Observe samples the execution state and returns any optimization
// suggestions. Called every few processed tasks by the engine.
func (m *AdaptivePerformanceMonitor) Observe(state model.ExecutionState, elapsed, taskTimeout time.Duration) []string {
	attempted := len(state.CompletedTasks) + len(state.FailedTasks)
	if attempted == 0 {
		return nil
	}

	successRate := float64(len(state.CompletedTasks)) / float64(attempted)

	var total time.Duration
	for _, rec := range state.CompletedTasks {
		total += rec.Duration
	}
	for _, rec := range state.FailedTasks {
		total += rec.Duration
	}
	avgDuration := total / time.Duration(attempted)

	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(attempted) / elapsed.Minutes()
	}

	var suggestions []string
	if successRate < m.MinSuccessRate {
		suggestions = append(suggestions,
			fmt.Sprintf("success rate %.0f%% is below %.0f%%; review executor health before the next run",
				successRate*100, m.MinSuccessRate*100))
	}
	if taskTimeout > 0 && avgDuration > time.Duration(float64(taskTimeout)*m.SlowTaskFraction) {
		suggestions = append(suggestions,
			fmt.Sprintf("average task duration %s is close to the %s timeout; consider raising the per-task timeout",
				avgDuration.Round(time.Millisecond), taskTimeout))
	}

	m.log.Infow("performance sample",
		"execution_id", state.ExecutionID,
		"attempted", attempted,
		"success_rate", successRate,
		"avg_duration", avgDuration,
		"throughput_per_min", throughput,
		"suggestions", len(suggestions))

	return suggestions
}
