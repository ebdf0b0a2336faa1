package services

import (
	"context"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/model"
)

// HistoryAdvisor annotates an execution with aggregate outcomes of past runs.
// Purely advisory; the engine records the annotation and nothing more.
type HistoryAdvisor struct {
	Store *database.Store
}

// Name identifies the advisor in result metrics.
func (a *HistoryAdvisor) Name() string {
	return "execution-history"
}

// Advise reports the historical task success rate alongside the size of the
// plan about to run.
func (a *HistoryAdvisor) Advise(ctx context.Context, plan *model.RemediationPlan) (map[string]interface{}, error) {
	stats, err := a.Store.ExecutionStats(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"historical_task_success_rate": stats["task_success_rate"],
		"plan_task_count":              len(plan.Tasks),
	}, nil
}
