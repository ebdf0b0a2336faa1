// Package dashboard implements the resolvers for dashboard metrics.
package dashboard

import (
	"context"
	"time"

	"github.com/cloudmend/cloudmend-backend/database"
)

// ResolveSeverityDistribution fetches the current breakdown of open findings
func ResolveSeverityDistribution(store *database.Store) (interface{}, error) {
	dist, err := store.SeverityDistribution(context.Background())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"critical": dist["critical"],
		"high":     dist["high"],
		"medium":   dist["medium"],
		"low":      dist["low"],
		"info":     dist["info"],
	}, nil
}

// ResolveTopBlastRadius fetches the open findings with the widest blast radius
func ResolveTopBlastRadius(store *database.Store, limit int) (interface{}, error) {
	found, err := store.TopBlastRadius(context.Background(), limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(found))
	for _, f := range found {
		rows = append(rows, map[string]interface{}{
			"finding_id":   f.FindingID,
			"title":        f.Title,
			"severity":     f.Severity,
			"risk_score":   f.RiskScore,
			"blast_radius": f.BlastRadius,
			"resource_arn": f.Resource.ARN,
		})
	}
	return rows, nil
}

// ResolveExecutionStats fetches the aggregated execution history metrics
func ResolveExecutionStats(store *database.Store) (interface{}, error) {
	stats, err := store.ExecutionStats(context.Background())
	if err != nil {
		return nil, err
	}

	byStatus, _ := stats["by_status"].(map[string]int)
	return map[string]interface{}{
		"completed":         byStatus["completed"],
		"partial":           byStatus["partial"],
		"failed":            byStatus["failed"],
		"rejected":          byStatus["rejected"],
		"tasks_succeeded":   stats["tasks_succeeded"],
		"tasks_failed":      stats["tasks_failed"],
		"task_success_rate": stats["task_success_rate"],
	}, nil
}

// ResolveRecentExecutions fetches the most recent execution records
func ResolveRecentExecutions(store *database.Store, limit int) (interface{}, error) {
	records, err := store.ListExecutions(context.Background(), limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]interface{}{
			"execution_id":    rec.ExecutionID,
			"plan_id":         rec.PlanID,
			"status":          rec.Status,
			"risk_level":      rec.RiskLevel,
			"risk_score":      rec.RiskScore,
			"tasks_succeeded": rec.TasksSucceeded,
			"tasks_failed":    rec.TasksFailed,
			"start_time":      rec.StartTime.Format(time.RFC3339),
		})
	}
	return rows, nil
}
