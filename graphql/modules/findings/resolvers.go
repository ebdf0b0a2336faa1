package findings

import (
	"context"
	"time"

	"github.com/cloudmend/cloudmend-backend/database"
)

// ResolvePrioritizedFindings returns open findings ordered by risk score.
func ResolvePrioritizedFindings(store *database.Store, limit int) ([]map[string]interface{}, error) {
	list, err := store.ListFindingsByPriority(context.Background(), limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(list))
	for _, f := range list {
		rows = append(rows, map[string]interface{}{
			"finding_id":   f.FindingID,
			"source":       f.Source,
			"title":        f.Title,
			"severity":     f.Severity,
			"status":       f.Status,
			"risk_score":   f.RiskScore,
			"blast_radius": f.BlastRadius,
			"resource_arn": f.Resource.ARN,
			"detected_at":  f.DetectedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}
