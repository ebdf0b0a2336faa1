// Package services provides internal service implementations shared by the
// REST API and the Kafka event worker.
package services

import (
	"context"
	"log"
	"time"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/events/modules/findings"
	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/model"
)

// FindingServiceWrapper implements findings.FindingService. Kafka-driven
// ingestion runs the same upsert and scoring pipeline as the REST API.
type FindingServiceWrapper struct {
	Store    *database.Store
	Producer *findings.ScoreProducer // optional; nil disables scored events
}

// IngestFinding stores the finding, scores it against its asset and
// persists the score. Scoring failures leave the finding stored but
// unscored; they are logged, not returned, so a missing asset never drops a
// finding.
func (w *FindingServiceWrapper) IngestFinding(ctx context.Context, f model.Finding) error {
	log.Printf("Worker: Processing finding ingestion for %s", f.FindingID)

	key, err := w.Store.UpsertFinding(ctx, f)
	if err != nil {
		return err
	}
	f.Key = key

	score, err := w.ScoreFinding(ctx, f)
	if err != nil {
		log.Printf("Worker: Scoring failed for %s: %v", f.FindingID, err)
		return nil
	}

	if w.Producer != nil {
		if err := w.Producer.PublishFindingScored(ctx, f.FindingID, score); err != nil {
			log.Printf("Worker: Failed to publish scored event for %s: %v", f.FindingID, err)
		}
	}

	return nil
}

// ScoreFinding recomputes and persists a single finding's risk score.
func (w *FindingServiceWrapper) ScoreFinding(ctx context.Context, f model.Finding) (model.FindingRiskScore, error) {
	asset, graph, err := w.Store.AssetForFinding(ctx, f)
	if err != nil {
		return model.FindingRiskScore{}, err
	}

	now := time.Now()
	score := risk.Score(f, asset, graph, now)
	if err := w.Store.WriteScore(ctx, f.Key, score, now); err != nil {
		return model.FindingRiskScore{}, err
	}
	return score, nil
}
