// Package findings handles Kafka event processing for security finding events.
package findings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudmend/cloudmend-backend/model"
)

// FindingService defines the interface for finding ingestion operations.
type FindingService interface {
	IngestFinding(ctx context.Context, f model.Finding) error
}

// HandleFindingDetected processes finding detected events from Kafka.
func HandleFindingDetected(ctx context.Context, msg []byte, service FindingService) error {
	var event FindingDetectedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal FindingDetectedEvent: %w", err)
	}

	if event.Finding.FindingID == "" || event.Finding.Severity == "" || event.Finding.Resource.ARN == "" {
		return fmt.Errorf("invalid event: missing required fields")
	}

	log.Printf("Processing finding %s (%s on %s)",
		event.Finding.FindingID, event.Finding.Severity, event.Finding.Resource.ARN)

	if err := service.IngestFinding(ctx, event.Finding); err != nil {
		return fmt.Errorf("internal service error: %w", err)
	}

	log.Printf("Successfully processed finding %s", event.Finding.FindingID)
	return nil
}
