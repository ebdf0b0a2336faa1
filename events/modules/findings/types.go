// Package findings defines types for Kafka event processing of security
// finding events.
package findings

import (
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
)

// FindingDetectedEvent represents a finding detected by a scanner and
// published to Kafka.
type FindingDetectedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	Finding model.Finding `json:"finding"`
}

// FindingScoredEvent is published after a finding has been risk scored, so
// downstream consumers see the finding with its computed priority.
type FindingScoredEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	FindingID   string  `json:"finding_id"`
	RiskScore   float64 `json:"risk_score"`
	BlastRadius float64 `json:"blast_radius"`
}
