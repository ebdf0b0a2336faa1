// Package findings handles Kafka event production for scored findings.
package findings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/cloudmend/cloudmend-backend/model"
)

// ScoreProducer handles sending finding scored events to Kafka
type ScoreProducer struct {
	Writer *kafka.Writer
}

// NewScoreProducer initializes a new Kafka writer for scored-finding events
func NewScoreProducer(brokers []string, topic string) *ScoreProducer {
	return &ScoreProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishFindingScored sends the event to the Kafka topic
func (p *ScoreProducer) PublishFindingScored(ctx context.Context, findingID string, score model.FindingRiskScore) error {
	event := FindingScoredEvent{
		EventType:     "finding.scored",
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		FindingID:     findingID,
		RiskScore:     score.Total,
		BlastRadius:   score.BlastRadius,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(findingID),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *ScoreProducer) Close() error {
	return p.Writer.Close()
}
