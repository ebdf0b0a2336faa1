package findings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	ingested []model.Finding
	err      error
}

func (s *fakeService) IngestFinding(_ context.Context, f model.Finding) error {
	if s.err != nil {
		return s.err
	}
	s.ingested = append(s.ingested, f)
	return nil
}

func validEvent() FindingDetectedEvent {
	return FindingDetectedEvent{
		EventType:     "finding.detected",
		EventID:       "evt-1",
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		Finding: model.Finding{
			FindingID: "f-1",
			Severity:  model.SeverityHigh,
			Resource:  model.FindingResource{ARN: "arn:aws:s3:::audit-logs", Type: "s3-bucket"},
		},
	}
}

func TestHandleFindingDetected(t *testing.T) {
	svc := &fakeService{}
	payload, err := json.Marshal(validEvent())
	require.NoError(t, err)

	require.NoError(t, HandleFindingDetected(context.Background(), payload, svc))
	require.Len(t, svc.ingested, 1)
	assert.Equal(t, "f-1", svc.ingested[0].FindingID)
}

func TestHandleFindingDetectedInvalidJSON(t *testing.T) {
	err := HandleFindingDetected(context.Background(), []byte("{not json"), &fakeService{})
	require.Error(t, err)
}

func TestHandleFindingDetectedMissingFields(t *testing.T) {
	event := validEvent()
	event.Finding.FindingID = ""
	payload, _ := json.Marshal(event)

	svc := &fakeService{}
	err := HandleFindingDetected(context.Background(), payload, svc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
	assert.Empty(t, svc.ingested)
}

func TestHandleFindingDetectedServiceError(t *testing.T) {
	payload, _ := json.Marshal(validEvent())
	err := HandleFindingDetected(context.Background(), payload, &fakeService{err: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal service error")
}
