// Package threat provides the security-risk input consumed by the plan risk
// assessor. The detector's output is advisory input to the assessment, never
// a decision by itself.
package threat

import (
	"context"

	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/model"
)

// typeRisk scores how much attack surface a task type opens while running.
var typeRisk = map[string]float64{
	model.TaskTypeBoto3:          0.2,
	model.TaskTypeTerraform:      0.15,
	model.TaskTypeCloudFormation: 0.1,
	model.TaskTypeManual:         0.05,
}

// resourceRisk scores resource types whose misconfiguration during a change
// is most exploitable.
var resourceRisk = map[string]float64{
	"iam-policy":     0.2,
	"iam-role":       0.2,
	"security-group": 0.2,
	"database":       0.15,
	"s3-bucket":      0.1,
}

// Detector is a deterministic heuristic threat assessor. It replaces the
// upstream service with a static model so assessments are reproducible.
type Detector struct{}

// NewDetector returns the default heuristic detector.
func NewDetector() *Detector {
	return &Detector{}
}

// AssessRemediationRisk scores the security risk of executing a task, in [0,1].
func (d *Detector) AssessRemediationRisk(_ context.Context, task model.RemediationTask) (float64, error) {
	score := 0.3
	score += typeRisk[task.Type]
	score += resourceRisk[task.ResourceType]
	if task.Environment == "production" {
		score += 0.1
	}
	return risk.Clip1(score), nil
}
