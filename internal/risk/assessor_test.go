package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDetector struct {
	scores map[string]float64
	err    error
}

func (s *stubDetector) AssessRemediationRisk(_ context.Context, task model.RemediationTask) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.scores[task.ID], nil
}

func TestBusinessImpact(t *testing.T) {
	tests := []struct {
		name string
		task model.RemediationTask
		want float64
	}{
		{"production database", model.RemediationTask{Environment: "production", ResourceType: "database"}, 1.0},
		{"test security group", model.RemediationTask{Environment: "test", ResourceType: "security-group"}, 0.14},
		{"unknown env and type use defaults", model.RemediationTask{Environment: "qa", ResourceType: "queue"}, 0.5},
		{"staging s3 bucket", model.RemediationTask{Environment: "staging", ResourceType: "s3-bucket"}, 0.48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BusinessImpact(tt.task), 1e-9)
		})
	}
}

func TestTechnicalComplexity(t *testing.T) {
	plain := model.RemediationTask{Type: model.TaskTypeManual}
	assert.InDelta(t, 0.4, TechnicalComplexity(plain), 1e-9)

	loaded := model.RemediationTask{
		Type: model.TaskTypeBoto3,
		Parameters: map[string]interface{}{
			"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7,
		},
		DependsOn: []string{"t1", "t2", "t3", "t4", "t5"},
	}
	// 0.8 + capped 0.3 params + capped 0.4 deps, clipped to 1.
	assert.Equal(t, 1.0, TechnicalComplexity(loaded))

	unknown := model.RemediationTask{Type: "ansible"}
	assert.InDelta(t, 0.5, TechnicalComplexity(unknown), 1e-9)
}

func TestOperationalRisk(t *testing.T) {
	base := model.RemediationTask{Environment: "development", ResourceType: "s3-bucket"}
	assert.InDelta(t, 0.2, OperationalRisk(base), 1e-9)

	worst := model.RemediationTask{
		Environment:       "production",
		ResourceType:      "database",
		AffectedResources: []string{"a", "b", "c", "d"},
	}
	// 0.2 + 0.4 + 0.3 + capped 0.3, clipped to 1.
	assert.Equal(t, 1.0, OperationalRisk(worst))
}

func TestComplianceRisk(t *testing.T) {
	none := model.RemediationTask{Category: "tagging"}
	assert.InDelta(t, 0.1, ComplianceRisk(none), 1e-9)

	strict := model.RemediationTask{
		Category:             "encryption",
		ComplianceFrameworks: []string{"pci-dss", "cis"},
	}
	assert.Equal(t, 1.0, ComplianceRisk(strict))

	lenient := model.RemediationTask{ComplianceFrameworks: []string{"cis"}}
	assert.InDelta(t, 0.3, ComplianceRisk(lenient), 1e-9)
}

func TestAssessWorstTaskDominates(t *testing.T) {
	assessor := NewAssessor(&stubDetector{scores: map[string]float64{
		"benign": 0.1,
		"risky":  0.9,
	}}, zap.NewNop())

	plan := &model.RemediationPlan{
		Key: "plan-1",
		Tasks: []model.RemediationTask{
			{ID: "benign", Type: model.TaskTypeManual, Environment: "test"},
			{ID: "risky", Type: model.TaskTypeBoto3, Environment: "production", ResourceType: "database",
				Category: "encryption", ComplianceFrameworks: []string{"hipaa"}},
		},
	}

	assessment, err := assessor.Assess(context.Background(), plan)
	require.NoError(t, err)

	// Max aggregation: the risky task's factors are the plan's factors.
	assert.Equal(t, 0.9, assessment.Factors.SecurityRisk)
	assert.Equal(t, 1.0, assessment.Factors.BusinessImpact)
	assert.Equal(t, 1.0, assessment.Factors.ComplianceRisk)
	assert.GreaterOrEqual(t, assessment.OverallRiskScore, 0.0)
	assert.LessOrEqual(t, assessment.OverallRiskScore, 1.0)
	assert.Equal(t, model.RiskLevelVeryHigh, assessment.RiskLevel)
	assert.NotEmpty(t, assessment.Recommendations)
	assert.NotEmpty(t, assessment.MitigationStrategies)
}

func TestAssessDetectorFailureUsesFallback(t *testing.T) {
	assessor := NewAssessor(&stubDetector{err: errors.New("detector offline")}, zap.NewNop())

	plan := &model.RemediationPlan{Tasks: []model.RemediationTask{{ID: "t1", Type: model.TaskTypeManual}}}
	assessment, err := assessor.Assess(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, fallbackSecurityRisk, assessment.Factors.SecurityRisk)
}

func TestLevelForScoreCutoffs(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.0, model.RiskLevelVeryLow},
		{0.19, model.RiskLevelVeryLow},
		{0.2, model.RiskLevelLow},
		{0.39, model.RiskLevelLow},
		{0.4, model.RiskLevelMedium},
		{0.6, model.RiskLevelHigh},
		{0.79, model.RiskLevelHigh},
		{0.8, model.RiskLevelVeryHigh},
		{1.0, model.RiskLevelVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %v", tt.score)
	}
}

func TestLevelForScoreIsMonotonic(t *testing.T) {
	order := map[string]int{
		model.RiskLevelVeryLow:  0,
		model.RiskLevelLow:      1,
		model.RiskLevelMedium:   2,
		model.RiskLevelHigh:     3,
		model.RiskLevelVeryHigh: 4,
	}
	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		rank := order[LevelForScore(s)]
		assert.GreaterOrEqual(t, rank, prev)
		prev = rank
	}
}
