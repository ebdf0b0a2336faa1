package risk

import (
	"testing"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/stretchr/testify/assert"
)

func assessmentWithScore(score float64) *model.RiskAssessment {
	return &model.RiskAssessment{OverallRiskScore: score, RiskLevel: LevelForScore(score)}
}

func TestDecideTiers(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionConfig())

	tests := []struct {
		name  string
		score float64
		force bool
		want  Decision
	}{
		{
			name:  "below automatic threshold executes plainly",
			score: 0.1,
			want:  Decision{ShouldExecute: true},
		},
		{
			name:  "above automatic threshold executes with enhanced monitoring",
			score: 0.5,
			want:  Decision{ShouldExecute: true, EnhancedMonitoring: true},
		},
		{
			name:  "above approval threshold is rejected pending approval",
			score: 0.75,
			want:  Decision{ShouldExecute: false, RequiresApproval: true},
		},
		{
			name:  "force flag overrides the approval tier",
			score: 0.75,
			force: true,
			want:  Decision{ShouldExecute: true, EnhancedMonitoring: true},
		},
		{
			name:  "emergency stop rejects outright",
			score: 0.92,
			want:  Decision{ShouldExecute: false, RequiresHumanIntervention: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Decide(assessmentWithScore(tt.score), tt.force)
			assert.Equal(t, tt.want.ShouldExecute, got.ShouldExecute)
			assert.Equal(t, tt.want.RequiresApproval, got.RequiresApproval)
			assert.Equal(t, tt.want.RequiresHumanIntervention, got.RequiresHumanIntervention)
			assert.Equal(t, tt.want.EnhancedMonitoring, got.EnhancedMonitoring)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

// The emergency-stop tier outranks forceExecution: a 0.95 score with force
// still never executes.
func TestDecideForceCannotOverrideEmergencyStop(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionConfig())

	got := engine.Decide(assessmentWithScore(0.95), true)
	assert.False(t, got.ShouldExecute)
	assert.True(t, got.RequiresHumanIntervention)
}

func TestDecideExactThresholds(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionConfig())

	// Thresholds are inclusive: a score exactly at a boundary lands in the
	// stricter tier.
	assert.False(t, engine.Decide(assessmentWithScore(0.9), false).ShouldExecute)
	assert.False(t, engine.Decide(assessmentWithScore(0.7), false).ShouldExecute)
	atAutomatic := engine.Decide(assessmentWithScore(0.3), false)
	assert.True(t, atAutomatic.ShouldExecute)
	assert.True(t, atAutomatic.EnhancedMonitoring)
}

func TestDecideCustomThresholds(t *testing.T) {
	engine := NewDecisionEngine(DecisionConfig{
		AutomaticThreshold:     0.1,
		HumanApprovalThreshold: 0.4,
		EmergencyStopThreshold: 0.6,
	})

	assert.True(t, engine.Decide(assessmentWithScore(0.2), false).ShouldExecute)
	assert.True(t, engine.Decide(assessmentWithScore(0.5), false).RequiresApproval)
	assert.True(t, engine.Decide(assessmentWithScore(0.65), true).RequiresHumanIntervention)
}
