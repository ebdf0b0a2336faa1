package risk

import (
	"fmt"

	"github.com/cloudmend/cloudmend-backend/model"
)

// DecisionConfig holds the execution-gating thresholds on the 0-1 scale.
type DecisionConfig struct {
	AutomaticThreshold     float64 `yaml:"automatic_threshold"`
	HumanApprovalThreshold float64 `yaml:"human_approval_threshold"`
	EmergencyStopThreshold float64 `yaml:"emergency_stop_threshold"`
}

// DefaultDecisionConfig returns the standard gating thresholds.
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		AutomaticThreshold:     0.3,
		HumanApprovalThreshold: 0.7,
		EmergencyStopThreshold: 0.9,
	}
}

// Decision is the outcome of gating a plan's risk assessment.
type Decision struct {
	ShouldExecute             bool   `json:"should_execute"`
	Reason                    string `json:"reason"`
	RequiresApproval          bool   `json:"requires_approval,omitempty"`
	RequiresHumanIntervention bool   `json:"requires_human_intervention,omitempty"`
	EnhancedMonitoring        bool   `json:"enhanced_monitoring,omitempty"`
}

// DecisionEngine maps a plan assessment to an execute/approve/reject decision.
type DecisionEngine struct {
	cfg DecisionConfig
}

// NewDecisionEngine creates a decision engine with the given thresholds.
func NewDecisionEngine(cfg DecisionConfig) *DecisionEngine {
	return &DecisionEngine{cfg: cfg}
}

// Decide evaluates the tiers in strict precedence. The emergency-stop tier
// can never be overridden by forceExecution.
func (d *DecisionEngine) Decide(assessment *model.RiskAssessment, forceExecution bool) Decision {
	score := assessment.OverallRiskScore

	switch {
	case score >= d.cfg.EmergencyStopThreshold:
		return Decision{
			ShouldExecute:             false,
			RequiresHumanIntervention: true,
			Reason: fmt.Sprintf("risk score %.2f exceeds emergency stop threshold %.2f",
				score, d.cfg.EmergencyStopThreshold),
		}
	case score >= d.cfg.HumanApprovalThreshold && !forceExecution:
		return Decision{
			ShouldExecute:    false,
			RequiresApproval: true,
			Reason: fmt.Sprintf("risk score %.2f requires human approval (threshold %.2f)",
				score, d.cfg.HumanApprovalThreshold),
		}
	case score >= d.cfg.AutomaticThreshold:
		return Decision{
			ShouldExecute:      true,
			EnhancedMonitoring: true,
			Reason:             fmt.Sprintf("risk score %.2f allows automatic execution with enhanced monitoring", score),
		}
	default:
		return Decision{
			ShouldExecute: true,
			Reason:        fmt.Sprintf("risk score %.2f is below all gating thresholds", score),
		}
	}
}
