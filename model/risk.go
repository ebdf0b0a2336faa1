// Package model - risk assessment types shared by the scorer, assessor and decision engine.
package model

// Plan-level risk levels derived from the 0-1 overall score.
const (
	RiskLevelVeryLow  = "very-low"
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelVeryHigh = "very-high"
)

// RiskFactors holds the five weighted factors of a plan assessment, each in [0,1].
type RiskFactors struct {
	BusinessImpact      float64 `json:"business_impact"`
	TechnicalComplexity float64 `json:"technical_complexity"`
	SecurityRisk        float64 `json:"security_risk"`
	OperationalRisk     float64 `json:"operational_risk"`
	ComplianceRisk      float64 `json:"compliance_risk"`
}

// RiskAssessment is the plan-level risk evaluation produced before execution.
// OverallRiskScore is in [0,1]; never conflate it with the 0-10 finding scale.
type RiskAssessment struct {
	OverallRiskScore     float64     `json:"overall_risk_score"`
	RiskLevel            string      `json:"risk_level"`
	Factors              RiskFactors `json:"factors"`
	Recommendations      []string    `json:"recommendations,omitempty"`
	MitigationStrategies []string    `json:"mitigation_strategies,omitempty"`
}

// ScoreBreakdown records the intermediate terms of a finding risk score so
// callers can explain how a total was reached.
type ScoreBreakdown struct {
	SeverityScore     float64 `json:"severity_score"`
	CriticalityScore  float64 `json:"criticality_score"`
	BlastRadius       float64 `json:"blast_radius"`
	ComplianceImpact  float64 `json:"compliance_impact"`
	ExposureFactor    float64 `json:"exposure_factor"`
	SensitivityFactor float64 `json:"sensitivity_factor"`
	AgeFactor         float64 `json:"age_factor"`
	Base              float64 `json:"base"`
	Context           float64 `json:"context"`
}

// FindingRiskScore is the result of scoring one finding against its asset.
// Total and BlastRadius are clipped to [0,10]; Total is rounded to 1 decimal.
type FindingRiskScore struct {
	Total       float64        `json:"total"`
	BlastRadius float64        `json:"blast_radius"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}
