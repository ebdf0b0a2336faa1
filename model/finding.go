// Package model - Finding defines security/compliance findings as stored in the database.
package model

import "time"

// Severity levels reported by finding sources.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// ComplianceMapping ties a finding to a compliance framework control state.
type ComplianceMapping struct {
	Framework string `json:"framework"`
	Status    string `json:"status"` // "compliant" or "non-compliant"
}

// FindingResource identifies the cloud resource a finding refers to.
type FindingResource struct {
	ARN       string `json:"arn"`
	Type      string `json:"type"`
	Region    string `json:"region,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// Finding represents a security or compliance violation detected on a cloud
// resource. RiskScore and BlastRadius are on the 0-10 finding scale; they are
// never on the same scale as a plan-level risk assessment (0-1).
type Finding struct {
	Key         string              `json:"_key,omitempty"`
	ObjType     string              `json:"objtype,omitempty"`
	FindingID   string              `json:"finding_id"`
	Source      string              `json:"source,omitempty"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Severity    string              `json:"severity"`
	Resource    FindingResource     `json:"resource"`
	RiskScore   float64             `json:"risk_score"`
	BlastRadius float64             `json:"blast_radius"`
	Compliance  []ComplianceMapping `json:"compliance,omitempty"`
	DetectedAt  time.Time           `json:"detected_at"`
	ScoredAt    time.Time           `json:"scored_at,omitempty"`
	Status      string              `json:"status,omitempty"` // open, remediating, resolved
}

// AgeDays returns the finding age in days relative to now.
func (f Finding) AgeDays(now time.Time) float64 {
	if f.DetectedAt.IsZero() || now.Before(f.DetectedAt) {
		return 0
	}
	return now.Sub(f.DetectedAt).Hours() / 24
}
