package risk

import (
	"testing"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/stretchr/testify/assert"
)

// Worked example: critical finding on a public, sensitive, critical RDS asset
// with one non-compliant pci-dss mapping saturates the scale.
func TestScoreCriticalPublicSensitiveRDS(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	f := model.Finding{
		Severity:   model.SeverityCritical,
		DetectedAt: now,
		Compliance: []model.ComplianceMapping{
			{Framework: "pci-dss", Status: "non-compliant"},
		},
	}
	a := model.Asset{
		ARN:                   "arn:aws:rds:us-east-1:123456789012:db:payments",
		Criticality:           model.CriticalityCritical,
		PubliclyAccessible:    true,
		ContainsSensitiveData: true,
	}

	score := Score(f, a, model.AssetGraphStats{}, now)

	assert.Equal(t, 10.0, score.Total)
	assert.Equal(t, 10.0, score.BlastRadius)
	assert.Equal(t, 7.0, score.Breakdown.Base)
	assert.InDelta(t, 2.3, score.Breakdown.Context, 1e-9)
	assert.Equal(t, 2.0, score.Breakdown.ExposureFactor)
	assert.Equal(t, 1.5, score.Breakdown.SensitivityFactor)
	assert.Equal(t, 1.0, score.Breakdown.AgeFactor)
}

// Worked example: low-severity finding on a private medium asset with no
// compliance issues scores 3.3.
func TestScoreLowPrivateMedium(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	f := model.Finding{Severity: model.SeverityLow, DetectedAt: now}
	a := model.Asset{
		ARN:         "arn:aws:sqs:us-east-1:123456789012:jobs",
		Criticality: model.CriticalityMedium,
	}

	score := Score(f, a, model.AssetGraphStats{}, now)

	assert.Equal(t, 3.3, score.Total)
	assert.Equal(t, 5.0, score.BlastRadius)
	assert.InDelta(t, 2.3, score.Breakdown.Base, 1e-9)
	assert.Equal(t, 1.0, score.Breakdown.Context)
}

func TestScoreAlwaysInRange(t *testing.T) {
	now := time.Now()
	severities := []string{"critical", "high", "medium", "low", "info", "bogus", ""}
	criticalities := []string{"critical", "high", "medium", "low", "minimal", "bogus", ""}

	for _, sev := range severities {
		for _, crit := range criticalities {
			f := model.Finding{
				Severity:   sev,
				DetectedAt: now.AddDate(0, 0, -400), // old enough to max the age factor
				Compliance: []model.ComplianceMapping{
					{Framework: "pci-dss", Status: "non-compliant"},
					{Framework: "hipaa", Status: "non-compliant"},
					{Framework: "sox", Status: "non-compliant"},
					{Framework: "gdpr", Status: "non-compliant"},
					{Framework: "unknown-framework", Status: "non-compliant"},
				},
			}
			a := model.Asset{
				ARN:                   "arn:aws:iam::123456789012:role/admin",
				Criticality:           crit,
				PubliclyAccessible:    true,
				ContainsSensitiveData: true,
			}
			g := model.AssetGraphStats{
				DependencyCount:        100,
				DependentCount:         100,
				CriticalDependentCount: 50,
			}

			score := Score(f, a, g, now)
			assert.GreaterOrEqual(t, score.Total, 0.0)
			assert.LessOrEqual(t, score.Total, 10.0)
			assert.GreaterOrEqual(t, score.BlastRadius, 0.0)
			assert.LessOrEqual(t, score.BlastRadius, 10.0)
		}
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	now := time.Now()
	f := model.Finding{Severity: model.SeverityHigh, DetectedAt: now.AddDate(0, 0, -12)}
	a := model.Asset{
		ARN:                "arn:aws:ec2:us-east-1:123456789012:instance/i-1",
		Criticality:        model.CriticalityHigh,
		PubliclyAccessible: true,
	}
	g := model.AssetGraphStats{DependencyCount: 3, DependentCount: 7, CriticalDependentCount: 1}

	first := Score(f, a, g, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(f, a, g, now))
	}
}

func TestAgeFactorCapsAtTwo(t *testing.T) {
	now := time.Now()
	f := model.Finding{Severity: model.SeverityLow, DetectedAt: now.AddDate(-2, 0, 0)}
	a := model.Asset{Criticality: model.CriticalityLow}

	score := Score(f, a, model.AssetGraphStats{}, now)
	assert.Equal(t, 2.0, score.Breakdown.AgeFactor)
}

func TestBlastRadiusDependentScaling(t *testing.T) {
	a := model.Asset{Criticality: model.CriticalityLow}

	small := BlastRadius(a, model.AssetGraphStats{DependentCount: 2})
	large := BlastRadius(a, model.AssetGraphStats{DependentCount: 50})
	huge := BlastRadius(a, model.AssetGraphStats{DependentCount: 500})

	assert.Greater(t, large, small)
	// Dependent bump saturates at 5 and combined fan-out at 3, so growing the
	// count further cannot move the radius.
	assert.Equal(t, large, huge)
}

func TestComplianceImpactWeights(t *testing.T) {
	impact := ComplianceImpact([]model.ComplianceMapping{
		{Framework: "pci-dss", Status: "non-compliant"},
		{Framework: "cis", Status: "non-compliant"},
		{Framework: "gdpr", Status: "compliant"}, // compliant mappings do not count
		{Framework: "homegrown", Status: "non-compliant"},
	})
	assert.InDelta(t, 5.5, impact, 1e-9)
}
