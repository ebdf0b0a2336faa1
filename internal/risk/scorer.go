// Package risk implements finding-level risk scoring, plan-level risk
// assessment and the execution decision thresholds that gate the remediation
// engine.
package risk

import (
	"math"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/cloudmend/cloudmend-backend/util"
)

// severityScores maps finding severity to its 0-10 contribution.
var severityScores = map[string]float64{
	model.SeverityCritical: 10,
	model.SeverityHigh:     8,
	model.SeverityMedium:   5,
	model.SeverityLow:      2,
	model.SeverityInfo:     1,
}

// criticalityScores maps asset criticality to its 0-10 contribution.
var criticalityScores = map[string]float64{
	model.CriticalityCritical: 10,
	model.CriticalityHigh:     8,
	model.CriticalityMedium:   5,
	model.CriticalityLow:      2,
	model.CriticalityMinimal:  1,
}

// highValueServices get a fixed blast-radius bump because compromise of one
// typically cascades.
var highValueServices = map[string]bool{
	"rds":    true,
	"ec2":    true,
	"lambda": true,
	"s3":     true,
	"iam":    true,
}

// complianceWeights weight non-compliant framework mappings when computing
// compliance impact. Unlisted frameworks weigh 1.
var complianceWeights = map[string]float64{
	"pci-dss":          3,
	"hipaa":            3,
	"sox":              2.5,
	"gdpr":             2.5,
	"iso27001":         2,
	"nist":             2,
	"cis":              1.5,
	"aws-foundational": 1,
}

// Clip10 clips v to the 0-10 finding scale.
func Clip10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// Clip1 clips v to the 0-1 assessment scale.
func Clip1(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Score computes the 0-10 risk score and blast radius for a finding on an
// asset. Pure and deterministic: now is passed in so age is reproducible.
// Unknown severities and criticalities fall through to the lowest tier.
func Score(f model.Finding, a model.Asset, g model.AssetGraphStats, now time.Time) model.FindingRiskScore {
	severity, ok := severityScores[f.Severity]
	if !ok {
		severity = 1
	}
	criticality, ok := criticalityScores[a.Criticality]
	if !ok {
		criticality = 1
	}

	blast := BlastRadius(a, g)
	compliance := ComplianceImpact(f.Compliance)

	exposure := 1.0
	if a.PubliclyAccessible {
		exposure = 2.0
	}
	sensitivity := 1.0
	if a.ContainsSensitiveData {
		sensitivity = 1.5
	}
	age := math.Min(1+f.AgeDays(now)*0.02, 2.0)

	base := severity*0.4 + criticality*0.3
	context := blast*0.2 + compliance*0.1
	total := round1(Clip10((base + context) * exposure * sensitivity * age))

	return model.FindingRiskScore{
		Total:       total,
		BlastRadius: blast,
		Breakdown: model.ScoreBreakdown{
			SeverityScore:     severity,
			CriticalityScore:  criticality,
			BlastRadius:       blast,
			ComplianceImpact:  compliance,
			ExposureFactor:    exposure,
			SensitivityFactor: sensitivity,
			AgeFactor:         age,
			Base:              base,
			Context:           context,
		},
	}
}

// BlastRadius estimates how far a compromise of the asset would reach,
// from criticality, dependency fan-out, service class, exposure and data
// sensitivity. Always in [0,10].
func BlastRadius(a model.Asset, g model.AssetGraphStats) float64 {
	criticality, ok := criticalityScores[a.Criticality]
	if !ok {
		criticality = 1
	}

	radius := criticality
	radius += math.Min(float64(g.DependentCount)*0.5, 5)
	if highValueServices[util.ServiceFromARN(a.ARN)] {
		radius += 2
	}
	if a.PubliclyAccessible {
		radius += 3
	}
	if a.ContainsSensitiveData {
		radius += 2
	}
	radius += math.Min(float64(g.DependencyCount+g.DependentCount)*0.2, 3)
	radius += math.Min(float64(g.CriticalDependentCount)*0.5, 2)

	return Clip10(radius)
}

// ComplianceImpact sums framework weights over non-compliant mappings,
// clipped to [0,10].
func ComplianceImpact(mappings []model.ComplianceMapping) float64 {
	var impact float64
	for _, m := range mappings {
		if m.Status == "non-compliant" {
			w, ok := complianceWeights[m.Framework]
			if !ok {
				w = 1
			}
			impact += w
		}
	}
	return Clip10(impact)
}
