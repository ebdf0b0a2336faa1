package risk

import (
	"context"
	"math"

	"github.com/cloudmend/cloudmend-backend/model"
	"go.uber.org/zap"
)

// ThreatDetector supplies the security-risk factor for a task. Its score is
// treated as authoritative input and clipped to [0,1].
type ThreatDetector interface {
	AssessRemediationRisk(ctx context.Context, task model.RemediationTask) (float64, error)
}

// Factor weights for the overall 0-1 plan score.
const (
	weightBusinessImpact      = 0.3
	weightTechnicalComplexity = 0.2
	weightSecurityRisk        = 0.25
	weightOperationalRisk     = 0.15
	weightComplianceRisk      = 0.1
)

// fallbackSecurityRisk is used when the threat detector errors out; the
// assessment proceeds with a middle-of-the-road value rather than failing
// the whole plan.
const fallbackSecurityRisk = 0.5

var environmentWeights = map[string]float64{
	"production":  0.9,
	"staging":     0.6,
	"development": 0.3,
	"test":        0.2,
}

var resourceTypeMultipliers = map[string]float64{
	"database":       1.2,
	"api-gateway":    1.1,
	"load-balancer":  1.1,
	"s3-bucket":      0.8,
	"security-group": 0.7,
}

var taskTypeComplexity = map[string]float64{
	model.TaskTypeTerraform:      0.7,
	model.TaskTypeCloudFormation: 0.6,
	model.TaskTypeBoto3:          0.8,
	model.TaskTypeManual:         0.4,
}

// criticalServiceTypes are the resource types whose disruption hurts
// operations the most.
var criticalServiceTypes = map[string]bool{
	"database":      true,
	"api-gateway":   true,
	"load-balancer": true,
}

var sensitiveCategories = map[string]bool{
	"encryption":     true,
	"logging":        true,
	"access-control": true,
	"data-retention": true,
}

var strictFrameworks = map[string]bool{
	"pci-dss": true,
	"hipaa":   true,
	"sox":     true,
}

// Assessor aggregates five weighted risk factors across a plan's tasks into
// one 0-1 score. Each factor is taken as the maximum over tasks: the worst
// case dominates, not the average.
type Assessor struct {
	threats ThreatDetector
	log     *zap.SugaredLogger
}

// NewAssessor creates a plan risk assessor backed by the given threat detector.
func NewAssessor(threats ThreatDetector, logger *zap.Logger) *Assessor {
	return &Assessor{threats: threats, log: logger.Sugar()}
}

// Assess evaluates a plan's tasks and returns the aggregated assessment.
func (a *Assessor) Assess(ctx context.Context, plan *model.RemediationPlan) (*model.RiskAssessment, error) {
	var factors model.RiskFactors

	for _, task := range plan.Tasks {
		factors.BusinessImpact = math.Max(factors.BusinessImpact, BusinessImpact(task))
		factors.TechnicalComplexity = math.Max(factors.TechnicalComplexity, TechnicalComplexity(task))
		factors.OperationalRisk = math.Max(factors.OperationalRisk, OperationalRisk(task))
		factors.ComplianceRisk = math.Max(factors.ComplianceRisk, ComplianceRisk(task))

		security, err := a.threats.AssessRemediationRisk(ctx, task)
		if err != nil {
			a.log.Warnw("threat assessment failed, using fallback",
				"task_id", task.ID, "error", err)
			security = fallbackSecurityRisk
		}
		factors.SecurityRisk = math.Max(factors.SecurityRisk, Clip1(security))
	}

	overall := factors.BusinessImpact*weightBusinessImpact +
		factors.TechnicalComplexity*weightTechnicalComplexity +
		factors.SecurityRisk*weightSecurityRisk +
		factors.OperationalRisk*weightOperationalRisk +
		factors.ComplianceRisk*weightComplianceRisk

	assessment := &model.RiskAssessment{
		OverallRiskScore: overall,
		RiskLevel:        LevelForScore(overall),
		Factors:          factors,
	}
	assessment.Recommendations, assessment.MitigationStrategies = adviseOnFactors(factors, overall)

	return assessment, nil
}

// LevelForScore maps a 0-1 score to its risk level. Monotonic step function
// with cutoffs at 0.2/0.4/0.6/0.8.
func LevelForScore(score float64) string {
	switch {
	case score >= 0.8:
		return model.RiskLevelVeryHigh
	case score >= 0.6:
		return model.RiskLevelHigh
	case score >= 0.4:
		return model.RiskLevelMedium
	case score >= 0.2:
		return model.RiskLevelLow
	default:
		return model.RiskLevelVeryLow
	}
}

// BusinessImpact scores how much a task's environment and resource type
// expose the business to disruption.
func BusinessImpact(task model.RemediationTask) float64 {
	env, ok := environmentWeights[task.Environment]
	if !ok {
		env = 0.5
	}
	mult, ok := resourceTypeMultipliers[task.ResourceType]
	if !ok {
		mult = 1.0
	}
	return Clip1(env * mult)
}

// TechnicalComplexity scores how intricate a task is from its type, parameter
// count and dependency count.
func TechnicalComplexity(task model.RemediationTask) float64 {
	base, ok := taskTypeComplexity[task.Type]
	if !ok {
		base = 0.5
	}
	complexity := math.Max(0.3, base)
	complexity += math.Min(float64(len(task.Parameters))*0.05, 0.3)
	complexity += math.Min(float64(len(task.DependsOn))*0.1, 0.4)
	return Clip1(complexity)
}

// OperationalRisk scores the chance of a task disrupting running workloads.
func OperationalRisk(task model.RemediationTask) float64 {
	risk := 0.2
	if task.Environment == "production" {
		risk += 0.4
	}
	if criticalServiceTypes[task.ResourceType] {
		risk += 0.3
	}
	risk += math.Min(float64(len(task.AffectedResources))*0.1, 0.3)
	return Clip1(risk)
}

// ComplianceRisk scores the regulatory exposure of a task from its category
// and the frameworks it touches.
func ComplianceRisk(task model.RemediationTask) float64 {
	risk := 0.1
	if sensitiveCategories[task.Category] {
		risk += 0.5
	}

	strict := false
	for _, fw := range task.ComplianceFrameworks {
		if strictFrameworks[fw] {
			strict = true
			break
		}
	}
	switch {
	case strict:
		risk += 0.4
	case len(task.ComplianceFrameworks) > 0:
		risk += 0.2
	}
	return Clip1(risk)
}

// adviseOnFactors produces the threshold-triggered recommendations and
// mitigation strategies attached to an assessment.
func adviseOnFactors(f model.RiskFactors, overall float64) (recommendations, mitigations []string) {
	if f.BusinessImpact > 0.7 {
		recommendations = append(recommendations, "Execute during a maintenance window to limit business disruption")
		mitigations = append(mitigations, "Schedule execution in off-peak hours")
	}
	if f.TechnicalComplexity > 0.6 {
		recommendations = append(recommendations, "Review the generated change set manually before execution")
		mitigations = append(mitigations, "Run a dry-run plan and diff the expected resource changes")
	}
	if f.SecurityRisk > 0.7 {
		recommendations = append(recommendations, "Request security-team review before executing")
		mitigations = append(mitigations, "Restrict executor credentials to the minimum required scope")
	}
	if f.OperationalRisk > 0.6 {
		recommendations = append(recommendations, "Enable enhanced monitoring for affected resources during rollout")
		mitigations = append(mitigations, "Prepare a verified rollback path before the first task runs")
	}
	if f.ComplianceRisk > 0.5 {
		recommendations = append(recommendations, "Notify the compliance owner of the affected frameworks")
		mitigations = append(mitigations, "Capture before/after evidence for the audit trail")
	}
	if overall >= 0.8 {
		recommendations = append(recommendations, "Overall risk is very high; require human approval regardless of thresholds")
	}
	return recommendations, mitigations
}
