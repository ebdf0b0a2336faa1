// Package model - RemediationPlan defines the remediation plans and tasks executed by the engine.
package model

import "time"

// Task types select the executor used for a task.
const (
	TaskTypeTerraform      = "terraform"
	TaskTypeCloudFormation = "cloudformation"
	TaskTypeBoto3          = "boto3"
	TaskTypeManual         = "manual"
)

// RemediationTask is a single ordered step of a remediation plan.
type RemediationTask struct {
	ID                   string                 `json:"id"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Parameters           map[string]interface{} `json:"parameters,omitempty"`
	ResourceType         string                 `json:"resource_type,omitempty"`
	ResourceARN          string                 `json:"resource_arn,omitempty"`
	Environment          string                 `json:"environment,omitempty"`
	Category             string                 `json:"category,omitempty"`
	DependsOn            []string               `json:"depends_on,omitempty"`
	Criticality          string                 `json:"criticality,omitempty"`
	Priority             string                 `json:"priority,omitempty"`
	ComplianceFrameworks []string               `json:"compliance_frameworks,omitempty"`
	AffectedResources    []string               `json:"affected_resources,omitempty"`
}

// RemediationPlan is an ordered list of remediation tasks generated for a
// finding. Plans are immutable once fetched by the engine.
type RemediationPlan struct {
	Key       string            `json:"_key,omitempty"`
	ObjType   string            `json:"objtype,omitempty"`
	FindingID string            `json:"finding_id,omitempty"`
	Name      string            `json:"name,omitempty"`
	Tasks     []RemediationTask `json:"tasks"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}
