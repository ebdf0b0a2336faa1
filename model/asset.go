// Package model - Asset defines cloud resources tracked in the asset graph.
package model

// Asset criticality levels. Note the scale differs from finding severity:
// the lowest tier is "minimal", not "info".
const (
	CriticalityCritical = "critical"
	CriticalityHigh     = "high"
	CriticalityMedium   = "medium"
	CriticalityLow      = "low"
	CriticalityMinimal  = "minimal"
)

// Asset represents a cloud resource vertex in the asset graph. Dependency
// edges live in the asset2asset edge collection; AssetGraphStats carries the
// traversal counts derived from them.
type Asset struct {
	Key                  string            `json:"_key,omitempty"`
	ObjType              string            `json:"objtype,omitempty"`
	ARN                  string            `json:"arn"`
	Type                 string            `json:"type,omitempty"`
	AccountID            string            `json:"account_id,omitempty"`
	Region               string            `json:"region,omitempty"`
	Environment          string            `json:"environment,omitempty"`
	Criticality          string            `json:"criticality,omitempty"`
	Tags                 map[string]string `json:"tags,omitempty"`
	SecurityGroups       []string          `json:"security_groups,omitempty"`
	PubliclyAccessible   bool              `json:"publicly_accessible"`
	ContainsSensitiveData bool             `json:"contains_sensitive_data"`
	MonitoringEnabled    bool              `json:"monitoring_enabled"`
	LoggingEnabled       bool              `json:"logging_enabled"`
}

// AssetGraphStats holds the dependency fan-out counts for an asset, computed
// by traversing the asset2asset edge collection in both directions.
type AssetGraphStats struct {
	DependencyCount        int `json:"dependency_count"`
	DependentCount         int `json:"dependent_count"`
	CriticalDependentCount int `json:"critical_dependent_count"`
}
