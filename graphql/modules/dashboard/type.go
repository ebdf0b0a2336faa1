// Package dashboard defines the GraphQL types for the remediation dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"
)

// SeverityDistributionType represents the data for the pie/bar charts
var SeverityDistributionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityDistribution",
	Fields: graphql.Fields{
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"medium":   &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
		"info":     &graphql.Field{Type: graphql.Int},
	},
})

// BlastRadiusFindingType represents rows for the "Widest Blast Radius" table
var BlastRadiusFindingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BlastRadiusFinding",
	Fields: graphql.Fields{
		"finding_id":   &graphql.Field{Type: graphql.String},
		"title":        &graphql.Field{Type: graphql.String},
		"severity":     &graphql.Field{Type: graphql.String},
		"risk_score":   &graphql.Field{Type: graphql.Float},
		"blast_radius": &graphql.Field{Type: graphql.Float},
		"resource_arn": &graphql.Field{Type: graphql.String},
	},
})

// ExecutionStatsType represents the aggregated execution history metrics
var ExecutionStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ExecutionStats",
	Fields: graphql.Fields{
		"completed":         &graphql.Field{Type: graphql.Int},
		"partial":           &graphql.Field{Type: graphql.Int},
		"failed":            &graphql.Field{Type: graphql.Int},
		"rejected":          &graphql.Field{Type: graphql.Int},
		"tasks_succeeded":   &graphql.Field{Type: graphql.Int},
		"tasks_failed":      &graphql.Field{Type: graphql.Int},
		"task_success_rate": &graphql.Field{Type: graphql.Float},
	},
})

// ExecutionRecordType represents one row of the execution history table
var ExecutionRecordType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ExecutionRecord",
	Fields: graphql.Fields{
		"execution_id":    &graphql.Field{Type: graphql.String},
		"plan_id":         &graphql.Field{Type: graphql.String},
		"status":          &graphql.Field{Type: graphql.String},
		"risk_level":      &graphql.Field{Type: graphql.String},
		"risk_score":      &graphql.Field{Type: graphql.Float},
		"tasks_succeeded": &graphql.Field{Type: graphql.Int},
		"tasks_failed":    &graphql.Field{Type: graphql.Int},
		"start_time":      &graphql.Field{Type: graphql.String},
	},
})
