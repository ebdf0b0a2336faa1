// Package dashboard defines the GraphQL queries for the dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"

	"github.com/cloudmend/cloudmend-backend/database"
)

// GetQueryFields returns the dashboard queries to be mounted in the root schema
func GetQueryFields(store *database.Store) graphql.Fields {
	return graphql.Fields{
		"dashboardSeverity": &graphql.Field{
			Type: SeverityDistributionType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveSeverityDistribution(store)
			},
		},
		"dashboardTopBlastRadius": &graphql.Field{
			Type: graphql.NewList(BlastRadiusFindingType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				return ResolveTopBlastRadius(store, limit)
			},
		},
		"dashboardExecutionStats": &graphql.Field{
			Type: ExecutionStatsType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveExecutionStats(store)
			},
		},
		"dashboardRecentExecutions": &graphql.Field{
			Type: graphql.NewList(ExecutionRecordType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				return ResolveRecentExecutions(store, limit)
			},
		},
	}
}
