// Package findings defines the GraphQL queries for findings.
package findings

import (
	"github.com/graphql-go/graphql"

	"github.com/cloudmend/cloudmend-backend/database"
)

// GetQueryFields returns the finding queries to be mounted in the root schema
func GetQueryFields(store *database.Store) graphql.Fields {
	return graphql.Fields{
		"prioritizedFindings": &graphql.Field{
			Type: graphql.NewList(FindingType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				return ResolvePrioritizedFindings(store, limit)
			},
		},
	}
}
