// Package gqlschema assembles the root GraphQL schema from the module queries.
package gqlschema

import (
	"github.com/graphql-go/graphql"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/graphql/modules/dashboard"
	"github.com/cloudmend/cloudmend-backend/graphql/modules/findings"
)

var store *database.Store

// InitStore hands the shared store to the module resolvers.
func InitStore(s *database.Store) {
	store = s
}

// CreateSchema builds the root query from every module's query fields.
func CreateSchema() (graphql.Schema, error) {
	fields := graphql.Fields{}
	for name, field := range findings.GetQueryFields(store) {
		fields[name] = field
	}
	for name, field := range dashboard.GetQueryFields(store) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "RootQuery",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
