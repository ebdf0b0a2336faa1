package findings

import "github.com/graphql-go/graphql"

// FindingType is the GraphQL shape of a prioritized finding row.
var FindingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Finding",
	Fields: graphql.Fields{
		"finding_id":   &graphql.Field{Type: graphql.String},
		"source":       &graphql.Field{Type: graphql.String},
		"title":        &graphql.Field{Type: graphql.String},
		"severity":     &graphql.Field{Type: graphql.String},
		"status":       &graphql.Field{Type: graphql.String},
		"risk_score":   &graphql.Field{Type: graphql.Float},
		"blast_radius": &graphql.Field{Type: graphql.Float},
		"resource_arn": &graphql.Field{Type: graphql.String},
		"detected_at":  &graphql.Field{Type: graphql.String},
	},
})
