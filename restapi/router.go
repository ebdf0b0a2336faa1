// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/internal/engine"
	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/internal/services"
	"github.com/cloudmend/cloudmend-backend/restapi/modules/assets"
	"github.com/cloudmend/cloudmend-backend/restapi/modules/executions"
	"github.com/cloudmend/cloudmend-backend/restapi/modules/findings"
	"github.com/cloudmend/cloudmend-backend/restapi/modules/plans"
)

// Deps bundles the shared services the route handlers close over.
type Deps struct {
	Store    *database.Store
	Engine   *engine.Engine
	Service  *services.FindingServiceWrapper
	Rescorer *risk.BatchScorer
}

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
// CORS is handled globally in internal/api/fiber.go.
func SetupRoutes(app *fiber.App, deps Deps, schema graphql.Schema) {

	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Finding Routes
	api.Post("/findings", findings.PostFinding(deps.Service))
	api.Get("/findings/prioritized", findings.GetPrioritizedFindings(deps.Store))
	api.Post("/findings/rescore", findings.PostRescore(deps.Store, deps.Rescorer))

	// Asset Graph Routes
	api.Post("/assets", assets.PostAsset(deps.Store))
	api.Post("/assets/dependencies", assets.PostAssetDependency(deps.Store))

	// Plan Routes
	api.Post("/plans", plans.PostPlan(deps.Store))
	api.Get("/plans/:id", plans.GetPlan(deps.Store))

	// Execution Routes
	api.Post("/executions", executions.PostExecutePlan(deps.Engine))
	api.Get("/executions", executions.GetExecutionHistory(deps.Store))
	api.Get("/executions/:id", executions.GetExecutionStatus(deps.Engine))
}
