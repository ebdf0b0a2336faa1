// Package findings implements the REST API handlers for finding ingestion and scoring.
package findings

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/internal/services"
	"github.com/cloudmend/cloudmend-backend/model"
)

// PostFinding handles POST requests for ingesting a single finding. The
// finding is upserted, linked to its asset and scored in one pass.
func PostFinding(service *services.FindingServiceWrapper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f model.Finding

		if err := c.BodyParser(&f); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if f.FindingID == "" || f.Severity == "" || f.Resource.ARN == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "finding_id, severity and resource.arn are required",
			})
		}

		if f.DetectedAt.IsZero() {
			f.DetectedAt = time.Now()
		}

		if err := service.IngestFinding(context.Background(), f); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to ingest finding: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"message":    "Finding ingested",
			"finding_id": f.FindingID,
		})
	}
}

// PostRescore handles POST requests that re-score every open finding against
// the current asset graph.
func PostRescore(store *database.Store, scorer *risk.BatchScorer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		open, err := store.ListOpenFindings(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query open findings: " + err.Error(),
			})
		}

		result := scorer.Rescore(ctx, open)

		return c.JSON(fiber.Map{
			"success": true,
			"result":  result,
		})
	}
}

// GetPrioritizedFindings handles GET requests for open findings ordered by
// risk score.
func GetPrioritizedFindings(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)

		list, err := store.ListFindingsByPriority(context.Background(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query findings: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"findings": list,
		})
	}
}
