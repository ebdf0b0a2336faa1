// Package plans implements the REST API handlers for remediation plans.
package plans

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/internal/engine"
	"github.com/cloudmend/cloudmend-backend/model"
)

// PostPlan handles POST requests for creating a remediation plan.
func PostPlan(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var plan model.RemediationPlan

		if err := c.BodyParser(&plan); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if len(plan.Tasks) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "at least one task must be provided",
			})
		}
		for _, task := range plan.Tasks {
			if task.ID == "" || task.Type == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "every task needs an id and a type",
				})
			}
		}

		if plan.CreatedAt.IsZero() {
			plan.CreatedAt = time.Now()
		}

		key, err := store.SavePlan(context.Background(), &plan)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to save plan: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Plan created",
			"plan_id": key,
		})
	}
}

// GetPlan handles GET requests for a single remediation plan by id.
func GetPlan(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		planID := c.Params("id")

		plan, err := store.GetPlan(context.Background(), planID)
		if err != nil {
			if errors.Is(err, engine.ErrPlanNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query plan: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"plan":    plan,
		})
	}
}
