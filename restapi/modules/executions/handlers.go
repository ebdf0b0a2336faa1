// Package executions implements the REST API handlers for remediation plan execution.
package executions

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/internal/engine"
)

// ExecutePlanRequest is the request body for starting a plan execution.
type ExecutePlanRequest struct {
	PlanID         string `json:"plan_id"`
	ForceExecution bool   `json:"force_execution,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// PostExecutePlan handles POST requests to run a remediation plan through the
// risk gate and task loop. A rejected plan is a 200 with status "rejected",
// not an error.
func PostExecutePlan(eng *engine.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ExecutePlanRequest

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if req.PlanID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "plan_id is required",
			})
		}

		opts := engine.Options{ForceExecution: req.ForceExecution}
		if req.TimeoutSeconds > 0 {
			opts.TaskTimeout = time.Duration(req.TimeoutSeconds) * time.Second
		}

		result, err := eng.ExecuteRemediationPlan(context.Background(), req.PlanID, opts)
		if err != nil {
			if errors.Is(err, engine.ErrEngineClosed) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			var fatal *engine.FatalPlanError
			if errors.As(err, &fatal) && fatal.NotFound() {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"result":  result,
		})
	}
}

// GetExecutionStatus handles GET requests for the live state of a running
// execution. Finished executions are only visible through history.
func GetExecutionStatus(eng *engine.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		executionID := c.Params("id")

		state, ok := eng.GetExecutionStatus(executionID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "no running execution with id " + executionID,
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"state":   state,
		})
	}
}

// GetExecutionHistory handles GET requests for finished execution records.
func GetExecutionHistory(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)

		records, err := store.ListExecutions(context.Background(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query executions: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"executions": records,
		})
	}
}
