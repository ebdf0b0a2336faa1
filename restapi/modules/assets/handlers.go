// Package assets implements the REST API handlers for the asset graph.
package assets

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/model"
)

// DependencyRequest is the request body for recording an asset dependency.
type DependencyRequest struct {
	FromARN string `json:"from_arn"`
	ToARN   string `json:"to_arn"`
}

// PostAsset handles POST requests for registering or updating an asset.
func PostAsset(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a model.Asset

		if err := c.BodyParser(&a); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if a.ARN == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "arn is required",
			})
		}

		key, err := store.UpsertAsset(context.Background(), a)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to save asset: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "Asset saved",
			"asset_key": key,
		})
	}
}

// PostAssetDependency handles POST requests that add a dependency edge
// between two registered assets.
func PostAssetDependency(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DependencyRequest

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if req.FromARN == "" || req.ToARN == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "from_arn and to_arn are required",
			})
		}

		if err := store.LinkAssetDependency(context.Background(), req.FromARN, req.ToARN); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to link assets: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Dependency recorded",
		})
	}
}
