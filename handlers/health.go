package handlers

import (
	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HandlePing answers without touching any dependency
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong"})
}

// HandleCheckHealth reports whether the database answers
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}
