package utils

import (
	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/utils/response"
	fiber "github.com/gofiber/fiber/v2"
)

// MakeHTTPHandleFunc adapts a handler that needs the database store into a
// fiber handler. Errors the handler returns become a 500 envelope.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return response.InternalServerError(c, err.Error())
		}
		return nil
	}
}
