package handlers

import (
	"context"
	"errors"

	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/services/gemini"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ServiceError maps a service error to a JSON error response. Unexpected
// errors are logged and reported without their text.
func ServiceError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	var apiErr *gemini.APIError

	switch {
	case errors.Is(err, services.ErrUniversityNotFound):
		return response.NotFound(c, "University not found")
	case errors.Is(err, services.ErrLogoUnavailable):
		return response.Error(c, fiber.StatusNotFound, "No logo stored for this university", "LOGO_UNAVAILABLE")
	case errors.Is(err, services.ErrInvalidUpload):
		return response.ValidationError(c, err)
	case errors.Is(err, services.ErrDataIntegrity):
		log.WithError(err).Error("frame index integrity violation")
		return response.Conflict(c, "Frame index conflict")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		log.WithError(err).Warn("object storage unavailable")
		return response.BadGateway(c, "Object storage is unavailable")
	case errors.Is(err, gemini.ErrNoImage), errors.As(err, &apiErr):
		log.WithError(err).Warn("image generation failed")
		return response.BadGateway(c, "Failed to create frame with Gemini")
	case errors.Is(err, context.DeadlineExceeded):
		return response.Error(c, fiber.StatusGatewayTimeout, "Request timed out", "TIMEOUT")
	default:
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
		return response.InternalServerError(c, "")
	}
}
