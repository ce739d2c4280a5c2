package university

import (
	"errors"

	"github.com/YHTerrance/UniFrames/handlers"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/YHTerrance/UniFrames/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	frames    *services.FrameService
	logos     *services.LogoService
	validator *validation.Validator
	log       *logrus.Logger
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(frames *services.FrameService, logos *services.LogoService, log *logrus.Logger) *UniversityHandler {
	return &UniversityHandler{
		frames:    frames,
		logos:     logos,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// LogoQuery are the query parameters of GET /university/logo
type LogoQuery struct {
	UniversityName string `query:"university_name" validate:"required,notblank,max=255"`
}

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	universities, err := h.frames.Universities(c.UserContext())
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	type item struct {
		ID         uint   `json:"id"`
		Name       string `json:"name"`
		WebsiteURL string `json:"website_url,omitempty"`
	}
	items := make([]item, len(universities))
	for i, u := range universities {
		items[i] = item{ID: u.ID, Name: u.Name, WebsiteURL: u.WebsiteURL}
	}

	return response.Success(c, items)
}

// GetLogo handles GET /api/v1/university/logo
func (h *UniversityHandler) GetLogo(c *fiber.Ctx) error {
	var q LogoQuery
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, errors.New(validation.Describe(err)))
	}

	logo, err := h.logos.LogoForName(c.UserContext(), q.UniversityName)
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	return response.Success(c, logo)
}
