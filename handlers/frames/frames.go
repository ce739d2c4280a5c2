package frames

import (
	"errors"
	"fmt"

	"github.com/YHTerrance/UniFrames/handlers"
	"github.com/YHTerrance/UniFrames/model"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/YHTerrance/UniFrames/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// FramesHandler serves the frame index
type FramesHandler struct {
	frames    *services.FrameService
	validator *validation.Validator
	log       *logrus.Logger
}

// NewFramesHandler creates a new frames handler
func NewFramesHandler(frames *services.FrameService, log *logrus.Logger) *FramesHandler {
	return &FramesHandler{
		frames:    frames,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// FramesByNameQuery are the query parameters of GET /frames/by-name
type FramesByNameQuery struct {
	Name        string `query:"name" validate:"required,notblank,max=255"`
	SyncIfEmpty bool   `query:"sync_if_empty"`
}

// Frame is a frame as returned to clients
type Frame struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
}

// FramesByNameResponse is the body of GET /frames/by-name
type FramesByNameResponse struct {
	UniversityID   uint    `json:"university_id"`
	UniversityName string  `json:"university_name"`
	HasFrames      bool    `json:"has_frames"`
	Count          int     `json:"count"`
	Frames         []Frame `json:"frames"`
	Message        string  `json:"message,omitempty"`
}

func toFrames(in []model.Frame) []Frame {
	out := make([]Frame, len(in))
	for i, f := range in {
		out[i] = Frame{Filename: f.Filename, URL: f.URL, SortOrder: f.SortOrder}
	}
	return out
}

// GetFramesByName handles GET /api/v1/frames/by-name
func (h *FramesHandler) GetFramesByName(c *fiber.Ctx) error {
	q := FramesByNameQuery{SyncIfEmpty: true}
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, errors.New(validation.Describe(err)))
	}

	result, err := h.frames.FramesByName(c.UserContext(), q.Name, q.SyncIfEmpty)
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	body := FramesByNameResponse{
		UniversityID:   result.UniversityID,
		UniversityName: q.Name,
		HasFrames:      result.HasFrames,
		Count:          len(result.Frames),
		Frames:         toFrames(result.Frames),
	}
	if !result.HasFrames {
		body.Message = fmt.Sprintf("No frames found for '%s'.", q.Name)
	}

	return response.Success(c, body)
}

// ListUniversitiesWithFrames handles GET /api/v1/frames/universities
func (h *FramesHandler) ListUniversitiesWithFrames(c *fiber.Ctx) error {
	universities, err := h.frames.UniversitiesWithFrames(c.UserContext())
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}
	if universities == nil {
		universities = []services.UniversitySummary{}
	}
	return response.Success(c, universities)
}

// ListBucketFolders handles GET /api/v1/frames/universities/from-r2
func (h *FramesHandler) ListBucketFolders(c *fiber.Ctx) error {
	folders, err := h.frames.BucketFolders(c.UserContext())
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}
	return response.Success(c, fiber.Map{
		"count":        len(folders),
		"universities": folders,
	})
}
