package generate

import (
	"errors"
	"io"

	"github.com/YHTerrance/UniFrames/handlers"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/YHTerrance/UniFrames/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// MaxUploadSize bounds the uploaded photo
const MaxUploadSize = 10 << 20

// GenerateHandler turns uploaded photos into university frames
type GenerateHandler struct {
	generator *services.FrameGeneratorService
	validator *validation.Validator
	log       *logrus.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator *services.FrameGeneratorService, log *logrus.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// CreateFrameForm is the multipart form of POST /gemini-frames
type CreateFrameForm struct {
	UniversityName   string `form:"university_name" validate:"required,notblank,max=255"`
	UniversityMascot string `form:"university_mascot" validate:"required,notblank,max=255"`
}

// CreateFrame handles POST /api/v1/gemini-frames
func (h *GenerateHandler) CreateFrame(c *fiber.Ctx) error {
	var form CreateFrameForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid form data")
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		return response.ValidationError(c, errors.New(validation.Describe(err)))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.ValidationError(c, errors.New("image is required"))
	}
	if file.Size > MaxUploadSize {
		return response.Error(c, fiber.StatusRequestEntityTooLarge, "Image is too large", "PAYLOAD_TOO_LARGE")
	}

	f, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read image")
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return response.BadRequest(c, "Failed to read image")
	}

	result, err := h.generator.Generate(c.UserContext(), services.GenerateFrameInput{
		UniversityName:   form.UniversityName,
		UniversityMascot: form.UniversityMascot,
		Image:            image,
		ContentType:      file.Header.Get("Content-Type"),
	})
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	return response.SuccessWithMessage(c, "Profile frame created successfully with Gemini", result)
}
