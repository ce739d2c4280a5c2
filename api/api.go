package api

import (
	"context"
	"errors"
	"time"

	"github.com/YHTerrance/UniFrames/handlers/generate"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *logrus.Logger
}

func NewAPIServer(listenAddress string, log *logrus.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "UniFrames API",
			BodyLimit:    generate.MaxUploadSize + 1<<20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 3 * time.Minute, // frame generation waits on Gemini
			ErrorHandler: errorHandler(log),
		}),
		listenAddress: listenAddress,
		log:           log,
	}
}

// errorHandler renders errors that escape handlers (unknown routes, body
// limits) in the same envelope as everything else.
func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, fe.Message, "REQUEST_ERROR")
		}
		log.WithError(err).WithField("path", c.Path()).Error("Unhandled request error")
		return response.InternalServerError(c, "Internal server error")
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.log.Info("Starting API Server")
	s.log.Infof("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
