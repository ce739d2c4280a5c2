package admin

import (
	"bufio"
	"context"
	"strconv"

	"github.com/YHTerrance/UniFrames/handlers"
	"github.com/YHTerrance/UniFrames/model"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/utils/middleware"
	"github.com/YHTerrance/UniFrames/utils/response"
	"github.com/YHTerrance/UniFrames/utils/sse"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SyncHandler lets admins reconcile the frame index with the bucket
type SyncHandler struct {
	frames *services.FrameService
	log    *logrus.Logger
}

// NewSyncHandler creates a new admin sync handler
func NewSyncHandler(frames *services.FrameService, log *logrus.Logger) *SyncHandler {
	return &SyncHandler{frames: frames, log: log}
}

// SyncUniversity handles POST /api/v1/admin/universities/:id/sync
func (h *SyncHandler) SyncUniversity(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid university ID")
	}

	subject, _ := middleware.GetAdminSubject(c)
	h.log.WithFields(logrus.Fields{
		"admin":         subject,
		"university_id": id,
	}).Info("admin sync requested")

	result, err := h.frames.SyncUniversity(c.UserContext(), uint(id), model.SyncTriggerAdmin)
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	return response.SuccessWithMessage(c, "Sync completed", result)
}

// SyncAll handles POST /api/v1/admin/sync
func (h *SyncHandler) SyncAll(c *fiber.Ctx) error {
	subject, _ := middleware.GetAdminSubject(c)
	h.log.WithField("admin", subject).Info("admin bulk sync requested")

	report, err := h.frames.SyncAll(c.UserContext())
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}

	return response.SuccessWithMessage(c, "Bulk sync completed", report)
}

// StreamSyncAll handles GET /api/v1/admin/sync/stream. It runs the bulk sync
// and streams one server-sent event per bucket folder.
func (h *SyncHandler) StreamSyncAll(c *fiber.Ctx) error {
	subject, _ := middleware.GetAdminSubject(c)
	h.log.WithField("admin", subject).Info("admin streamed bulk sync requested")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The fiber context is recycled once the handler returns
	ctx := context.WithoutCancel(c.UserContext())

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := sse.SendStarted(w, fiber.Map{"admin": subject}); err != nil {
			return
		}

		report, err := h.frames.SyncAllWithProgress(ctx, func(event services.SyncProgressEvent) error {
			return sse.Send(w, sse.Event{Event: event.Type, Data: event})
		})
		if err != nil {
			h.log.WithError(err).Warn("streamed bulk sync stopped")
			sse.SendError(w, err)
			return
		}
		sse.SendComplete(w, report)
	})

	return nil
}

// ListSyncRuns handles GET /api/v1/admin/sync-runs
func (h *SyncHandler) ListSyncRuns(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	var universityID uint64
	if raw := c.Query("university_id"); raw != "" {
		var err error
		if universityID, err = strconv.ParseUint(raw, 10, 32); err != nil {
			return response.BadRequest(c, "Invalid university ID")
		}
	}

	runs, err := h.frames.SyncRuns(c.UserContext(), uint(universityID), limit)
	if err != nil {
		return handlers.ServiceError(c, h.log, err)
	}
	if runs == nil {
		runs = []model.SyncRun{}
	}

	return response.Success(c, runs)
}
