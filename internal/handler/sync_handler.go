package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/middleware"
	"github.com/fitstack/liftsync/internal/service"
)

// SyncHandler handles HTTP requests for the batch sync protocol
type SyncHandler struct {
	applyService *service.ApplyService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(applyService *service.ApplyService) *SyncHandler {
	return &SyncHandler{applyService: applyService}
}

// Save handles POST /v1/sync/save. The response body is the bare batch
// response rather than the usual success envelope: clients cache and replay
// it byte for byte through the idempotency layer.
func (h *SyncHandler) Save(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "user not authenticated",
		})
	}

	var batch domain.Batch
	if err := c.BodyParser(&batch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if batch.Version != domain.BatchVersion {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported batch version: " + batch.Version,
		})
	}
	if key := c.Get("X-Idempotency-Key"); key != "" {
		batch.IdempotencyKey = key
	}

	resp, err := h.applyService.ApplyBatch(c.Context(), userID, &batch)
	if err != nil {
		if service.IsRejection(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to apply batch: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
