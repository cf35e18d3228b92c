package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/middleware"
	"github.com/fitstack/liftsync/internal/service"
)

// DayHandler handles HTTP requests for workout day reads
type DayHandler struct {
	dayService *service.DayService
}

// NewDayHandler creates a new day handler
func NewDayHandler(dayService *service.DayService) *DayHandler {
	return &DayHandler{dayService: dayService}
}

// GetDay handles GET /v1/days/:date. With ?ensure=true a missing day is
// created empty instead of returning 404.
func (h *DayHandler) GetDay(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "user not authenticated",
		})
	}

	date := c.Params("date")
	ensure := c.Query("ensure") == "true"

	view, err := h.dayService.GetDay(c.Context(), userID, date, ensure)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   vErr.Error(),
			})
		}
		if errors.Is(err, domain.ErrDayNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "no workout recorded for " + date,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to retrieve day: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}
