package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/middleware"
)

// CatalogHandler handles HTTP requests for the exercise catalog
type CatalogHandler struct {
	catalog domain.CatalogRepository
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog domain.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List handles GET /v1/catalog with optional muscle_group and equipment
// filters.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	if middleware.GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "user not authenticated",
		})
	}

	filter := map[string]interface{}{}
	if mg := c.Query("muscle_group"); mg != "" {
		filter["muscle_group"] = mg
	}
	if eq := c.Query("equipment"); eq != "" {
		filter["equipment"] = eq
	}

	entries, err := h.catalog.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to list catalog: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entries,
	})
}

// Get handles GET /v1/catalog/:id
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	if middleware.GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "user not authenticated",
		})
	}

	entry, err := h.catalog.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrCatalogNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "catalog entry not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to retrieve catalog entry: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}
