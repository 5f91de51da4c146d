package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/storage"
	"gorm.io/gorm"
)

// PhotoHandler serves photo binaries by reference
type PhotoHandler struct {
	DB    *gorm.DB
	Store storage.PhotoStore
}

// GetPhoto handles GET /api/photos/:id
// @Summary Get a photo binary
// @Tags Photos
// @Produce octet-stream
// @Param id path int true "Photo ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /photos/{id} [get]
func (h *PhotoHandler) GetPhoto(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "Invalid photo ID")
	if err != nil {
		return handleError(c, err, "getPhoto")
	}
	if err := services.AuthorizePhotoViewer(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "getPhoto")
	}

	data, mimeType, err := services.GetPhoto(c.UserContext(), h.DB, h.Store, id)
	if err != nil {
		return handleError(c, err, "getPhoto")
	}

	// Photos are immutable once stored; private ones stay out of shared caches
	cacheScope := "public"
	if middleware.CurrentUserID(c) != 0 {
		cacheScope = "private"
	}
	c.Set(fiber.HeaderCacheControl, cacheScope+", max-age=86400, immutable")
	c.Set(fiber.HeaderContentType, mimeType)
	return c.Status(fiber.StatusOK).Send(data)
}
