package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/storage"
	"github.com/localnerve/myway-api/internal/types"
	"github.com/localnerve/myway-api/internal/utils"
	"gorm.io/gorm"
)

const msgInvalidTripID = "Invalid trip ID"

// TripHandler handles trip routes
type TripHandler struct {
	DB    *gorm.DB
	Store storage.PhotoStore
}

// CreateTrip handles POST /api/trips
// @Summary Create a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param body body services.TripInput true "Trip"
// @Success 201 {object} models.Trip
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /trips [post]
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	var input services.TripInput
	if err := parseBody(c, &input, "Les champs obligatoires sont manquants"); err != nil {
		return handleError(c, err, "createTrip")
	}
	owner, err := requireSelf(c, input.UserID.Uint64())
	if err != nil {
		return handleError(c, err, "createTrip")
	}
	input.UserID = types.FlexUint64(owner)

	trip, err := services.CreateTrip(h.DB, input)
	if err != nil {
		return handleError(c, err, "createTrip")
	}
	return utils.SuccessResponse(c, trip, fiber.StatusCreated)
}

// ListUserTrips handles GET /api/trips/user/:userId
// @Summary List a user's trips
// @Description The owner sees every trip, other users only public ones
// @Tags Trips
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {array} models.Trip
// @Security BearerAuth
// @Router /trips/user/{userId} [get]
func (h *TripHandler) ListUserTrips(c *fiber.Ctx) error {
	ownerID, err := pathID(c, "userId", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "listUserTrips")
	}
	trips, err := services.ListUserTrips(h.DB, ownerID, middleware.CurrentUserID(c))
	if err != nil {
		return handleError(c, err, "listUserTrips")
	}
	return utils.SuccessResponse(c, trips, fiber.StatusOK)
}

// GetTrip handles GET /api/trips/:id
// @Summary Get a trip
// @Tags Trips
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /trips/{id} [get]
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "getTrip")
	}
	trip, err := services.GetVisibleTrip(h.DB, id, middleware.CurrentUserID(c))
	if err != nil {
		return handleError(c, err, "getTrip")
	}
	return utils.SuccessResponse(c, trip, fiber.StatusOK)
}

// GetSharedTrip handles GET /api/trips/share/:owner/:id/:slug
// @Summary Get a public trip with its steps
// @Description The owner name and slug segments are cosmetic; only the id is used
// @Tags Trips
// @Produce json
// @Param owner path string true "Owner display name"
// @Param id path int true "Trip ID"
// @Param slug path string true "Trip name"
// @Success 200 {object} models.Trip
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /trips/share/{owner}/{id}/{slug} [get]
func (h *TripHandler) GetSharedTrip(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "getSharedTrip")
	}
	trip, err := services.GetSharedTrip(h.DB, id)
	if err != nil {
		return handleError(c, err, "getSharedTrip")
	}
	return utils.SuccessResponse(c, trip, fiber.StatusOK)
}

// UpdateTrip handles PUT /api/trips/:id
// @Summary Update a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path int true "Trip ID"
// @Param body body services.TripUpdate true "Fields to change"
// @Success 200 {object} models.Trip
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "updateTrip")
	}
	if err := services.AuthorizeTripOwner(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "updateTrip")
	}

	var input services.TripUpdate
	if err := parseBody(c, &input, "Erreur lors de la mise à jour du voyage"); err != nil {
		return handleError(c, err, "updateTrip")
	}

	trip, err := services.UpdateTrip(h.DB, id, input)
	if err != nil {
		return handleError(c, err, "updateTrip")
	}
	return utils.SuccessResponse(c, trip, fiber.StatusOK)
}

// DeleteTrip handles DELETE /api/trips/:id
// @Summary Delete a trip with its steps, photos, comments and check-ins
// @Tags Trips
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	idParam := c.Params("id")
	if id, ok := services.ParseID(idParam); ok {
		if err := services.AuthorizeTripOwner(h.DB, id, middleware.CurrentUserID(c)); err != nil {
			return handleError(c, err, "deleteTrip")
		}
	}

	result, err := services.DeleteTrip(h.DB, idParam)
	if err != nil {
		return handleError(c, err, "deleteTrip")
	}
	services.ReleasePhotos(c.UserContext(), h.Store, result.StorageKeys)

	return utils.MessageResponse(c, result.Message, fiber.StatusOK)
}
