package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/utils"
)

// LocationHandler handles check-in routes
type LocationHandler struct {
	Service *services.LocationService
	// ListAll exposes every user's rows on GET /api/location instead of the caller's own
	ListAll bool
}

// CheckIn handles POST /api/location
// @Summary Record a location check-in
// @Description Reuses the last city when the same point was recorded within the hour, otherwise reverse geocodes and stores a new row
// @Tags Location
// @Accept json
// @Produce json
// @Param body body services.CheckInInput true "Check-in"
// @Success 200 {object} map[string]interface{} "Still at the last recorded city"
// @Success 201 {object} map[string]interface{} "New location recorded"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /location [post]
func (h *LocationHandler) CheckIn(c *fiber.Ctx) error {
	var input services.CheckInInput
	if err := parseBody(c, &input, "Paramètres manquants"); err != nil {
		return handleError(c, err, "checkIn")
	}
	if input.UserID != 0 {
		if _, err := requireSelf(c, input.UserID.Uint64()); err != nil {
			return handleError(c, err, "checkIn")
		}
	}

	result, err := h.Service.CheckIn(c.UserContext(), input)
	if err != nil {
		return handleError(c, err, "checkIn")
	}

	if !result.Created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": result.Message,
			"city":    result.City,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  result.Message,
		"location": result.Location,
	})
}

// ListLocations handles GET /api/location
// @Summary List the caller's check-ins, newest first
// @Tags Location
// @Produce json
// @Success 200 {array} models.Location
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /location [get]
func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	var locations []models.Location
	var err error
	if h.ListAll {
		locations, err = h.Service.ListAllLocations(c.UserContext())
	} else {
		locations, err = h.Service.ListUserLocations(c.UserContext(), middleware.CurrentUserID(c))
	}
	if err != nil {
		return handleError(c, err, "listLocations")
	}
	return utils.SuccessResponse(c, locations, fiber.StatusOK)
}

// GetLatestLocation handles GET /api/location/:userId/:tripId
// @Summary Current position of a user on a trip
// @Tags Location
// @Produce json
// @Param userId path int true "User ID"
// @Param tripId path int true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /location/{userId}/{tripId} [get]
func (h *LocationHandler) GetLatestLocation(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "getLatestLocation")
	}
	tripID, err := pathID(c, "tripId", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "getLatestLocation")
	}

	// A user can always read their own position; anyone else needs to see the trip
	if viewer := middleware.CurrentUserID(c); viewer != userID {
		if _, err := services.GetVisibleTrip(h.Service.DB, tripID, viewer); err != nil {
			return handleError(c, err, "getLatestLocation")
		}
	}

	location, err := h.Service.GetLatestLocation(c.UserContext(), userID, tripID)
	if err != nil {
		return handleError(c, err, "getLatestLocation")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"location": location})
}

// ListTripLocations handles GET /api/location/trip/:tripId
// @Summary A trip's check-ins, oldest first
// @Tags Location
// @Produce json
// @Param tripId path int true "Trip ID"
// @Success 200 {array} models.Location
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /location/trip/{tripId} [get]
func (h *LocationHandler) ListTripLocations(c *fiber.Ctx) error {
	tripID, err := pathID(c, "tripId", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "listTripLocations")
	}
	if _, err := services.GetVisibleTrip(h.Service.DB, tripID, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "listTripLocations")
	}
	locations, err := h.Service.ListTripLocations(c.UserContext(), tripID)
	if err != nil {
		return handleError(c, err, "listTripLocations")
	}
	return utils.SuccessResponse(c, locations, fiber.StatusOK)
}
