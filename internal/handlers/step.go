package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/storage"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
)

const msgInvalidStepID = "Invalid step ID"

// StepHandler handles step routes. Store is nil when photos are kept in the database.
type StepHandler struct {
	DB    *gorm.DB
	Store storage.PhotoStore
}

// CreateStep handles POST /api/steps
// @Summary Create a step with inline photos
// @Description photos may be a single entry or an array; each is a data URI, bare base64 or {image, mimeType}
// @Tags Steps
// @Accept json
// @Produce json
// @Param body body services.StepInput true "Step"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /steps [post]
func (h *StepHandler) CreateStep(c *fiber.Ctx) error {
	var input services.StepInput
	if err := parseBody(c, &input, "Les champs obligatoires sont manquants"); err != nil {
		return handleError(c, err, "createStep")
	}
	if input.TripID != 0 {
		if err := services.AuthorizeTripOwner(h.DB, input.TripID.Uint64(), middleware.CurrentUserID(c)); err != nil {
			return handleError(c, err, "createStep")
		}
	}

	step, err := services.CreateStep(c.UserContext(), h.DB, h.Store, input)
	if err != nil {
		return handleError(c, err, "createStep")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "step": step})
}

// ListTripSteps handles GET /api/steps/trip/:tripId
// @Summary List a trip's steps in date order
// @Tags Steps
// @Produce json
// @Param tripId path int true "Trip ID"
// @Success 200 {array} models.Step
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /steps/trip/{tripId} [get]
func (h *StepHandler) ListTripSteps(c *fiber.Ctx) error {
	tripID, err := pathID(c, "tripId", msgInvalidTripID)
	if err != nil {
		return handleError(c, err, "listTripSteps")
	}
	if _, err := services.GetVisibleTrip(h.DB, tripID, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "listTripSteps")
	}

	steps, err := services.ListTripSteps(h.DB, tripID)
	if err != nil {
		return handleError(c, err, "listTripSteps")
	}
	return c.Status(fiber.StatusOK).JSON(steps)
}

// GetStep handles GET /api/steps/:id
// @Summary Get a step
// @Tags Steps
// @Produce json
// @Param id path int true "Step ID"
// @Success 200 {object} models.Step
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /steps/{id} [get]
func (h *StepHandler) GetStep(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidStepID)
	if err != nil {
		return handleError(c, err, "getStep")
	}
	step, err := services.GetStep(h.DB, id)
	if err != nil {
		return handleError(c, err, "getStep")
	}
	if _, err := services.GetVisibleTrip(h.DB, step.TripID, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, types.NotFoundError("Étape introuvable", err), "getStep")
	}
	return c.Status(fiber.StatusOK).JSON(step)
}

// UpdateStep handles PUT /api/steps/:id
// @Summary Update a step and append photos
// @Description Entries in photos that only carry an existing reference are ignored
// @Tags Steps
// @Accept json
// @Produce json
// @Param id path int true "Step ID"
// @Param body body services.StepUpdate true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /steps/{id} [put]
func (h *StepHandler) UpdateStep(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidStepID)
	if err != nil {
		return handleError(c, err, "updateStep")
	}
	if err := services.AuthorizeStepOwner(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "updateStep")
	}

	var input services.StepUpdate
	if err := parseBody(c, &input, "Erreur lors de la mise à jour de l'étape et des photos"); err != nil {
		return handleError(c, err, "updateStep")
	}

	step, err := services.UpdateStep(c.UserContext(), h.DB, h.Store, id, input)
	if err != nil {
		return handleError(c, err, "updateStep")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "step": step})
}

// DeleteStep handles DELETE /api/steps/:id
// @Summary Delete a step with its photos and comments
// @Tags Steps
// @Produce json
// @Param id path int true "Step ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /steps/{id} [delete]
func (h *StepHandler) DeleteStep(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidStepID)
	if err != nil {
		return handleError(c, err, "deleteStep")
	}
	if err := services.AuthorizeStepOwner(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "deleteStep")
	}

	message, err := services.DeleteStep(c.UserContext(), h.DB, h.Store, id)
	if err != nil {
		return handleError(c, err, "deleteStep")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": message})
}
