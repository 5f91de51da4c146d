package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/types"
	"github.com/localnerve/myway-api/internal/utils"
	"gorm.io/gorm"
)

const msgInvalidUserID = "Invalid user ID"

// UserHandler handles account, profile and search routes
type UserHandler struct {
	DB     *gorm.DB
	Tokens *services.TokenIssuer
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/users/register
// @Summary Register a user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "New account"
// @Success 201 {object} services.AuthResult
// @Failure 400 {object} utils.FieldErrorsResponseStruct
// @Router /users/register [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(&types.FieldErrors{
			Errors: []types.FieldError{{Field: "body", Message: "is invalid"}},
		})
	}

	result, err := services.Register(h.DB, h.Tokens, input)
	if err != nil {
		return handleError(c, err, "register")
	}
	return utils.SuccessResponse(c, result, fiber.StatusCreated)
}

// Authenticate handles POST /api/users/auth
// @Summary Log in
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} services.AuthResult
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /users/auth [post]
func (h *UserHandler) Authenticate(c *fiber.Ctx) error {
	var input credentials
	if err := parseBody(c, &input, "Email ou mot de passe incorrect"); err != nil {
		return handleError(c, err, "auth")
	}

	result, err := services.Authenticate(h.DB, h.Tokens, input.Email, input.Password)
	if err != nil {
		return handleError(c, err, "auth")
	}
	return utils.SuccessResponse(c, fiber.Map{"token": result.Token, "id": result.ID}, fiber.StatusOK)
}

// GetUser handles GET /api/users/:id
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "getUser")
	}
	user, err := services.GetUser(h.DB, id)
	if err != nil {
		return handleError(c, err, "getUser")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// UpdateUser handles PUT /api/users/:id
// @Summary Update own account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body services.UserUpdate true "Fields to change"
// @Success 200 {object} models.User
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "updateUser")
	}
	if _, err := requireSelf(c, id); err != nil {
		return handleError(c, err, "updateUser")
	}

	var input services.UserUpdate
	if err := parseBody(c, &input, "Requête invalide"); err != nil {
		return handleError(c, err, "updateUser")
	}

	user, err := services.UpdateUser(h.DB, id, input)
	if err != nil {
		return handleError(c, err, "updateUser")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// GetProfilePhoto handles GET /api/users/:id/profil
// @Summary Get a profile photo
// @Tags Users
// @Produce octet-stream
// @Param id path int true "User ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id}/profil [get]
func (h *UserHandler) GetProfilePhoto(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "getProfilePhoto")
	}
	data, mimeType, err := services.GetProfilePhoto(h.DB, id)
	if err != nil {
		return handleError(c, err, "getProfilePhoto")
	}
	c.Set(fiber.HeaderContentType, mimeType)
	return c.Status(fiber.StatusOK).Send(data)
}

// SetProfilePhoto handles PUT /api/users/:id/profil with the raw image as body
// @Summary Replace own profile photo
// @Tags Users
// @Accept octet-stream
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id}/profil [put]
func (h *UserHandler) SetProfilePhoto(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidUserID)
	if err != nil {
		return handleError(c, err, "setProfilePhoto")
	}
	if _, err := requireSelf(c, id); err != nil {
		return handleError(c, err, "setProfilePhoto")
	}

	// Body() is only valid for the request; the service keeps the bytes
	data := append([]byte(nil), c.Body()...)
	if err := services.SetProfilePhoto(h.DB, id, data, c.Get(fiber.HeaderContentType)); err != nil {
		return handleError(c, err, "setProfilePhoto")
	}
	return utils.MessageResponse(c, "Photo de profil mise à jour", fiber.StatusOK)
}

// Search handles GET /api/search/?query=
// @Summary Search users by name
// @Tags Users
// @Produce json
// @Param query query string true "Part of a first or last name"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /search [get]
func (h *UserHandler) Search(c *fiber.Ctx) error {
	users, err := services.SearchUsers(h.DB, c.Query("query"))
	if err != nil {
		return handleError(c, err, "search")
	}
	return utils.SuccessResponse(c, users, fiber.StatusOK)
}
