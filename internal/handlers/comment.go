package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/types"
	"github.com/localnerve/myway-api/internal/utils"
	"gorm.io/gorm"
)

const msgInvalidCommentID = "Invalid comment ID"

// CommentHandler handles comment routes
type CommentHandler struct {
	DB *gorm.DB
}

// CreateComment handles POST /api/comments
// @Summary Comment on a step
// @Tags Comments
// @Accept json
// @Produce json
// @Param body body services.CommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /comments [post]
func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var input services.CommentInput
	if err := parseBody(c, &input, "Le commentaire est vide ou incomplet"); err != nil {
		return handleError(c, err, "createComment")
	}
	author, err := requireSelf(c, input.UserID.Uint64())
	if err != nil {
		return handleError(c, err, "createComment")
	}
	input.UserID = types.FlexUint64(author)

	comment, err := services.CreateComment(h.DB, input)
	if err != nil {
		return handleError(c, err, "createComment")
	}
	return utils.SuccessResponse(c, comment, fiber.StatusCreated)
}

// ListStepComments handles GET /api/comments/step/:stepId
// @Summary List a step's comments, oldest first
// @Tags Comments
// @Produce json
// @Param stepId path int true "Step ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /comments/step/{stepId} [get]
func (h *CommentHandler) ListStepComments(c *fiber.Ctx) error {
	stepID, err := pathID(c, "stepId", msgInvalidStepID)
	if err != nil {
		return handleError(c, err, "listStepComments")
	}
	if err := services.AuthorizeStepViewer(h.DB, stepID, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "listStepComments")
	}
	comments, err := services.ListStepComments(h.DB, stepID)
	if err != nil {
		return handleError(c, err, "listStepComments")
	}
	return utils.SuccessResponse(c, comments, fiber.StatusOK)
}

// GetComment handles GET /api/comments/:id
// @Summary Get a comment
// @Tags Comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /comments/{id} [get]
func (h *CommentHandler) GetComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidCommentID)
	if err != nil {
		return handleError(c, err, "getComment")
	}
	comment, err := services.GetVisibleComment(h.DB, id, middleware.CurrentUserID(c))
	if err != nil {
		return handleError(c, err, "getComment")
	}
	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Edit own comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param body body services.CommentUpdate true "New text"
// @Success 200 {object} models.Comment
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /comments/{id} [put]
func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidCommentID)
	if err != nil {
		return handleError(c, err, "updateComment")
	}
	if err := services.AuthorizeCommentAuthor(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "updateComment")
	}

	var input services.CommentUpdate
	if err := parseBody(c, &input, "Le commentaire est vide ou incomplet"); err != nil {
		return handleError(c, err, "updateComment")
	}

	comment, err := services.UpdateComment(h.DB, id, input)
	if err != nil {
		return handleError(c, err, "updateComment")
	}
	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete own comment
// @Tags Comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id", msgInvalidCommentID)
	if err != nil {
		return handleError(c, err, "deleteComment")
	}
	if err := services.AuthorizeCommentAuthor(h.DB, id, middleware.CurrentUserID(c)); err != nil {
		return handleError(c, err, "deleteComment")
	}

	message, err := services.DeleteComment(h.DB, id)
	if err != nil {
		return handleError(c, err, "deleteComment")
	}
	return utils.MessageResponse(c, message, fiber.StatusOK)
}
