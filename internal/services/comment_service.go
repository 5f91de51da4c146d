package services

import (
	"errors"
	"log"
	"strings"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	msgCommentNotFound  = "Commentaire introuvable"
	msgCommentRequired  = "Le commentaire est vide ou incomplet"
	msgCommentForbidden = "Vous n'êtes pas l'auteur de ce commentaire"
	msgCommentDeleted   = "Commentaire supprimé avec succès"
)

type CommentInput struct {
	UserID  types.FlexUint64 `json:"userId" validate:"required"`
	StepID  types.FlexUint64 `json:"stepId" validate:"required"`
	Comment string           `json:"comment" validate:"required"`
}

type CommentUpdate struct {
	Comment string `json:"comment" validate:"required"`
}

func CreateComment(db *gorm.DB, input CommentInput) (*models.Comment, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if err := requireFields(input, msgCommentRequired); err != nil {
		return nil, err
	}
	if err := AuthorizeStepViewer(db, input.StepID.Uint64(), input.UserID.Uint64()); err != nil {
		return nil, err
	}

	comment := models.Comment{
		UserID:  input.UserID.Uint64(),
		StepID:  input.StepID.Uint64(),
		Comment: input.Comment,
	}
	if err := db.Create(&comment).Error; err != nil {
		log.Printf("CreateComment failed: %v", err)
		return nil, types.InternalError("Erreur lors de la création du commentaire", err)
	}

	if err := attachAuthors(db, []*models.Comment{&comment}); err != nil {
		log.Printf("CreateComment author lookup failed: %v", err)
	}
	return &comment, nil
}

func GetComment(db *gorm.DB, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgCommentNotFound, err)
		}
		return nil, types.InternalError("Erreur lors de la récupération du commentaire", err)
	}
	if err := attachAuthors(db, []*models.Comment{&comment}); err != nil {
		return nil, types.InternalError("Erreur lors de la récupération du commentaire", err)
	}
	return &comment, nil
}

// GetVisibleComment returns the comment when viewerID may read its step
func GetVisibleComment(db *gorm.DB, id, viewerID uint64) (*models.Comment, error) {
	comment, err := GetComment(db, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeStepViewer(db, comment.StepID, viewerID); err != nil {
		if types.IsNotFound(err) {
			return nil, types.NotFoundError(msgCommentNotFound, nil)
		}
		return nil, err
	}
	return comment, nil
}

// ListStepComments returns a step's comments oldest first, each with its author
func ListStepComments(db *gorm.DB, stepID uint64) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("step_id = ?", stepID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, types.InternalError("Erreur lors de la récupération des commentaires", err)
	}

	ptrs := make([]*models.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}
	if err := attachAuthors(db, ptrs); err != nil {
		return nil, types.InternalError("Erreur lors de la récupération des commentaires", err)
	}
	return comments, nil
}

// AuthorizeCommentAuthor fails with NotFound for a missing comment and Forbidden for someone else's
func AuthorizeCommentAuthor(db *gorm.DB, commentID, userID uint64) error {
	var comment models.Comment
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "user_id").
		First(&comment, commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFoundError(msgCommentNotFound, err)
		}
		return types.InternalError("Erreur lors de la récupération du commentaire", err)
	}
	if comment.UserID != userID {
		return types.ForbiddenError(msgCommentForbidden)
	}
	return nil
}

func UpdateComment(db *gorm.DB, id uint64, input CommentUpdate) (*models.Comment, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if err := requireFields(input, msgCommentRequired); err != nil {
		return nil, err
	}

	result := db.Model(&models.Comment{}).Where("id = ?", id).Update("comment", input.Comment)
	if result.Error != nil {
		log.Printf("UpdateComment %d failed: %v", id, result.Error)
		return nil, types.InternalError("Erreur lors de la mise à jour du commentaire", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, types.NotFoundError(msgCommentNotFound, nil)
	}
	return GetComment(db, id)
}

// DeleteComment removes a comment; a missing id is an explicit not-found error
func DeleteComment(db *gorm.DB, id uint64) (string, error) {
	result := db.Delete(&models.Comment{}, id)
	if result.Error != nil {
		log.Printf("DeleteComment %d failed: %v", id, result.Error)
		return "", types.InternalError("Erreur lors de la suppression du commentaire", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", types.NotFoundError(msgCommentNotFound, nil)
	}
	return msgCommentDeleted, nil
}

// attachAuthors loads author summaries for comments in one query
func attachAuthors(db *gorm.DB, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}

	var authors []models.UserSummary
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Model(&models.User{}).
		Select("id", "first_name", "last_name").
		Where("id IN ?", ids).
		Scan(&authors).Error
	if err != nil {
		return err
	}

	byID := make(map[uint64]models.UserSummary, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	for _, c := range comments {
		if author, ok := byID[c.UserID]; ok {
			c.User = &author
		}
	}
	return nil
}
