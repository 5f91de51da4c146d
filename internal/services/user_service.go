package services

import (
	"errors"
	"log"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// MaxProfilePhotoSize bounds uploaded profile photos
	MaxProfilePhotoSize = 10 << 20
	searchLimit         = 20
	msgBadCredentials   = "Email ou mot de passe incorrect"
	msgUserNotFound     = "Utilisateur introuvable"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Address   string `json:"address"`
}

type UserUpdate struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1"`
	Address   *string `json:"address"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
	ID    uint64       `json:"id"`
}

// Register creates a user with a bcrypt hashed password and returns a token for it
func Register(db *gorm.DB, issuer *TokenIssuer, input RegisterInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Struct(input); err != nil {
		return nil, fieldErrors(err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, types.InternalError("Erreur lors de l'inscription", err)
	}
	if count > 0 {
		return nil, emailTaken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, types.InternalError("Erreur lors de l'inscription", err)
	}

	user := models.User{
		Email:     input.Email,
		Password:  string(hash),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Address:   input.Address,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Register failed for %s: %v", input.Email, err)
		return nil, types.InternalError("Erreur lors de l'inscription", err)
	}

	token, err := issuer.Issue(user.ID)
	if err != nil {
		return nil, types.InternalError("Erreur lors de l'inscription", err)
	}

	return &AuthResult{Token: token, User: &user, ID: user.ID}, nil
}

// Authenticate checks credentials. Unknown email and wrong password are indistinguishable.
func Authenticate(db *gorm.DB, issuer *TokenIssuer, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, types.NotFoundError(msgBadCredentials, nil)
	}

	var user models.User
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgBadCredentials, nil)
		}
		return nil, types.InternalError("Erreur lors de la connexion", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, types.NotFoundError(msgBadCredentials, nil)
	}

	token, err := issuer.Issue(user.ID)
	if err != nil {
		return nil, types.InternalError("Erreur lors de la connexion", err)
	}

	return &AuthResult{Token: token, ID: user.ID}, nil
}

func GetUser(db *gorm.DB, id uint64) (*models.User, error) {
	var user models.User
	if err := db.Omit("profile_photo").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgUserNotFound, err)
		}
		return nil, types.InternalError("Erreur lors de la récupération de l'utilisateur", err)
	}
	return &user, nil
}

var errEmailTaken = errors.New("email already registered")

func emailTaken() *types.FieldErrors {
	return &types.FieldErrors{Errors: []types.FieldError{{Field: "email", Message: "is already registered"}}}
}

// UpdateUser applies a partial update; a new password is re-hashed
func UpdateUser(db *gorm.DB, id uint64, input UserUpdate) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fieldErrors(err)
	}

	updates := map[string]interface{}{}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, types.InternalError("Erreur lors de la mise à jour de l'utilisateur", err)
		}
		updates["password"] = string(hash)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if email, ok := updates["email"]; ok {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errEmailTaken
			}
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgUserNotFound, err)
		}
		if errors.Is(err, errEmailTaken) {
			return nil, emailTaken()
		}
		log.Printf("UpdateUser %d failed: %v", id, err)
		return nil, types.InternalError("Erreur lors de la mise à jour de l'utilisateur", err)
	}

	return GetUser(db, id)
}

// GetProfilePhoto returns the stored profile photo and its mime type
func GetProfilePhoto(db *gorm.DB, id uint64) ([]byte, string, error) {
	var user models.User
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "profile_photo", "profile_photo_mime").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", types.NotFoundError(msgUserNotFound, err)
		}
		return nil, "", types.InternalError("Erreur lors de la récupération de la photo", err)
	}
	if len(user.ProfilePhoto) == 0 {
		return nil, "", types.NotFoundError("Photo introuvable", nil)
	}
	return user.ProfilePhoto, user.ProfilePhotoMime, nil
}

// SetProfilePhoto replaces the user's profile photo. An empty contentType is sniffed from the data.
func SetProfilePhoto(db *gorm.DB, id uint64, data []byte, contentType string) error {
	if len(data) == 0 {
		return types.ValidationError("Photo manquante")
	}
	if len(data) > MaxProfilePhotoSize {
		return types.ValidationError("Photo trop volumineuse")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"profile_photo":      data,
		"profile_photo_mime": contentType,
	})
	if result.Error != nil {
		return types.InternalError("Erreur lors de la mise à jour de la photo", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NotFoundError(msgUserNotFound, nil)
	}
	return nil
}

// likeEscaper makes LIKE wildcards in a query match literally, with '!' as the escape
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

// SearchUsers matches query against first and last names, case-insensitively
func SearchUsers(db *gorm.DB, query string) ([]models.UserSummary, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	users := []models.UserSummary{}
	if query == "" {
		return users, nil
	}

	pattern := "%" + likeEscaper.Replace(query) + "%"
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Model(&models.User{}).
		Select("id", "first_name", "last_name").
		Where("LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("last_name, first_name").
		Limit(searchLimit).
		Scan(&users).Error
	if err != nil {
		return nil, types.InternalError("Erreur lors de la recherche", err)
	}
	return users, nil
}
