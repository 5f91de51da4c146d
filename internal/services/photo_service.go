package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/storage"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const msgPhotoNotFound = "Photo introuvable"

var errInvalidPhoto = errors.New("invalid photo payload")

type decodedPhoto struct {
	data     []byte
	mimeType string
}

// decodePhotos turns inline payloads into binaries. Entries that only point at an
// existing photo are skipped; they never replace or remove anything.
func decodePhotos(inputs []types.PhotoInput) ([]decodedPhoto, error) {
	decoded := make([]decodedPhoto, 0, len(inputs))
	for i, input := range inputs {
		if input.IsEmpty() || input.IsReferenceOnly() {
			continue
		}
		photo, err := decodePhoto(input)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i, err)
		}
		decoded = append(decoded, photo)
	}
	return decoded, nil
}

// decodePhoto accepts a data URI or bare base64. The mime type comes from the
// payload field, then the data URI header, then content sniffing.
func decodePhoto(input types.PhotoInput) (decodedPhoto, error) {
	payload := strings.TrimSpace(input.Image)
	headerMime := ""

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return decodedPhoto{}, errInvalidPhoto
		}
		header := payload[len("data:"):comma]
		payload = payload[comma+1:]
		headerMime = strings.SplitN(header, ";", 2)[0]
	}

	data, err := decodeBase64(payload)
	if err != nil || len(data) == 0 {
		return decodedPhoto{}, errInvalidPhoto
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		mimeType = headerMime
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	return decodedPhoto{data: data, mimeType: mimeType}, nil
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, errInvalidPhoto
}

// savePhotos persists decoded photos for a step. With a store, binaries go to the
// object store and the returned keys let the caller undo the puts on rollback.
func savePhotos(ctx context.Context, tx *gorm.DB, store storage.PhotoStore, stepID uint64, photos []decodedPhoto) ([]models.Photo, []string, error) {
	saved := make([]models.Photo, 0, len(photos))
	keys := make([]string, 0, len(photos))

	for _, p := range photos {
		photo := models.Photo{StepID: stepID, MimeType: p.mimeType}
		if store != nil {
			key := storage.PhotoKey(stepID)
			if err := store.Put(ctx, key, p.mimeType, p.data); err != nil {
				return nil, keys, fmt.Errorf("store photo: %w", err)
			}
			keys = append(keys, key)
			photo.StorageKey = key
		} else {
			photo.Image = p.data
		}

		if err := tx.Create(&photo).Error; err != nil {
			return nil, keys, err
		}
		saved = append(saved, photo)
	}

	return saved, keys, nil
}

// AuthorizePhotoViewer checks that viewerID may read the photo. Photos of a private
// trip look missing to anyone but the owner.
func AuthorizePhotoViewer(db *gorm.DB, photoID, viewerID uint64) error {
	var photo models.Photo
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "step_id").
		First(&photo, photoID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFoundError(msgPhotoNotFound, err)
		}
		return types.InternalError("Erreur lors de la récupération de la photo", err)
	}
	if err := AuthorizeStepViewer(db, photo.StepID, viewerID); err != nil {
		if types.IsNotFound(err) {
			return types.NotFoundError(msgPhotoNotFound, nil)
		}
		return err
	}
	return nil
}

// GetPhoto returns a photo's binary and mime type, wherever it is kept
func GetPhoto(ctx context.Context, db *gorm.DB, store storage.PhotoStore, id uint64) ([]byte, string, error) {
	var photo models.Photo
	err := db.WithContext(ctx).
		Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", types.NotFoundError(msgPhotoNotFound, err)
		}
		return nil, "", types.InternalError("Erreur lors de la récupération de la photo", err)
	}

	if photo.StorageKey != "" {
		if store == nil {
			return nil, "", types.InternalError("Erreur lors de la récupération de la photo", errors.New("no photo store configured"))
		}
		data, err := store.Get(ctx, photo.StorageKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, "", types.NotFoundError(msgPhotoNotFound, err)
			}
			return nil, "", types.InternalError("Erreur lors de la récupération de la photo", err)
		}
		return data, photo.MimeType, nil
	}

	if len(photo.Image) == 0 {
		return nil, "", types.NotFoundError(msgPhotoNotFound, nil)
	}
	return photo.Image, photo.MimeType, nil
}
