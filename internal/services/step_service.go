// step_service.go
//
// Travel journal service: trips, steps, photos, comments and location check-ins
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of myway-api.
// myway-api is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// myway-api is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with myway-api.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/storage"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	msgStepNotFound = "Étape introuvable"
	msgStepUpdate   = "Erreur lors de la mise à jour de l'étape et des photos"
	msgStepCreate   = "Erreur lors de la création de l'étape"
	msgStepDeleted  = "Étape supprimée avec succès"
)

type StepInput struct {
	TripID      types.FlexUint64                 `json:"tripId" validate:"required"`
	StepDate    *types.FlexTime                  `json:"stepDate" validate:"required"`
	Name        string                           `json:"name" validate:"required"`
	Description string                           `json:"description" validate:"required"`
	Photos      types.FlexList[types.PhotoInput] `json:"photos"`
}

type StepUpdate struct {
	Name        *string                          `json:"name"`
	Description *string                          `json:"description"`
	StepDate    *types.FlexTime                  `json:"stepDate"`
	Photos      types.FlexList[types.PhotoInput] `json:"photos"`
}

// photosOnly drops binaries from preloaded photos
func photosOnly(tx *gorm.DB) *gorm.DB {
	return tx.Omit("image").Order("id ASC")
}

// CreateStep persists a step and its inline photos together
func CreateStep(ctx context.Context, db *gorm.DB, store storage.PhotoStore, input StepInput) (*models.Step, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := requireFields(input, msgRequiredFields); err != nil {
		return nil, err
	}

	photos, err := decodePhotos(input.Photos.Slice())
	if err != nil {
		log.Printf("CreateStep photo decode failed: %v", err)
		return nil, types.ValidationError("Photo invalide")
	}

	var step models.Step
	var keys []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.Select("id").First(&trip, input.TripID.Uint64()).Error; err != nil {
			return err
		}

		step = models.Step{
			TripID:      trip.ID,
			StepDate:    input.StepDate.Time,
			Name:        input.Name,
			Description: input.Description,
		}
		if err := tx.Omit(clause.Associations).Create(&step).Error; err != nil {
			return err
		}

		saved, stored, err := savePhotos(ctx, tx, store, step.ID, photos)
		keys = stored
		if err != nil {
			return err
		}
		step.Photos = saved
		return nil
	})
	if err != nil {
		releaseKeys(ctx, store, keys)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgTripNotFound, err)
		}
		log.Printf("CreateStep failed: %v", err)
		return nil, types.InternalError(msgStepCreate, err)
	}

	return &step, nil
}

func GetStep(db *gorm.DB, id uint64) (*models.Step, error) {
	var step models.Step
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Preload("Photos", photosOnly).
		First(&step, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgStepNotFound, err)
		}
		return nil, types.InternalError("Erreur lors de la récupération de l'étape", err)
	}
	return &step, nil
}

// ListTripSteps returns a trip's steps in date order with photo references
func ListTripSteps(db *gorm.DB, tripID uint64) ([]models.Step, error) {
	steps := []models.Step{}
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Preload("Photos", photosOnly).
		Where("trip_id = ?", tripID).
		Order("step_date ASC, id ASC").
		Find(&steps).Error
	if err != nil {
		return nil, types.InternalError("Erreur lors de la récupération des étapes", err)
	}
	return steps, nil
}

// StepTripID returns the trip a step belongs to
func StepTripID(db *gorm.DB, stepID uint64) (uint64, error) {
	var step models.Step
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "trip_id").
		First(&step, stepID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, types.NotFoundError(msgStepNotFound, err)
		}
		return 0, types.InternalError("Erreur lors de la récupération de l'étape", err)
	}
	return step.TripID, nil
}

// AuthorizeStepOwner checks that userID owns the trip the step belongs to
func AuthorizeStepOwner(db *gorm.DB, stepID, userID uint64) error {
	tripID, err := StepTripID(db, stepID)
	if err != nil {
		return err
	}
	return AuthorizeTripOwner(db, tripID, userID)
}

// AuthorizeStepViewer checks that viewerID may read the step, its photos and its comments.
// Steps of a private trip look missing to anyone but the owner; viewerID 0 is anonymous.
func AuthorizeStepViewer(db *gorm.DB, stepID, viewerID uint64) error {
	tripID, err := StepTripID(db, stepID)
	if err != nil {
		return err
	}
	if _, err := GetVisibleTrip(db, tripID, viewerID); err != nil {
		if types.IsNotFound(err) {
			return types.NotFoundError(msgStepNotFound, nil)
		}
		return err
	}
	return nil
}

// UpdateStep applies a partial update and appends new photos; existing photos are never removed
func UpdateStep(ctx context.Context, db *gorm.DB, store storage.PhotoStore, id uint64, input StepUpdate) (*models.Step, error) {
	photos, err := decodePhotos(input.Photos.Slice())
	if err != nil {
		log.Printf("UpdateStep %d photo decode failed: %v", id, err)
		return nil, types.ValidationError(msgStepUpdate)
	}

	var step models.Step
	var keys []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&step, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			updates["description"] = strings.TrimSpace(*input.Description)
		}
		if input.StepDate != nil {
			updates["step_date"] = input.StepDate.Time
		}
		if len(updates) > 0 {
			if err := tx.Model(&step).Updates(updates).Error; err != nil {
				return err
			}
		}

		_, stored, err := savePhotos(ctx, tx, store, step.ID, photos)
		keys = stored
		if err != nil {
			return err
		}

		return tx.Preload("Photos", photosOnly).First(&step, id).Error
	})
	if err != nil {
		releaseKeys(ctx, store, keys)
		log.Printf("UpdateStep %d failed: %v", id, err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgStepUpdate, err)
		}
		return nil, types.InternalError(msgStepUpdate, err)
	}

	return &step, nil
}

// DeleteStep removes a step with its photos and comments, then releases stored binaries
func DeleteStep(ctx context.Context, db *gorm.DB, store storage.PhotoStore, id uint64) (string, error) {
	var keys []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var step models.Step
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&step, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Photo{}).
			Where("step_id = ? AND storage_key <> ''", id).
			Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Where("step_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("step_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Step{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", types.NotFoundError(msgStepNotFound, err)
		}
		log.Printf("DeleteStep %d failed: %v", id, err)
		return "", types.InternalError("Erreur lors de la suppression de l'étape", err)
	}

	releaseKeys(ctx, store, keys)
	return msgStepDeleted, nil
}

// releaseKeys deletes stored binaries on a best effort basis
func releaseKeys(ctx context.Context, store storage.PhotoStore, keys []string) {
	if store == nil || len(keys) == 0 {
		return
	}
	if err := storage.DeleteAll(ctx, store, keys); err != nil {
		log.Printf("Photo store cleanup failed: %v", err)
	}
}

// ReleasePhotos removes object store binaries left behind by a deleted trip
func ReleasePhotos(ctx context.Context, store storage.PhotoStore, keys []string) {
	releaseKeys(ctx, store, keys)
}
