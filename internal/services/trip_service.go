package services

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	msgRequiredFields = "Les champs obligatoires sont manquants"
	msgTripNotFound   = "Voyage introuvable"
	msgTripUpdate     = "Erreur lors de la mise à jour du voyage"
	msgTripDeleted    = "Voyage supprimé avec succès"
	msgInvalidTripID  = "Invalid trip ID"
	msgTripForbidden  = "Vous n'êtes pas autorisé à modifier ce voyage"
)

type TripInput struct {
	Name      string           `json:"name" validate:"required"`
	Summary   string           `json:"summary" validate:"required"`
	StartDate *types.FlexTime  `json:"startDate" validate:"required"`
	EndDate   *types.FlexTime  `json:"endDate"`
	Country   string           `json:"country" validate:"required"`
	UserID    types.FlexUint64 `json:"userId" validate:"required"`
	IsPublic  bool             `json:"isPublic"`
}

// TripUpdate is a partial update. ClearEndDate makes the trip open-ended.
type TripUpdate struct {
	Name         *string         `json:"name"`
	Summary      *string         `json:"summary"`
	StartDate    *types.FlexTime `json:"startDate"`
	EndDate      *types.FlexTime `json:"endDate"`
	ClearEndDate bool            `json:"clearEndDate"`
	Country      *string         `json:"country"`
	IsPublic     *bool           `json:"isPublic"`
}

// DeleteTripResult reports the confirmation and the object store keys left to release
type DeleteTripResult struct {
	Message     string   `json:"message"`
	StorageKeys []string `json:"-"`
}

func CreateTrip(db *gorm.DB, input TripInput) (*models.Trip, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Summary = strings.TrimSpace(input.Summary)
	input.Country = strings.TrimSpace(input.Country)
	if err := requireFields(input, msgRequiredFields); err != nil {
		return nil, err
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate.Time) {
		return nil, types.ValidationError("La date de fin précède la date de début")
	}

	if _, err := GetUser(db, input.UserID.Uint64()); err != nil {
		return nil, err
	}

	trip := models.Trip{
		Name:      input.Name,
		Summary:   input.Summary,
		StartDate: input.StartDate.Time,
		Country:   input.Country,
		UserID:    input.UserID.Uint64(),
		IsPublic:  input.IsPublic,
	}
	if input.EndDate != nil {
		end := input.EndDate.Time
		trip.EndDate = &end
	}

	if err := db.Create(&trip).Error; err != nil {
		log.Printf("CreateTrip failed: %v", err)
		return nil, types.InternalError("Erreur lors de la création du voyage", err)
	}
	return &trip, nil
}

func GetTrip(db *gorm.DB, id uint64) (*models.Trip, error) {
	var trip models.Trip
	if err := db.First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgTripNotFound, err)
		}
		return nil, types.InternalError("Erreur lors de la récupération du voyage", err)
	}
	return &trip, nil
}

// ListUserTrips returns the owner's trips, newest first. Other viewers only see public ones.
func ListUserTrips(db *gorm.DB, ownerID, viewerID uint64) ([]models.Trip, error) {
	trips := []models.Trip{}
	query := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("user_id = ?", ownerID)
	if ownerID != viewerID {
		query = query.Where("is_public = ?", true)
	}
	if err := query.Order("start_date DESC, id DESC").Find(&trips).Error; err != nil {
		return nil, types.InternalError("Erreur lors de la récupération des voyages", err)
	}
	return trips, nil
}

// GetSharedTrip loads a public trip with its steps and photos; private trips are not found
func GetSharedTrip(db *gorm.DB, id uint64) (*models.Trip, error) {
	var trip models.Trip
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Preload("Steps", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("step_date ASC, id ASC")
		}).
		Preload("Steps.Photos", func(tx *gorm.DB) *gorm.DB {
			return tx.Omit("image").Order("id ASC")
		}).
		Where("id = ? AND is_public = ?", id, true).
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgTripNotFound, err)
		}
		return nil, types.InternalError("Erreur lors de la récupération du voyage", err)
	}
	return &trip, nil
}

// AuthorizeTripOwner fails with NotFound for a missing trip and Forbidden for someone else's
func AuthorizeTripOwner(db *gorm.DB, tripID, userID uint64) error {
	var trip models.Trip
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "user_id").
		First(&trip, tripID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFoundError(msgTripNotFound, err)
		}
		return types.InternalError("Erreur lors de la récupération du voyage", err)
	}
	if trip.UserID != userID {
		return types.ForbiddenError(msgTripForbidden)
	}
	return nil
}

// UpdateTrip applies a partial update. Any failure, including a missing row, surfaces as one flat message.
func UpdateTrip(db *gorm.DB, id uint64, input TripUpdate) (*models.Trip, error) {
	var trip models.Trip
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&trip, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Summary != nil {
			updates["summary"] = *input.Summary
		}
		if input.Country != nil {
			updates["country"] = *input.Country
		}
		if input.IsPublic != nil {
			updates["is_public"] = *input.IsPublic
		}
		start := trip.StartDate
		if input.StartDate != nil {
			start = input.StartDate.Time
			updates["start_date"] = start
		}
		end := trip.EndDate
		if input.EndDate != nil {
			t := input.EndDate.Time
			end = &t
			updates["end_date"] = t
		} else if input.ClearEndDate {
			end = nil
			updates["end_date"] = nil
		}
		if end != nil && end.Before(start) {
			return errEndBeforeStart
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&trip).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&trip, id).Error
	})
	if err != nil {
		log.Printf("UpdateTrip %d failed: %v", id, err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgTripUpdate, err)
		}
		if errors.Is(err, errEndBeforeStart) {
			return nil, types.ValidationError(msgTripUpdate)
		}
		return nil, types.InternalError(msgTripUpdate, err)
	}
	return &trip, nil
}

var errEndBeforeStart = errors.New("end date precedes start date")

// ParseID parses a path identifier; anything but a positive integer is rejected
func ParseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// DeleteTrip removes the trip and everything beneath it in one transaction.
// The id is validated before the store is touched.
func DeleteTrip(db *gorm.DB, idParam string) (*DeleteTripResult, error) {
	id, ok := ParseID(idParam)
	if !ok {
		return nil, types.InvalidArgumentError(msgInvalidTripID)
	}

	var keys []string
	err := db.Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&trip, id).Error; err != nil {
			return err
		}

		var stepIDs []uint64
		if err := tx.Model(&models.Step{}).Where("trip_id = ?", id).Pluck("id", &stepIDs).Error; err != nil {
			return err
		}

		if len(stepIDs) > 0 {
			if err := tx.Model(&models.Photo{}).
				Where("step_id IN ? AND storage_key <> ''", stepIDs).
				Pluck("storage_key", &keys).Error; err != nil {
				return err
			}
			if err := tx.Where("step_id IN ?", stepIDs).Delete(&models.Photo{}).Error; err != nil {
				return err
			}
			if err := tx.Where("step_id IN ?", stepIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("trip_id = ?", id).Delete(&models.Step{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("trip_id = ?", id).Delete(&models.Location{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Trip{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError(msgTripNotFound, err)
		}
		log.Printf("DeleteTrip %d failed: %v", id, err)
		return nil, types.InternalError("Erreur lors de la suppression du voyage", err)
	}

	return &DeleteTripResult{Message: msgTripDeleted, StorageKeys: keys}, nil
}

// GetVisibleTrip returns the trip when viewerID owns it or it is public. A private
// trip looks missing to everyone else.
func GetVisibleTrip(db *gorm.DB, tripID, viewerID uint64) (*models.Trip, error) {
	trip, err := GetTrip(db, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != viewerID && !trip.IsPublic {
		return nil, types.NotFoundError(msgTripNotFound, nil)
	}
	return trip, nil
}
