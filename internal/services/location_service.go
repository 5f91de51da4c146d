// location_service.go
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
	"fmt"
	"log"
	"time"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

const (
	// DefaultFreshness is how long the last check-in for the same point is reused
	DefaultFreshness = time.Hour

	msgMissingParams    = "Paramètres manquants"
	msgLocationSaved    = "Localisation enregistrée"
	msgStillAt          = "Vous êtes toujours à %s"
	msgGeocodingFailed  = "Erreur serveur"
	msgNoLocation       = "Aucune localisation trouvée pour cet utilisateur et ce voyage"
	msgListLocations    = "Could not retrieve location"
	latestLocationIndex = "INDEX(locations idx_locations_user_trip_created)"
)

// LocationService records check-ins, reusing the last city while the user stays put
type LocationService struct {
	DB        *gorm.DB
	Geocoder  Geocoder
	Freshness time.Duration
	Now       func() time.Time
}

func NewLocationService(db *gorm.DB, geocoder Geocoder) *LocationService {
	return &LocationService{
		DB:        db,
		Geocoder:  geocoder,
		Freshness: DefaultFreshness,
		Now:       time.Now,
	}
}

// CheckInInput is the body of POST /location. Ids may arrive as strings.
type CheckInInput struct {
	UserID    types.FlexUint64 `json:"userId"`
	TripID    types.FlexUint64 `json:"tripId"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	Timestamp *types.FlexTime  `json:"timestamp,omitempty"`
}

// CheckInResult is either a fresh row (Created) or the reused city
type CheckInResult struct {
	Created  bool
	Message  string
	City     string
	Location *models.Location
}

// CheckIn decides between reusing the last known city and recording a new, geocoded location.
// The geocoder is only called when the point differs from the latest row or that row is stale.
func (s *LocationService) CheckIn(ctx context.Context, input CheckInInput) (*CheckInResult, error) {
	if input.UserID == 0 || input.TripID == 0 || input.Latitude == nil || input.Longitude == nil {
		return nil, types.ValidationError(msgMissingParams)
	}
	userID, tripID := input.UserID.Uint64(), input.TripID.Uint64()
	latitude, longitude := *input.Latitude, *input.Longitude

	db := s.DB.WithContext(ctx)
	if err := s.requireParticipants(db, userID, tripID); err != nil {
		return nil, err
	}

	latest, err := s.latest(db, userID, tripID)
	if err != nil {
		log.Printf("CheckIn latest lookup failed for user %d trip %d: %v", userID, tripID, err)
		return nil, types.InternalError(msgGeocodingFailed, err)
	}
	if s.reusable(latest, latitude, longitude) {
		return stillAt(latest.City), nil
	}

	geo, err := s.Geocoder.ReverseGeocode(ctx, latitude, longitude)
	if err != nil {
		log.Printf("CheckIn reverse geocode failed for (%v, %v): %v", latitude, longitude, err)
		return nil, types.GeocodingError(msgGeocodingFailed, err)
	}

	address, err := models.NewJSON(geo.Address)
	if err != nil {
		log.Printf("CheckIn address encode failed: %v", err)
		address = models.JSON{}
	}

	var result *CheckInResult
	err = db.Transaction(func(tx *gorm.DB) error {
		// Serialize check-ins for the trip, then compare against whatever landed meanwhile
		var trip models.Trip
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&trip, tripID).Error; err != nil {
			return err
		}

		current, err := s.latest(tx, userID, tripID)
		if err != nil {
			return err
		}
		if current != nil && (latest == nil || current.ID != latest.ID) && s.reusable(current, latitude, longitude) {
			result = stillAt(current.City)
			return nil
		}

		location := models.Location{
			UserID:    userID,
			TripID:    tripID,
			Latitude:  latitude,
			Longitude: longitude,
			City:      geo.City,
			Address:   address,
			CreatedAt: s.now(),
		}
		if err := tx.Create(&location).Error; err != nil {
			return err
		}

		result = &CheckInResult{
			Created:  true,
			Message:  msgLocationSaved,
			City:     location.City,
			Location: &location,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("Voyage introuvable", err)
		}
		log.Printf("CheckIn insert failed for user %d trip %d: %v", userID, tripID, err)
		return nil, types.InternalError(msgGeocodingFailed, err)
	}

	return result, nil
}

// GetLatestLocation returns the current position for a (user, trip) pair
func (s *LocationService) GetLatestLocation(ctx context.Context, userID, tripID uint64) (*models.Location, error) {
	location, err := s.latest(s.DB.WithContext(ctx), userID, tripID)
	if err != nil {
		return nil, types.InternalError(msgListLocations, err)
	}
	if location == nil {
		return nil, types.NotFoundError(msgNoLocation, nil)
	}
	return location, nil
}

// ListAllLocations returns every user's check-ins, newest first. It is only routed
// when the server runs with the all-locations listing enabled.
func (s *LocationService) ListAllLocations(ctx context.Context) ([]models.Location, error) {
	locations := []models.Location{}
	err := s.DB.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&locations).Error
	if err != nil {
		log.Printf("ListAllLocations failed: %v", err)
		return nil, types.InternalError(msgListLocations, err)
	}
	return locations, nil
}

// ListUserLocations returns one user's check-ins across trips, newest first
func (s *LocationService) ListUserLocations(ctx context.Context, userID uint64) ([]models.Location, error) {
	locations := []models.Location{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&locations).Error
	if err != nil {
		log.Printf("ListUserLocations %d failed: %v", userID, err)
		return nil, types.InternalError(msgListLocations, err)
	}
	return locations, nil
}

// ListTripLocations returns a trip's check-ins oldest first, as a track
func (s *LocationService) ListTripLocations(ctx context.Context, tripID uint64) ([]models.Location, error) {
	locations := []models.Location{}
	err := s.DB.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at ASC, id ASC").
		Find(&locations).Error
	if err != nil {
		log.Printf("ListTripLocations %d failed: %v", tripID, err)
		return nil, types.InternalError(msgListLocations, err)
	}
	return locations, nil
}

func (s *LocationService) requireParticipants(db *gorm.DB, userID, tripID uint64) error {
	quiet := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})

	var count int64
	if err := quiet.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return types.InternalError(msgGeocodingFailed, err)
	}
	if count == 0 {
		return types.NotFoundError(msgUserNotFound, nil)
	}

	if err := quiet.Model(&models.Trip{}).Where("id = ?", tripID).Count(&count).Error; err != nil {
		return types.InternalError(msgGeocodingFailed, err)
	}
	if count == 0 {
		return types.NotFoundError("Voyage introuvable", nil)
	}
	return nil
}

// latest returns the newest row for the pair, or nil when there is none
func (s *LocationService) latest(db *gorm.DB, userID, tripID uint64) (*models.Location, error) {
	var locations []models.Location
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Clauses(hints.New(latestLocationIndex)).
		Where("user_id = ? AND trip_id = ?", userID, tripID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("latest location: %w", err)
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return &locations[0], nil
}

// reusable: same exact point, recorded no longer than Freshness ago
func (s *LocationService) reusable(last *models.Location, latitude, longitude float64) bool {
	if last == nil {
		return false
	}
	return s.now().Sub(last.CreatedAt) <= s.freshness() && last.SamePoint(latitude, longitude)
}

func (s *LocationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LocationService) freshness() time.Duration {
	if s.Freshness > 0 {
		return s.Freshness
	}
	return DefaultFreshness
}

func stillAt(city string) *CheckInResult {
	return &CheckInResult{
		Created: false,
		Message: fmt.Sprintf(msgStillAt, city),
		City:    city,
	}
}
