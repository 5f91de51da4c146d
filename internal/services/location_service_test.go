// location_service_test.go
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

package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/testutil"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
)

type locationFixture struct {
	db       *gorm.DB
	geocoder *fakeGeocoder
	svc      *services.LocationService
	now      time.Time
	userID   uint64
	tripID   uint64
}

func setupLocation(t *testing.T) *locationFixture {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "yabo@example.com", "Vignissi", "Yabo")
	trip := testutil.CreateTrip(t, db, user.ID, "Trip", true)

	f := &locationFixture{
		db:       db,
		geocoder: &fakeGeocoder{city: "Test City"},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		userID:   user.ID,
		tripID:   trip.ID,
	}
	f.svc = services.NewLocationService(db, f.geocoder)
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func (f *locationFixture) input(lat, lon float64) services.CheckInInput {
	return services.CheckInInput{
		UserID:    types.FlexUint64(f.userID),
		TripID:    types.FlexUint64(f.tripID),
		Latitude:  floatPtr(lat),
		Longitude: floatPtr(lon),
	}
}

func TestCheckInRecordsThenReusesCity(t *testing.T) {
	f := setupLocation(t)
	ctx := context.Background()

	first, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78))
	if err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}
	if !first.Created {
		t.Errorf("Expected a new location on first check-in")
	}
	if first.Message != "Localisation enregistrée" {
		t.Errorf("Unexpected message: %q", first.Message)
	}
	if first.Location == nil || first.Location.City != "Test City" || first.Location.ID == 0 {
		t.Fatalf("Unexpected location: %+v", first.Location)
	}

	f.now = f.now.Add(30 * time.Minute)
	second, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78))
	if err != nil {
		t.Fatalf("Second check-in failed: %v", err)
	}
	if second.Created {
		t.Errorf("Expected the city to be reused")
	}
	if second.Message != "Vous êtes toujours à Test City" {
		t.Errorf("Unexpected message: %q", second.Message)
	}

	if n := testutil.CountRows(t, f.db, &models.Location{}, ""); n != 1 {
		t.Errorf("Expected 1 location row, got %d", n)
	}
	if f.geocoder.Calls() != 1 {
		t.Errorf("Expected geocoder to be called once, got %d", f.geocoder.Calls())
	}
}

func TestCheckInStaleLocationGeocodesAgain(t *testing.T) {
	f := setupLocation(t)
	ctx := context.Background()

	if _, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78)); err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}

	f.now = f.now.Add(61 * time.Minute)
	f.geocoder.city = "Other City"
	result, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78))
	if err != nil {
		t.Fatalf("Second check-in failed: %v", err)
	}
	if !result.Created || result.City != "Other City" {
		t.Errorf("Expected a fresh row for a stale location, got %+v", result)
	}
	if n := testutil.CountRows(t, f.db, &models.Location{}, ""); n != 2 {
		t.Errorf("Expected 2 location rows, got %d", n)
	}
}

func TestCheckInMovedPointGeocodesAgain(t *testing.T) {
	f := setupLocation(t)
	ctx := context.Background()

	if _, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78)); err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}
	result, err := f.svc.CheckIn(ctx, f.input(12.3401, 56.78))
	if err != nil {
		t.Fatalf("Second check-in failed: %v", err)
	}
	if !result.Created {
		t.Errorf("Expected a new row for a different point")
	}
	if f.geocoder.Calls() != 2 {
		t.Errorf("Expected 2 geocoder calls, got %d", f.geocoder.Calls())
	}
}

func TestCheckInGeocodeFailureWritesNothing(t *testing.T) {
	f := setupLocation(t)
	f.geocoder.err = errors.New("API Error")

	_, err := f.svc.CheckIn(context.Background(), f.input(12.34, 56.78))
	customErr := expectError(t, err, http.StatusInternalServerError, "Erreur serveur")
	if customErr.Type != types.ErrTypeGeocoding {
		t.Errorf("Expected geocoding error type, got %s", customErr.Type)
	}
	if n := testutil.CountRows(t, f.db, &models.Location{}, ""); n != 0 {
		t.Errorf("Expected no location rows, got %d", n)
	}
}

func TestCheckInMissingParameters(t *testing.T) {
	f := setupLocation(t)

	cases := map[string]services.CheckInInput{
		"latitude only": {Latitude: floatPtr(12.34)},
		"no longitude": {
			UserID:   types.FlexUint64(f.userID),
			TripID:   types.FlexUint64(f.tripID),
			Latitude: floatPtr(12.34),
		},
		"no trip": {
			UserID:    types.FlexUint64(f.userID),
			Latitude:  floatPtr(12.34),
			Longitude: floatPtr(56.78),
		},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CheckIn(context.Background(), input)
			expectError(t, err, http.StatusBadRequest, "Paramètres manquants")
		})
	}
	if f.geocoder.Calls() != 0 {
		t.Errorf("Geocoder must not be called for invalid input")
	}
}

func TestCheckInZeroCoordinatesAreValid(t *testing.T) {
	f := setupLocation(t)

	result, err := f.svc.CheckIn(context.Background(), f.input(0, 0))
	if err != nil {
		t.Fatalf("Check-in at (0, 0) failed: %v", err)
	}
	if !result.Created {
		t.Errorf("Expected a new row")
	}
}

func TestCheckInUnknownTrip(t *testing.T) {
	f := setupLocation(t)
	input := f.input(12.34, 56.78)
	input.TripID = 9999

	_, err := f.svc.CheckIn(context.Background(), input)
	expectError(t, err, http.StatusNotFound, "Voyage introuvable")
	if f.geocoder.Calls() != 0 {
		t.Errorf("Geocoder must not be called for an unknown trip")
	}
}

func TestGetLatestLocation(t *testing.T) {
	f := setupLocation(t)
	ctx := context.Background()

	if _, err := f.svc.CheckIn(ctx, f.input(12.34, 56.78)); err != nil {
		t.Fatalf("Check-in failed: %v", err)
	}
	f.now = f.now.Add(time.Minute)
	f.geocoder.city = "Latest City"
	if _, err := f.svc.CheckIn(ctx, f.input(45.67, 89.01)); err != nil {
		t.Fatalf("Check-in failed: %v", err)
	}

	latest, err := f.svc.GetLatestLocation(ctx, f.userID, f.tripID)
	if err != nil {
		t.Fatalf("GetLatestLocation failed: %v", err)
	}
	if latest.City != "Latest City" {
		t.Errorf("Expected Latest City, got %s", latest.City)
	}

	_, err = f.svc.GetLatestLocation(ctx, 9999, 9999)
	expectError(t, err, http.StatusNotFound, "Aucune localisation trouvée pour cet utilisateur et ce voyage")
}

func TestListLocations(t *testing.T) {
	f := setupLocation(t)
	ctx := context.Background()

	for i, lat := range []float64{1, 2, 3} {
		f.now = f.now.Add(time.Duration(i) * time.Minute)
		if _, err := f.svc.CheckIn(ctx, f.input(lat, 1)); err != nil {
			t.Fatalf("Check-in failed: %v", err)
		}
	}

	track, err := f.svc.ListTripLocations(ctx, f.tripID)
	if err != nil {
		t.Fatalf("ListTripLocations failed: %v", err)
	}
	if len(track) != 3 || track[0].Latitude != 1 || track[2].Latitude != 3 {
		t.Errorf("Expected track in check-in order, got %+v", track)
	}

	all, err := f.svc.ListAllLocations(ctx)
	if err != nil {
		t.Fatalf("ListAllLocations failed: %v", err)
	}
	if len(all) != 3 || all[0].Latitude != 3 {
		t.Errorf("Expected newest first, got %+v", all)
	}

	other := testutil.CreateUser(t, f.db, "other@example.com", "Eve", "Other")
	otherTrip := testutil.CreateTrip(t, f.db, other.ID, "Other trip", false)
	f.now = f.now.Add(time.Minute)
	if _, err := f.svc.CheckIn(ctx, services.CheckInInput{
		Latitude:  floatPtr(9),
		Longitude: floatPtr(9),
		UserID:    types.FlexUint64(other.ID),
		TripID:    types.FlexUint64(otherTrip.ID),
	}); err != nil {
		t.Fatalf("Check-in failed: %v", err)
	}

	mine, err := f.svc.ListUserLocations(ctx, f.userID)
	if err != nil {
		t.Fatalf("ListUserLocations failed: %v", err)
	}
	if len(mine) != 3 || mine[0].Latitude != 3 {
		t.Errorf("Expected only the user's rows newest first, got %+v", mine)
	}
	for _, loc := range mine {
		if loc.UserID != f.userID {
			t.Errorf("Unexpected row for user %d", loc.UserID)
		}
	}
}

func TestListAllLocationsStoreFailure(t *testing.T) {
	f := setupLocation(t)
	sqlDB, _ := f.db.DB()
	sqlDB.Close()

	_, err := f.svc.ListAllLocations(context.Background())
	expectError(t, err, http.StatusInternalServerError, "Could not retrieve location")
}
