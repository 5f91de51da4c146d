package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/testutil"
	"github.com/localnerve/myway-api/internal/types"
)

func flexDate(t *testing.T, s string) *types.FlexTime {
	t.Helper()
	parsed, err := types.ParseFlexTime(s)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", s, err)
	}
	return &types.FlexTime{Time: parsed}
}

// TestCreateTrip tests trip creation and its required fields
func TestCreateTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")

	trip, err := services.CreateTrip(db, services.TripInput{
		Name:      "  Italie  ",
		Summary:   "Road trip",
		StartDate: flexDate(t, "2024-05-01"),
		Country:   "Italie",
		UserID:    types.FlexUint64(user.ID),
	})
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	if trip.ID == 0 || trip.Name != "Italie" {
		t.Errorf("Unexpected trip: %+v", trip)
	}
	if trip.EndDate != nil {
		t.Errorf("Expected an open-ended trip")
	}
	if trip.IsPublic {
		t.Errorf("Trips must be private by default")
	}

	// Missing summary
	_, err = services.CreateTrip(db, services.TripInput{
		Name:      "Incomplete",
		StartDate: flexDate(t, "2024-05-01"),
		Country:   "Italie",
		UserID:    types.FlexUint64(user.ID),
	})
	expectError(t, err, http.StatusBadRequest, "Les champs obligatoires sont manquants")

	// End before start
	_, err = services.CreateTrip(db, services.TripInput{
		Name:      "Backwards",
		Summary:   "Nope",
		StartDate: flexDate(t, "2024-05-10"),
		EndDate:   flexDate(t, "2024-05-01"),
		Country:   "Italie",
		UserID:    types.FlexUint64(user.ID),
	})
	expectError(t, err, http.StatusBadRequest, "")

	// Unknown owner
	_, err = services.CreateTrip(db, services.TripInput{
		Name:      "Ghost",
		Summary:   "Nobody",
		StartDate: flexDate(t, "2024-05-01"),
		Country:   "Italie",
		UserID:    9999,
	})
	expectError(t, err, http.StatusNotFound, "Utilisateur introuvable")
}

// TestUpdateTrip tests partial updates and the flat error message
func TestUpdateTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")
	trip := testutil.CreateTrip(t, db, user.ID, "Original", false)

	updated, err := services.UpdateTrip(db, trip.ID, services.TripUpdate{
		Name:     strPtr("Renamed"),
		IsPublic: func() *bool { b := true; return &b }(),
	})
	if err != nil {
		t.Fatalf("UpdateTrip failed: %v", err)
	}
	if updated.Name != "Renamed" || !updated.IsPublic {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.Summary != trip.Summary || updated.Country != trip.Country {
		t.Errorf("Unspecified fields must be kept: %+v", updated)
	}

	cleared, err := services.UpdateTrip(db, trip.ID, services.TripUpdate{ClearEndDate: true})
	if err != nil {
		t.Fatalf("UpdateTrip clear end failed: %v", err)
	}
	if cleared.EndDate != nil {
		t.Errorf("Expected end date to be cleared, got %v", cleared.EndDate)
	}

	_, err = services.UpdateTrip(db, trip.ID, services.TripUpdate{EndDate: flexDate(t, "2023-12-31")})
	expectError(t, err, http.StatusBadRequest, "Erreur lors de la mise à jour du voyage")

	_, err = services.UpdateTrip(db, 9999, services.TripUpdate{Name: strPtr("Nope")})
	expectError(t, err, http.StatusNotFound, "Erreur lors de la mise à jour du voyage")
}

// TestListUserTrips tests that other viewers only see public trips
func TestListUserTrips(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")
	viewer := testutil.CreateUser(t, db, "viewer@example.com", "Bob", "Viewer")
	testutil.CreateTrip(t, db, owner.ID, "Public", true)
	private := testutil.CreateTrip(t, db, owner.ID, "Private", false)

	own, err := services.ListUserTrips(db, owner.ID, owner.ID)
	if err != nil {
		t.Fatalf("ListUserTrips failed: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("Owner should see 2 trips, got %d", len(own))
	}

	shared, err := services.ListUserTrips(db, owner.ID, viewer.ID)
	if err != nil {
		t.Fatalf("ListUserTrips failed: %v", err)
	}
	if len(shared) != 1 || shared[0].Name != "Public" {
		t.Errorf("Viewer should only see the public trip, got %+v", shared)
	}

	_, err = services.GetVisibleTrip(db, private.ID, viewer.ID)
	expectError(t, err, http.StatusNotFound, "Voyage introuvable")
	if _, err := services.GetVisibleTrip(db, private.ID, owner.ID); err != nil {
		t.Errorf("Owner should see the private trip: %v", err)
	}
}

// TestGetSharedTrip tests the public trip view with steps and photo references
func TestGetSharedTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")
	public := testutil.CreateTrip(t, db, owner.ID, "Public", true)
	private := testutil.CreateTrip(t, db, owner.ID, "Private", false)
	testutil.CreateStep(t, db, public.ID, "Day 1", 2)

	trip, err := services.GetSharedTrip(db, public.ID)
	if err != nil {
		t.Fatalf("GetSharedTrip failed: %v", err)
	}
	if len(trip.Steps) != 1 || len(trip.Steps[0].Photos) != 2 {
		t.Fatalf("Expected 1 step with 2 photos, got %+v", trip.Steps)
	}
	photo := trip.Steps[0].Photos[0]
	if len(photo.Image) != 0 {
		t.Errorf("Shared trip must not load photo binaries")
	}
	if photo.Reference == "" {
		t.Errorf("Expected a photo reference")
	}

	_, err = services.GetSharedTrip(db, private.ID)
	expectError(t, err, http.StatusNotFound, "Voyage introuvable")
}

// TestAuthorizeTripOwner tests ownership checks
func TestAuthorizeTripOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")
	other := testutil.CreateUser(t, db, "other@example.com", "Eve", "Other")
	trip := testutil.CreateTrip(t, db, owner.ID, "Trip", false)

	if err := services.AuthorizeTripOwner(db, trip.ID, owner.ID); err != nil {
		t.Errorf("Owner should be authorized: %v", err)
	}
	expectError(t, services.AuthorizeTripOwner(db, trip.ID, other.ID), http.StatusForbidden, "")
	expectError(t, services.AuthorizeTripOwner(db, 9999, owner.ID), http.StatusNotFound, "Voyage introuvable")
}

// TestDeleteTrip tests id validation, not found and the full cascade
func TestDeleteTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Ada", "Owner")
	trip := testutil.CreateTrip(t, db, owner.ID, "Doomed", false)
	keep := testutil.CreateTrip(t, db, owner.ID, "Kept", false)

	step := testutil.CreateStep(t, db, trip.ID, "Day 1", 2)
	keptStep := testutil.CreateStep(t, db, keep.ID, "Day 1", 1)
	for _, s := range []*models.Step{step, keptStep} {
		if err := db.Create(&models.Comment{UserID: owner.ID, StepID: s.ID, Comment: "Nice"}).Error; err != nil {
			t.Fatalf("Failed to create comment: %v", err)
		}
	}
	if err := db.Create(&models.Location{UserID: owner.ID, TripID: trip.ID, Latitude: 1, Longitude: 2, CreatedAt: time.Now()}).Error; err != nil {
		t.Fatalf("Failed to create location: %v", err)
	}

	_, err := services.DeleteTrip(db, "abc")
	expectError(t, err, http.StatusBadRequest, "Invalid trip ID")

	_, err = services.DeleteTrip(db, "9999")
	expectError(t, err, http.StatusNotFound, "Voyage introuvable")

	result, err := services.DeleteTrip(db, "  "+itoa(trip.ID))
	if err != nil {
		t.Fatalf("DeleteTrip failed: %v", err)
	}
	if result.Message != "Voyage supprimé avec succès" {
		t.Errorf("Unexpected message: %q", result.Message)
	}

	checks := []struct {
		name  string
		model interface{}
		query string
		arg   uint64
		want  int64
	}{
		{"trip", &models.Trip{}, "id = ?", trip.ID, 0},
		{"steps", &models.Step{}, "trip_id = ?", trip.ID, 0},
		{"photos", &models.Photo{}, "step_id = ?", step.ID, 0},
		{"comments", &models.Comment{}, "step_id = ?", step.ID, 0},
		{"locations", &models.Location{}, "trip_id = ?", trip.ID, 0},
		{"other trip", &models.Trip{}, "id = ?", keep.ID, 1},
		{"other photos", &models.Photo{}, "step_id = ?", keptStep.ID, 1},
		{"other comments", &models.Comment{}, "step_id = ?", keptStep.ID, 1},
	}
	for _, c := range checks {
		if n := testutil.CountRows(t, db, c.model, c.query, c.arg); n != c.want {
			t.Errorf("%s: expected %d rows, got %d", c.name, c.want, n)
		}
	}

	_, err = services.GetStep(db, step.ID)
	expectError(t, err, http.StatusNotFound, "Étape introuvable")
	_, _, err = services.GetPhoto(context.Background(), db, nil, step.Photos[0].ID)
	expectError(t, err, http.StatusNotFound, "Photo introuvable")

	_, err = services.DeleteTrip(db, itoa(trip.ID))
	expectError(t, err, http.StatusNotFound, "Voyage introuvable")
}

func TestParseID(t *testing.T) {
	cases := map[string]bool{
		"1":    true,
		" 42 ": true,
		"0":    false,
		"-3":   false,
		"abc":  false,
		"":     false,
		"1.5":  false,
	}
	for raw, ok := range cases {
		if _, got := services.ParseID(raw); got != ok {
			t.Errorf("ParseID(%q): expected %v, got %v", raw, ok, got)
		}
	}
}
