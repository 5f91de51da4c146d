// server_test.go
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

package server_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/config"
	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/server"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/testutil"
	"gorm.io/gorm"
)

type stubGeocoder struct {
	city string
	err  error
}

func (g *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*services.GeocodeResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &services.GeocodeResult{City: g.city, Address: map[string]any{"city": g.city}}, nil
}

type testApp struct {
	app      *fiber.App
	db       *gorm.DB
	tokens   *services.TokenIssuer
	geocoder *stubGeocoder
}

func setupApp(t *testing.T) *testApp {
	return setupAppWithOptions(t, server.Options{})
}

func setupAppWithOptions(t *testing.T, opts server.Options) *testApp {
	db := testutil.NewTestDB(t)
	tokens := services.NewTokenIssuer("test-secret", time.Hour)
	geocoder := &stubGeocoder{city: "Test City"}

	cfg := &config.Config{
		DBType:      "sqlite-pure",
		DBDatabase:  ":memory:",
		JWTSecret:   "test-secret",
		GeocoderURL: "http://127.0.0.1:1",
		PhotoStore:  "db",
	}
	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Tokens:    tokens,
		Locations: services.NewLocationService(db, geocoder),
	}, opts)

	return &testApp{app: app, db: db, tokens: tokens, geocoder: geocoder}
}

// do sends a JSON request as userID (0 for anonymous) and returns the status and raw body
func (a *testApp) do(t *testing.T, method, path string, body interface{}, userID uint64) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := a.tokens.Issue(userID)
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Failed to decode response %s: %v", raw, err)
	}
	return result
}

func id(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// TestProtectedRoutesRequireToken tests the bearer middleware and the error shape
func TestProtectedRoutesRequireToken(t *testing.T) {
	a := setupApp(t)

	status, raw := a.do(t, "GET", "/api/trips/1", nil, 0)
	if status != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", status)
	}
	result := decodeMap(t, raw)
	if result["ok"] != false || result["type"] != "auth" {
		t.Errorf("Unexpected error body: %v", result)
	}

	req := httptest.NewRequest("GET", "/api/trips/1", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad token, got %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	a := setupApp(t)

	status, raw := a.do(t, "GET", "/api/nowhere", nil, 0)
	if status != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", status)
	}
	if msg := decodeMap(t, raw)["message"]; msg != "[404] Resource Not Found" {
		t.Errorf("Unexpected message: %v", msg)
	}
}

// TestRegisterAndAuthenticate tests account creation and login over HTTP
func TestRegisterAndAuthenticate(t *testing.T) {
	a := setupApp(t)

	status, raw := a.do(t, "POST", "/api/users/register", map[string]string{
		"email":     "yabo@example.com",
		"password":  "secret123",
		"firstName": "Vignissi",
		"lastName":  "Yabo",
	}, 0)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	registered := decodeMap(t, raw)
	if registered["token"] == "" || registered["id"] == nil {
		t.Errorf("Expected token and id, got %v", registered)
	}
	if user, ok := registered["user"].(map[string]interface{}); !ok || user["password"] != nil {
		t.Errorf("Password must never be serialized: %v", registered["user"])
	}

	status, raw = a.do(t, "POST", "/api/users/register", map[string]string{"email": "bad"}, 0)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", status)
	}
	if errs, ok := decodeMap(t, raw)["errors"].([]interface{}); !ok || len(errs) == 0 {
		t.Errorf("Expected field errors, got %s", raw)
	}

	status, raw = a.do(t, "POST", "/api/users/auth", map[string]string{
		"email":    "yabo@example.com",
		"password": "secret123",
	}, 0)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	if token, _ := decodeMap(t, raw)["token"].(string); token == "" {
		t.Errorf("Expected a token, got %s", raw)
	}

	status, raw = a.do(t, "POST", "/api/users/auth", map[string]string{
		"email":    "yabo@example.com",
		"password": "wrong",
	}, 0)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
	if msg := decodeMap(t, raw)["message"]; msg != "Email ou mot de passe incorrect" {
		t.Errorf("Unexpected message: %v", msg)
	}
}

// TestTripOwnership tests that only the owner may change or delete a trip
func TestTripOwnership(t *testing.T) {
	a := setupApp(t)
	owner := testutil.CreateUser(t, a.db, "owner@example.com", "Ada", "Owner")
	other := testutil.CreateUser(t, a.db, "other@example.com", "Eve", "Other")

	status, raw := a.do(t, "POST", "/api/trips", map[string]interface{}{
		"name":      "Bénin",
		"summary":   "Cotonou et Ouidah",
		"startDate": "2024-02-01",
		"country":   "Bénin",
		"userId":    id(owner.ID),
	}, owner.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	tripID := uint64(decodeMap(t, raw)["id"].(float64))

	status, _ = a.do(t, "POST", "/api/trips", map[string]interface{}{
		"name":      "Forged",
		"summary":   "Someone else's",
		"startDate": "2024-02-01",
		"country":   "Bénin",
		"userId":    owner.ID,
	}, other.ID)
	if status != http.StatusForbidden {
		t.Errorf("Creating for another user: expected 403, got %d", status)
	}

	status, _ = a.do(t, "PUT", "/api/trips/"+id(tripID), map[string]interface{}{"name": "Hijack"}, other.ID)
	if status != http.StatusForbidden {
		t.Errorf("Update by another user: expected 403, got %d", status)
	}
	status, _ = a.do(t, "DELETE", "/api/trips/"+id(tripID), nil, other.ID)
	if status != http.StatusForbidden {
		t.Errorf("Delete by another user: expected 403, got %d", status)
	}

	status, raw = a.do(t, "PUT", "/api/trips/"+id(tripID), map[string]interface{}{"isPublic": true}, owner.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	if decodeMap(t, raw)["isPublic"] != true {
		t.Errorf("Expected trip to be public: %s", raw)
	}

	status, raw = a.do(t, "DELETE", "/api/trips/abc", nil, owner.ID)
	if status != http.StatusBadRequest || decodeMap(t, raw)["message"] != "Invalid trip ID" {
		t.Errorf("Expected 400 Invalid trip ID, got %d: %s", status, raw)
	}

	status, raw = a.do(t, "DELETE", "/api/trips/"+id(tripID), nil, owner.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	if msg := decodeMap(t, raw)["message"]; msg != "Voyage supprimé avec succès" {
		t.Errorf("Unexpected message: %v", msg)
	}

	status, _ = a.do(t, "DELETE", "/api/trips/"+id(tripID), nil, owner.ID)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", status)
	}
}

// TestStepAndPhotoRoutes tests step creation with inline photos and photo retrieval
func TestStepAndPhotoRoutes(t *testing.T) {
	a := setupApp(t)
	owner := testutil.CreateUser(t, a.db, "owner@example.com", "Ada", "Owner")
	trip := testutil.CreateTrip(t, a.db, owner.ID, "Trip", false)
	photo := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testutil.PNG)

	status, raw := a.do(t, "POST", "/api/steps", map[string]interface{}{
		"tripId":      trip.ID,
		"stepDate":    "2024-01-02T09:30:00Z",
		"name":        "Cotonou",
		"description": "Marché Dantokpa",
		"photos":      []string{photo, photo},
	}, owner.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	created := decodeMap(t, raw)
	if created["success"] != true {
		t.Errorf("Expected success, got %v", created)
	}
	step := created["step"].(map[string]interface{})
	stepID := uint64(step["id"].(float64))
	photos := step["photos"].([]interface{})
	if len(photos) != 2 {
		t.Fatalf("Expected 2 photos, got %d", len(photos))
	}
	reference := photos[0].(map[string]interface{})["reference"].(string)

	status, _ = a.do(t, "GET", reference, nil, 0)
	if status != http.StatusNotFound {
		t.Errorf("Expected a private trip's photo to be hidden from anonymous callers, got %d", status)
	}

	req := httptest.NewRequest("GET", reference, nil)
	token, err := a.tokens.Issue(owner.ID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to fetch photo: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("Unexpected photo response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.HasPrefix(cc, "private") {
		t.Errorf("Expected a private cache scope for an authenticated read, got %q", cc)
	}

	status, raw = a.do(t, "PUT", "/api/steps/"+id(stepID), map[string]interface{}{
		"photos": []string{photo, reference},
	}, owner.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	updated := decodeMap(t, raw)["step"].(map[string]interface{})
	if n := len(updated["photos"].([]interface{})); n != 3 {
		t.Errorf("Expected 3 photos after append, got %d", n)
	}

	other := testutil.CreateUser(t, a.db, "other@example.com", "Eve", "Other")
	status, _ = a.do(t, "DELETE", "/api/steps/"+id(stepID), nil, other.ID)
	if status != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", status)
	}

	status, raw = a.do(t, "DELETE", "/api/steps/"+id(stepID), nil, owner.ID)
	if status != http.StatusOK || decodeMap(t, raw)["message"] != "Étape supprimée avec succès" {
		t.Errorf("Unexpected delete response %d: %s", status, raw)
	}
	if n := testutil.CountRows(t, a.db, &models.Photo{}, ""); n != 0 {
		t.Errorf("Expected photos to be deleted, got %d", n)
	}
}

// TestCheckInRoutes tests the check-in flow and location reads
func TestCheckInRoutes(t *testing.T) {
	a := setupApp(t)
	user := testutil.CreateUser(t, a.db, "yabo@example.com", "Vignissi", "Yabo")
	trip := testutil.CreateTrip(t, a.db, user.ID, "Trip", true)
	body := map[string]interface{}{
		"latitude":  12.34,
		"longitude": 56.78,
		"userId":    id(user.ID),
		"tripId":    trip.ID,
	}

	status, raw := a.do(t, "POST", "/api/location", body, user.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	first := decodeMap(t, raw)
	if first["message"] != "Localisation enregistrée" {
		t.Errorf("Unexpected message: %v", first["message"])
	}
	if loc, ok := first["location"].(map[string]interface{}); !ok || loc["city"] != "Test City" {
		t.Errorf("Unexpected location: %v", first["location"])
	}

	status, raw = a.do(t, "POST", "/api/location", body, user.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	second := decodeMap(t, raw)
	if second["message"] != "Vous êtes toujours à Test City" || second["city"] != "Test City" {
		t.Errorf("Unexpected reuse response: %v", second)
	}

	status, raw = a.do(t, "GET", "/api/location/"+id(user.ID)+"/"+id(trip.ID), nil, user.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	if _, ok := decodeMap(t, raw)["location"].(map[string]interface{}); !ok {
		t.Errorf("Expected a location object, got %s", raw)
	}

	status, raw = a.do(t, "GET", "/api/location/trip/"+id(trip.ID), nil, user.ID)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	var track []map[string]interface{}
	if err := json.Unmarshal(raw, &track); err != nil || len(track) != 1 {
		t.Errorf("Expected a single point track, got %s", raw)
	}

	status, raw = a.do(t, "GET", "/api/location/"+id(user.ID)+"/9999", nil, user.ID)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", status, raw)
	}
}

func TestCheckInErrors(t *testing.T) {
	a := setupApp(t)
	user := testutil.CreateUser(t, a.db, "yabo@example.com", "Vignissi", "Yabo")
	other := testutil.CreateUser(t, a.db, "other@example.com", "Eve", "Other")
	trip := testutil.CreateTrip(t, a.db, user.ID, "Trip", true)

	status, raw := a.do(t, "POST", "/api/location", map[string]interface{}{"latitude": 1.0}, user.ID)
	if status != http.StatusBadRequest || decodeMap(t, raw)["message"] != "Paramètres manquants" {
		t.Errorf("Expected 400 Paramètres manquants, got %d: %s", status, raw)
	}

	status, _ = a.do(t, "POST", "/api/location", map[string]interface{}{
		"latitude": 1.0, "longitude": 2.0, "userId": user.ID, "tripId": trip.ID,
	}, other.ID)
	if status != http.StatusForbidden {
		t.Errorf("Checking in for another user: expected 403, got %d", status)
	}

	a.geocoder.err = errors.New("API Error")
	status, raw = a.do(t, "POST", "/api/location", map[string]interface{}{
		"latitude": 1.0, "longitude": 2.0, "userId": user.ID, "tripId": trip.ID,
	}, user.ID)
	if status != http.StatusInternalServerError || decodeMap(t, raw)["message"] != "Erreur serveur" {
		t.Errorf("Expected 500 Erreur serveur, got %d: %s", status, raw)
	}
	if n := testutil.CountRows(t, a.db, &models.Location{}, ""); n != 0 {
		t.Errorf("Expected no location rows, got %d", n)
	}
}

// TestCommentRoutes tests that reads are public and writes belong to the author
func TestCommentRoutes(t *testing.T) {
	a := setupApp(t)
	owner := testutil.CreateUser(t, a.db, "owner@example.com", "Ada", "Owner")
	friend := testutil.CreateUser(t, a.db, "friend@example.com", "Bob", "Friend")
	trip := testutil.CreateTrip(t, a.db, owner.ID, "Trip", true)
	step := testutil.CreateStep(t, a.db, trip.ID, "Day 1", 0)

	status, raw := a.do(t, "POST", "/api/comments", map[string]interface{}{
		"stepId":  step.ID,
		"comment": "Superbe",
	}, friend.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	commentID := uint64(decodeMap(t, raw)["id"].(float64))

	status, raw = a.do(t, "GET", "/api/comments/step/"+id(step.ID), nil, 0)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	var comments []map[string]interface{}
	if err := json.Unmarshal(raw, &comments); err != nil || len(comments) != 1 {
		t.Errorf("Expected 1 comment, got %s", raw)
	}

	status, _ = a.do(t, "DELETE", "/api/comments/"+id(commentID), nil, owner.ID)
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for a non-author, got %d", status)
	}
	status, _ = a.do(t, "DELETE", "/api/comments/"+id(commentID), nil, friend.ID)
	if status != http.StatusOK {
		t.Errorf("Expected 200 for the author, got %d", status)
	}
	status, _ = a.do(t, "DELETE", "/api/comments/"+id(commentID), nil, friend.ID)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for a deleted comment, got %d", status)
	}
}

// TestPrivateTripReadsAreHidden tests that a private trip's track, photos and
// comments look missing to anyone but the owner
func TestPrivateTripReadsAreHidden(t *testing.T) {
	a := setupApp(t)
	owner := testutil.CreateUser(t, a.db, "owner@example.com", "Ada", "Owner")
	other := testutil.CreateUser(t, a.db, "other@example.com", "Eve", "Other")
	trip := testutil.CreateTrip(t, a.db, owner.ID, "Secret", false)
	step := testutil.CreateStep(t, a.db, trip.ID, "Day 1", 1)

	status, raw := a.do(t, "POST", "/api/location", map[string]interface{}{
		"latitude": 1.5, "longitude": 2.5, "userId": owner.ID, "tripId": trip.ID,
	}, owner.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	status, raw = a.do(t, "POST", "/api/comments", map[string]interface{}{
		"stepId": step.ID, "comment": "private note",
	}, owner.ID)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, raw)
	}
	commentID := id(uint64(decodeMap(t, raw)["id"].(float64)))

	var photo models.Photo
	if err := a.db.Where("step_id = ?", step.ID).First(&photo).Error; err != nil {
		t.Fatalf("Failed to load photo: %v", err)
	}

	paths := []string{
		"/api/location/" + id(owner.ID) + "/" + id(trip.ID),
		"/api/location/trip/" + id(trip.ID),
		"/api/photos/" + id(photo.ID),
		"/api/comments/step/" + id(step.ID),
		"/api/comments/" + commentID,
	}
	for _, path := range paths {
		status, raw := a.do(t, "GET", path, nil, other.ID)
		if status != http.StatusNotFound {
			t.Errorf("GET %s as another user: expected 404, got %d: %s", path, status, raw)
		}
		if strings.Contains(string(raw), "private note") || strings.Contains(string(raw), "Test City") {
			t.Errorf("GET %s leaked private data: %s", path, raw)
		}
		if strings.HasPrefix(path, "/api/photos/") || strings.HasPrefix(path, "/api/comments/") {
			if status, _ := a.do(t, "GET", path, nil, 0); status != http.StatusNotFound {
				t.Errorf("GET %s anonymously: expected 404, got %d", path, status)
			}
		}
		if status, raw := a.do(t, "GET", path, nil, owner.ID); status != http.StatusOK {
			t.Errorf("GET %s as the owner: expected 200, got %d: %s", path, status, raw)
		}
	}

	status, raw = a.do(t, "POST", "/api/comments", map[string]interface{}{
		"stepId": step.ID, "comment": "hello",
	}, other.ID)
	if status != http.StatusNotFound {
		t.Errorf("Commenting on a hidden step: expected 404, got %d: %s", status, raw)
	}

	// Going public opens the reads
	if err := a.db.Model(&models.Trip{}).Where("id = ?", trip.ID).Update("is_public", true).Error; err != nil {
		t.Fatalf("Failed to publish trip: %v", err)
	}
	for _, path := range paths {
		if status, raw := a.do(t, "GET", path, nil, other.ID); status != http.StatusOK {
			t.Errorf("GET %s on a public trip: expected 200, got %d: %s", path, status, raw)
		}
	}
	if status, _ := a.do(t, "GET", "/api/comments/step/"+id(step.ID), nil, 0); status != http.StatusOK {
		t.Errorf("Anonymous comment read on a public trip: expected 200, got %d", status)
	}
}

// TestListLocations tests that the listing is limited to the caller unless every row is exposed
func TestListLocations(t *testing.T) {
	for _, listAll := range []bool{false, true} {
		a := setupAppWithOptions(t, server.Options{ListAllLocations: listAll})
		ada := testutil.CreateUser(t, a.db, "ada@example.com", "Ada", "One")
		bob := testutil.CreateUser(t, a.db, "bob@example.com", "Bob", "Two")
		for i, user := range []*models.User{ada, bob} {
			trip := testutil.CreateTrip(t, a.db, user.ID, "Trip", false)
			status, raw := a.do(t, "POST", "/api/location", map[string]interface{}{
				"latitude": float64(i), "longitude": 3.0, "userId": user.ID, "tripId": trip.ID,
			}, user.ID)
			if status != http.StatusCreated {
				t.Fatalf("Expected 201, got %d: %s", status, raw)
			}
		}

		status, raw := a.do(t, "GET", "/api/location", nil, bob.ID)
		if status != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", status, raw)
		}
		var rows []map[string]interface{}
		if err := json.Unmarshal(raw, &rows); err != nil {
			t.Fatalf("Failed to decode %s: %v", raw, err)
		}

		want := 1
		if listAll {
			want = 2
		}
		if len(rows) != want {
			t.Errorf("listAll=%v: expected %d rows, got %d", listAll, want, len(rows))
		}
		if !listAll && len(rows) == 1 && uint64(rows[0]["userId"].(float64)) != bob.ID {
			t.Errorf("Expected only the caller's rows, got %v", rows[0])
		}
	}
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	status, raw := a.do(t, "GET", "/api/health", nil, 0)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, raw)
	}
	result := decodeMap(t, raw)
	if result["database"] != "ok" {
		t.Errorf("Expected database ok, got %v", result)
	}
	if result["status"] != "degraded" || result["geocoder"] != "unreachable" {
		t.Errorf("Expected a degraded status with no geocoder, got %v", result)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()
	healthy := setupApp(t)
	healthy.app = server.New(server.Deps{
		Config: &config.Config{DBType: "sqlite-pure", GeocoderURL: "http://" + listener.Addr().String()},
		DB:     healthy.db,
		Tokens: healthy.tokens,
	}, server.Options{})
	status, raw = healthy.do(t, "GET", "/api/health", nil, 0)
	if status != http.StatusOK || decodeMap(t, raw)["status"] != "healthy" {
		t.Errorf("Expected healthy, got %d: %s", status, raw)
	}
}
