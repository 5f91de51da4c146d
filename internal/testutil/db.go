package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/myway-api/internal/database"
	"github.com/localnerve/myway-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database. The pool is pinned to one
// connection so every query sees the same memory database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// CreateUser inserts a user whose password is "password123"
func CreateUser(t testing.TB, db *gorm.DB, email, firstName, lastName string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: firstName,
		LastName:  lastName,
		Address:   "123 Rue Test",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateTrip inserts a trip from 2024-01-01 to 2024-01-10 owned by userID
func CreateTrip(t testing.TB, db *gorm.DB, userID uint64, name string, public bool) *models.Trip {
	t.Helper()

	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{
		Name:      name,
		Summary:   "A trip for testing",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Country:   "France",
		UserID:    userID,
		IsPublic:  public,
	}
	if err := db.Create(trip).Error; err != nil {
		t.Fatalf("Failed to create trip: %v", err)
	}
	return trip
}

// CreateStep inserts a step with the given number of inline photos
func CreateStep(t testing.TB, db *gorm.DB, tripID uint64, name string, photos int) *models.Step {
	t.Helper()

	step := &models.Step{
		TripID:      tripID,
		StepDate:    time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Name:        name,
		Description: "Description for " + name,
	}
	if err := db.Create(step).Error; err != nil {
		t.Fatalf("Failed to create step: %v", err)
	}
	for i := 0; i < photos; i++ {
		photo := &models.Photo{StepID: step.ID, Image: PNG, MimeType: "image/png"}
		if err := db.Create(photo).Error; err != nil {
			t.Fatalf("Failed to create photo: %v", err)
		}
		step.Photos = append(step.Photos, *photo)
	}
	return step
}

// CountRows counts rows of model matching the optional condition
func CountRows(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}

// PNG is a 1x1 transparent PNG
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
