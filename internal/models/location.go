package models

import (
	"time"
)

// Location is one append-only check-in for a (user, trip) pair.
// The newest row per pair is the current position.
type Location struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_locations_user_trip_created,priority:1" json:"userId"`
	TripID    uint64    `gorm:"not null;index:idx_locations_user_trip_created,priority:2" json:"tripId"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	City      string    `gorm:"size:255" json:"city"`
	Address   JSON      `json:"address,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_locations_user_trip_created,priority:3" json:"createdAt"`
}

// TableName overrides the table name for Location
func (Location) TableName() string {
	return "locations"
}

// SamePoint reports exact coordinate equality
func (l *Location) SamePoint(latitude, longitude float64) bool {
	return l.Latitude == latitude && l.Longitude == longitude
}
