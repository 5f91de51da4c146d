package models

import (
	"time"
)

// Trip is the top-level journal aggregate; steps and check-ins belong to a trip.
// EndDate is nil while the trip is open-ended.
type Trip struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Summary   string     `gorm:"type:text;not null" json:"summary"`
	StartDate time.Time  `gorm:"not null" json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Country   string     `gorm:"size:100;not null" json:"country"`
	UserID    uint64     `gorm:"not null;index" json:"userId"`
	IsPublic  bool       `gorm:"not null;default:false" json:"isPublic"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Steps     []Step     `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	Locations []Location `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Trip
func (Trip) TableName() string {
	return "trips"
}

// Contains reports whether t falls inside [StartDate, EndDate]. An open-ended trip never expires.
func (trip *Trip) Contains(t time.Time) bool {
	if t.Before(trip.StartDate) {
		return false
	}
	return trip.EndDate == nil || !t.After(*trip.EndDate)
}
