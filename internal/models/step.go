package models

import (
	"time"
)

// Step is a dated waypoint within a trip
type Step struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TripID      uint64    `gorm:"not null;index" json:"tripId"`
	StepDate    time.Time `gorm:"not null" json:"stepDate"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Photos      []Photo   `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE" json:"photos"`
	Comments    []Comment `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Step
func (Step) TableName() string {
	return "steps"
}
