package models

import (
	"time"
)

// Comment is a note left by any authenticated user on a step
type Comment struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64       `gorm:"not null;index" json:"userId"`
	StepID    uint64       `gorm:"not null;index" json:"stepId"`
	Comment   string       `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `gorm:"-" json:"user,omitempty"`
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
