package models

import (
	"time"
)

// User is an account that owns trips and writes comments
type User struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password         string    `gorm:"size:255;not null" json:"-"`
	FirstName        string    `gorm:"size:100;not null;index" json:"firstName"`
	LastName         string    `gorm:"size:100;not null;index" json:"lastName"`
	Address          string    `gorm:"size:255" json:"address"`
	ProfilePhoto     []byte    `json:"-"`
	ProfilePhotoMime string    `gorm:"size:100" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Trips            []Trip    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserSummary is the public subset of a user embedded in other payloads
type UserSummary struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
