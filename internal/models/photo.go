package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PhotoRoute is the API path prefix photos are served from
const PhotoRoute = "/api/photos"

// Photo belongs exclusively to a step. The binary lives either in Image or,
// when an object store is configured, under StorageKey.
// Clients only ever see the {reference, mimeType} pair.
type Photo struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StepID     uint64    `gorm:"not null;index" json:"stepId"`
	Image      []byte    `json:"-"`
	StorageKey string    `gorm:"size:255" json:"-"`
	MimeType   string    `gorm:"size:100;not null" json:"mimeType"`
	Reference  string    `gorm:"-" json:"reference"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName overrides the table name for Photo
func (Photo) TableName() string {
	return "photos"
}

// AfterFind fills the client facing reference
func (p *Photo) AfterFind(tx *gorm.DB) error {
	p.setReference()
	return nil
}

// AfterCreate fills the client facing reference
func (p *Photo) AfterCreate(tx *gorm.DB) error {
	p.setReference()
	return nil
}

func (p *Photo) setReference() {
	p.Reference = fmt.Sprintf("%s/%d", PhotoRoute, p.ID)
}
