package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
type Base struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// ImageFields tracks an optional cover image that is either an external URL or
// an uploaded file addressed by key and version.
type ImageFields struct {
	ImageExternalURL *string    `json:"image_external_url" gorm:"size:2048"`
	ImageKey         *string    `json:"-"                  gorm:"size:255"`
	ImageVersion     int        `json:"image_version"      gorm:"not null;default:0"`
	ImageContentType *string    `json:"-"                  gorm:"size:50"`
	ImageUpdatedAt   *time.Time `json:"-"`
}

// HasUploadedImage reports whether a stored file backs the image.
func (f ImageFields) HasUploadedImage() bool {
	return f.ImageKey != nil && *f.ImageKey != "" && f.ImageContentType != nil && *f.ImageContentType != ""
}

// ClearUpload drops the uploaded file reference without touching the version.
func (f *ImageFields) ClearUpload() {
	f.ImageKey = nil
	f.ImageContentType = nil
	f.ImageUpdatedAt = nil
}
