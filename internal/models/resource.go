package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// ResourceModel is a published catalog entry pointing at an external URL.
type ResourceModel struct {
	Base
	Title              string  `json:"title"           gorm:"size:255;not null"`
	Description        *string `json:"description"     gorm:"type:text"`
	DestinationURL     string  `json:"destination_url" gorm:"size:2048;not null"`
	DestinationURLHash string  `json:"-"               gorm:"type:char(64);uniqueIndex;not null"`
	CategoryID         *string `json:"category_id"     gorm:"type:char(36);index"`
	IsPublished        bool    `json:"is_published"    gorm:"not null;default:false"`
	PublishedByID      *string `json:"-"               gorm:"type:char(36);index"`
	ImageFields

	Category    *CategoryModel `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	PublishedBy *UserModel     `json:"-" gorm:"foreignKey:PublishedByID;constraint:OnDelete:SET NULL"`
}

func (ResourceModel) TableName() string { return "resources" }

func (r *ResourceModel) BeforeSave(tx *gorm.DB) error {
	r.DestinationURL = strings.TrimSpace(r.DestinationURL)
	r.DestinationURLHash = URLHash(r.DestinationURL)
	return nil
}

// SubmissionModel is a user-proposed resource waiting for moderation.
type SubmissionModel struct {
	Base
	Title              string  `json:"title"           gorm:"size:255;not null"`
	Description        *string `json:"description"     gorm:"type:text"`
	DestinationURL     string  `json:"destination_url" gorm:"size:2048;not null"`
	DestinationURLHash string  `json:"-"               gorm:"type:char(64);index;not null"`
	CategoryID         *string `json:"category_id"     gorm:"type:char(36);index"`
	Status             string  `json:"status"          gorm:"size:20;index;not null;default:pending"`
	SubmitterID        string  `json:"submitter_id"    gorm:"type:char(36);index;not null"`
	ImageFields

	Category  *CategoryModel `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Submitter *UserModel     `json:"-" gorm:"foreignKey:SubmitterID;constraint:OnDelete:CASCADE"`
}

func (SubmissionModel) TableName() string { return "resource_submissions" }

func (s *SubmissionModel) BeforeSave(tx *gorm.DB) error {
	s.DestinationURL = strings.TrimSpace(s.DestinationURL)
	s.DestinationURLHash = URLHash(s.DestinationURL)
	return nil
}

// URLHash is the indexed digest of a destination URL. MySQL cannot put a
// unique index on a 2048 character utf8mb4 column.
func URLHash(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

// LikeModel records that a user liked a resource.
type LikeModel struct {
	UserID     string `gorm:"type:char(36);primaryKey"`
	ResourceID string `gorm:"type:char(36);primaryKey;index"`
	CreatedAt  time.Time

	User     *UserModel     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Resource *ResourceModel `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE"`
}

func (LikeModel) TableName() string { return "resource_likes" }

// FavoriteModel records that a user saved a resource.
type FavoriteModel struct {
	UserID     string `gorm:"type:char(36);primaryKey"`
	ResourceID string `gorm:"type:char(36);primaryKey;index"`
	CreatedAt  time.Time

	User     *UserModel     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Resource *ResourceModel `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE"`
}

func (FavoriteModel) TableName() string { return "resource_favorites" }
