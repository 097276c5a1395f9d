package resource

import (
	"errors"
	"time"

	"github.com/ai-resource-hub/server/internal/models"
)

type CreateDTO struct {
	Title            string  `json:"title"              binding:"required,min=1,max=255"`
	Description      *string `json:"description"        binding:"omitempty,max=10000"`
	DestinationURL   string  `json:"destination_url"    binding:"required,min=1,max=2048"`
	CategoryID       *string `json:"category_id"        binding:"omitempty,max=36"`
	ImageExternalURL *string `json:"image_external_url" binding:"omitempty,max=2048"`
}

// UpdateDTO applies only the fields that are present. An empty category_id
// detaches the category and an empty image_external_url drops the link.
type UpdateDTO struct {
	Title            *string `json:"title"              binding:"omitempty,min=1,max=255"`
	Description      *string `json:"description"        binding:"omitempty,max=10000"`
	DestinationURL   *string `json:"destination_url"    binding:"omitempty,min=1,max=2048"`
	CategoryID       *string `json:"category_id"        binding:"omitempty,max=36"`
	IsPublished      *bool   `json:"is_published"`
	ImageExternalURL *string `json:"image_external_url" binding:"omitempty,max=2048"`
}

// ListFilter narrows GET /resources/. Published is honored for admins only.
type ListFilter struct {
	Query      string
	CategoryID string
	Published  *bool
	Admin      bool
}

type Public struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          *string   `json:"description"`
	DestinationURL       string    `json:"destination_url"`
	CategoryID           *string   `json:"category_id"`
	CategoryName         *string   `json:"category_name"`
	IsPublished          bool      `json:"is_published"`
	PublishedByID        *string   `json:"published_by_id"`
	PublishedByDisplay   *string   `json:"published_by_display"`
	PublishedByAvatarURL *string   `json:"published_by_avatar_url"`
	ImageExternalURL     *string   `json:"image_external_url"`
	ImageURL             *string   `json:"image_url"`
	LikesCount           int64     `json:"likes_count"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type Detail struct {
	Public
	FavoritesCount int64 `json:"favorites_count"`
	LikedByMe      bool  `json:"liked_by_me"`
	FavoritedByMe  bool  `json:"favorited_by_me"`
}

// Reaction is the caller's like or favorite state after a toggle.
type Reaction struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// Entry is a resource with the joined values list views need.
type Entry struct {
	Resource     models.ResourceModel
	CategoryName *string
	LikesCount   int64
}

// DetailEntry adds reaction state and the publisher.
type DetailEntry struct {
	Entry
	FavoritesCount int64
	LikedByMe      bool
	FavoritedByMe  bool
	Publisher      *models.UserModel
}

var (
	// ErrURLExists and ErrCategoryNotFound are shared with the submission flow.
	ErrURLExists        = errors.New("A resource with this destination URL already exists")
	ErrCategoryNotFound = errors.New("Category not found")
)
