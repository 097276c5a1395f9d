package submission

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

type UpdateDTO struct {
	Title            *string `json:"title"              binding:"omitempty,min=1,max=255"`
	Description      *string `json:"description"        binding:"omitempty,max=10000"`
	DestinationURL   *string `json:"destination_url"    binding:"omitempty,min=1,max=2048"`
	CategoryID       *string `json:"category_id"        binding:"omitempty,max=36"`
	ImageExternalURL *string `json:"image_external_url" binding:"omitempty,max=2048"`
}

type Public struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	DestinationURL   string    `json:"destination_url"`
	CategoryID       *string   `json:"category_id"`
	CategoryName     *string   `json:"category_name"`
	Status           string    `json:"status"`
	SubmitterID      string    `json:"submitter_id"`
	ImageExternalURL *string   `json:"image_external_url"`
	ImageURL         *string   `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Entry is a submission with its category name.
type Entry struct {
	Submission   models.SubmissionModel
	CategoryName *string
}

// StateError rejects an operation the submission's status does not allow.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

const (
	msgUpdateNotPending  = "Cannot update a submission that is not pending"
	msgDeleteNotPending  = "Cannot delete a submission that is not pending"
	msgImageNotPending   = "Cannot modify images on a submission that is not pending"
	msgApproveNotPending = "Only pending submissions can be approved"
	msgRejectNotPending  = "Only pending submissions can be rejected"
)

var (
	errNotOwner         = errors.New("Not enough permissions")
	errPendingDuplicate = errors.New("You already have a pending submission for this URL")
)
