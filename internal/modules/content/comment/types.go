package comment

import (
	"errors"
	"time"
)

// Kind selects which comment table a call works on.
type Kind int

const (
	OnResource Kind = iota
	OnSubmission
)

type CreateDTO struct {
	Body string `json:"body" binding:"required,min=1,max=2048"`
}

type UpdateDTO struct {
	Body *string `json:"body" binding:"omitempty,min=1,max=2048"`
}

// Public is a comment with its author's display name. Exactly one of
// ResourceID and SubmissionID is set.
type Public struct {
	ID            string    `json:"id"`
	Body          string    `json:"body"`
	AuthorID      string    `json:"author_id"`
	AuthorDisplay *string   `json:"author_display"`
	ResourceID    string    `json:"resource_id,omitempty"`
	SubmissionID  string    `json:"submission_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var errNotAuthor = errors.New("not the comment author")
