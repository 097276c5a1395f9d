package category

import (
	"errors"
	"fmt"
)

type CategoryDTO struct {
	Name string `json:"name" binding:"required,max=100"`
}

type Public struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdminItem adds usage counts for the admin listing.
type AdminItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InUse            bool   `json:"in_use"`
	ResourcesCount   int64  `json:"resources_count"`
	SubmissionsCount int64  `json:"submissions_count"`
}

var (
	errBlankName  = errors.New("category name cannot be blank")
	errNameExists = errors.New("category name already exists")
	// errReferenced is a foreign key rejection that beat the usage pre-check.
	errReferenced = errors.New("category referenced")
)

// InUseError reports why a category cannot be deleted.
type InUseError struct {
	Name        string
	Resources   int64
	Submissions int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("Cannot delete category '%s' because it is in use (%d resources, %d submissions)",
		e.Name, e.Resources, e.Submissions)
}
