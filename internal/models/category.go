package models

import "strings"

// CategoryModel classifies resources and submissions. NameKey holds the
// lower-cased name so uniqueness ignores case on every collation.
type CategoryModel struct {
	Base
	Name    string `json:"name" gorm:"size:100;not null"`
	NameKey string `json:"-"    gorm:"size:100;uniqueIndex;not null"`
}

func (CategoryModel) TableName() string { return "categories" }

// CategoryKey normalizes a category name for uniqueness checks.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
