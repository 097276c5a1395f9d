// Package dbtest wires go-sqlmock under the gorm MySQL dialector for
// service and handler tests.
package dbtest

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ai-resource-hub/server/internal/models"
)

// New returns a gorm handle backed by sqlmock. Expectations are checked
// when the test ends.
func New(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db, mock
}

var userColumns = []string{
	"id", "email", "is_active", "is_superuser", "full_name", "hashed_password", "locale",
	"avatar_key", "avatar_version", "avatar_content_type", "avatar_updated_at", "created_at", "updated_at",
}

// UserRows renders users as a result set for SELECTs on the users table.
func UserRows(users ...models.UserModel) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		rows.AddRow(
			u.ID, u.Email, u.IsActive, u.IsSuperuser, nullString(u.FullName), u.HashedPassword, orDefault(u.Locale, models.LocaleEN),
			nullString(u.AvatarKey), u.AvatarVersion, nullString(u.AvatarContentType), nullTime(u.AvatarUpdatedAt),
			orTime(u.CreatedAt), orTime(u.UpdatedAt),
		)
	}
	return rows
}

var imageColumns = []string{"image_external_url", "image_key", "image_version", "image_content_type", "image_updated_at"}

var resourceColumns = append([]string{
	"id", "title", "description", "destination_url", "destination_url_hash", "category_id",
	"is_published", "published_by_id", "created_at", "updated_at",
}, imageColumns...)

// ResourceRows renders resources as a result set for SELECTs on resources.
func ResourceRows(resources ...models.ResourceModel) *sqlmock.Rows {
	rows := sqlmock.NewRows(resourceColumns)
	for _, r := range resources {
		rows.AddRow(
			r.ID, r.Title, nullString(r.Description), r.DestinationURL, models.URLHash(r.DestinationURL), nullString(r.CategoryID),
			r.IsPublished, nullString(r.PublishedByID), orTime(r.CreatedAt), orTime(r.UpdatedAt),
			nullString(r.ImageExternalURL), nullString(r.ImageKey), r.ImageVersion, nullString(r.ImageContentType), nullTime(r.ImageUpdatedAt),
		)
	}
	return rows
}

var submissionColumns = append([]string{
	"id", "title", "description", "destination_url", "destination_url_hash", "category_id",
	"status", "submitter_id", "created_at", "updated_at",
}, imageColumns...)

// SubmissionRows renders submissions as a result set.
func SubmissionRows(subs ...models.SubmissionModel) *sqlmock.Rows {
	rows := sqlmock.NewRows(submissionColumns)
	for _, s := range subs {
		rows.AddRow(
			s.ID, s.Title, nullString(s.Description), s.DestinationURL, models.URLHash(s.DestinationURL), nullString(s.CategoryID),
			orDefault(s.Status, models.SubmissionPending), s.SubmitterID, orTime(s.CreatedAt), orTime(s.UpdatedAt),
			nullString(s.ImageExternalURL), nullString(s.ImageKey), s.ImageVersion, nullString(s.ImageContentType), nullTime(s.ImageUpdatedAt),
		)
	}
	return rows
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

func nullString(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return *t
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return t
}

// AnyArgs returns n sqlmock.AnyArg matchers.
func AnyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}
