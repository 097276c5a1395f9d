package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-resource-hub/server/internal/database/dbtest"
	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/content/comment"
	"github.com/ai-resource-hub/server/internal/modules/content/resource"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc/imagetest"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	owner     = &models.UserModel{Base: models.Base{ID: "u1"}, Email: "u1@example.com", IsActive: true}
	stranger  = &models.UserModel{Base: models.Base{ID: "u2"}, Email: "u2@example.com", IsActive: true}
	moderator = &models.UserModel{Base: models.Base{ID: "admin"}, Email: "admin@example.com", IsActive: true, IsSuperuser: true}
)

type fixture struct {
	router      *gin.Engine
	mock        sqlmock.Sqlmock
	submissions *storage.LocalStore
	resources   *storage.LocalStore
}

func newFixture(t *testing.T, current *models.UserModel) *fixture {
	t.Helper()
	db, mock := dbtest.New(t)
	subFiles, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	resFiles, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	auth := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, current)
		c.Set(middleware.ContextKeyUserID, current.ID)
		c.Next()
	}
	r := gin.New()
	h := NewHandler(
		NewService(db, subFiles, resource.NewService(db, resFiles, nil), nil),
		comment.NewService(db), "/api/v1",
		imageproc.Options{MaxBytes: 1 << 20, MaxDimension: 4096, OutputSize: 100},
	)
	h.RegisterRoutes(r.Group("/api/v1"), auth)
	return &fixture{router: r, mock: mock, submissions: subFiles, resources: resFiles}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func pending(id string) models.SubmissionModel {
	return models.SubmissionModel{
		Base:           models.Base{ID: id},
		Title:          "Agents course",
		DestinationURL: "https://course.example",
		Status:         models.SubmissionPending,
		SubmitterID:    "u1",
	}
}

func withUpload(s models.SubmissionModel, version int) models.SubmissionModel {
	s.ImageKey = dbtest.Str(s.ID + ".jpg")
	s.ImageContentType = dbtest.Str("image/jpeg")
	s.ImageVersion = version
	return s
}

func (f *fixture) expectLoad(sub models.SubmissionModel) {
	f.mock.ExpectQuery("SELECT \\* FROM `resource_submissions` WHERE id = \\?").
		WithArgs(sub.ID, 1).
		WillReturnRows(dbtest.SubmissionRows(sub))
}

func (f *fixture) expectResourceURL(taken bool) {
	n := 0
	if taken {
		n = 1
	}
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resources` WHERE destination_url_hash = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Public {
	t.Helper()
	var out Public
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreatePending(t *testing.T) {
	f := newFixture(t, owner)
	f.expectResourceURL(false)
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resource_submissions` WHERE submitter_id = \\? AND destination_url_hash = \\? AND status = \\?").
		WithArgs("u1", models.URLHash("https://course.example"), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectExec("INSERT INTO `resource_submissions`").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := f.do(http.MethodPost, "/api/v1/submissions/", map[string]string{
		"title": "Agents course", "destination_url": "https://course.example",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "u1", out.SubmitterID)
	assert.Nil(t, out.ImageURL)
}

func TestCreateExistingResourceURL(t *testing.T) {
	f := newFixture(t, owner)
	f.expectResourceURL(true)

	rec := f.do(http.MethodPost, "/api/v1/submissions/", map[string]string{
		"title": "x", "destination_url": "https://course.example",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "A resource with this destination URL already exists")
}

func TestCreateDuplicatePending(t *testing.T) {
	f := newFixture(t, owner)
	f.expectResourceURL(false)
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resource_submissions`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rec := f.do(http.MethodPost, "/api/v1/submissions/", map[string]string{
		"title": "x", "destination_url": "https://course.example",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "You already have a pending submission for this URL")
}

func TestCreateRejectsBadImageURL(t *testing.T) {
	f := newFixture(t, owner)

	rec := f.do(http.MethodPost, "/api/v1/submissions/", map[string]string{
		"title": "x", "destination_url": "https://course.example", "image_external_url": "https://",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid host")
}

func TestGetHiddenFromStrangers(t *testing.T) {
	f := newFixture(t, stranger)
	f.expectLoad(pending("s1"))

	rec := f.do(http.MethodGet, "/api/v1/submissions/s1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMissing(t *testing.T) {
	f := newFixture(t, owner)
	f.mock.ExpectQuery("SELECT \\* FROM `resource_submissions` WHERE id = \\?").WillReturnRows(dbtest.SubmissionRows())

	rec := f.do(http.MethodGet, "/api/v1/submissions/s9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Submission not found")
}

func TestModeratorCanView(t *testing.T) {
	f := newFixture(t, moderator)
	sub := withUpload(pending("s1"), 2)
	f.expectLoad(sub)

	rec := f.do(http.MethodGet, "/api/v1/submissions/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/v1/submission-images/s1?v=2", *decode(t, rec).ImageURL)
}

func TestUpdateRules(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		f := newFixture(t, stranger)
		f.expectLoad(pending("s1"))
		rec := f.do(http.MethodPut, "/api/v1/submissions/s1", map[string]string{"title": "y"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("not pending", func(t *testing.T) {
		f := newFixture(t, owner)
		sub := pending("s1")
		sub.Status = models.SubmissionApproved
		f.expectLoad(sub)
		rec := f.do(http.MethodPut, "/api/v1/submissions/s1", map[string]string{"title": "y"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cannot update a submission that is not pending")
	})
}

func TestUpdateExternalURLResetsUpload(t *testing.T) {
	f := newFixture(t, owner)
	require.NoError(t, f.submissions.Put(context.Background(), "s1.jpg", []byte("old"), "image/jpeg"))
	f.expectLoad(withUpload(pending("s1"), 3))
	f.mock.ExpectExec("UPDATE `resource_submissions` SET").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodPut, "/api/v1/submissions/s1", map[string]string{"image_external_url": "https://img.example/c.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://img.example/c.png", *decode(t, rec).ImageURL)

	ok, err := f.submissions.Exists(context.Background(), "s1.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeletePending(t *testing.T) {
	f := newFixture(t, owner)
	require.NoError(t, f.submissions.Put(context.Background(), "s1.jpg", []byte("old"), "image/jpeg"))
	f.expectLoad(withUpload(pending("s1"), 1))
	f.mock.ExpectExec("DELETE FROM `resource_submissions`").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodDelete, "/api/v1/submissions/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Submission deleted successfully"}`, rec.Body.String())

	ok, err := f.submissions.Exists(context.Background(), "s1.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRejectedNotAllowed(t *testing.T) {
	f := newFixture(t, owner)
	sub := pending("s1")
	sub.Status = models.SubmissionRejected
	f.expectLoad(sub)

	rec := f.do(http.MethodDelete, "/api/v1/submissions/s1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot delete a submission that is not pending")
}

func TestUploadImageBumpsVersion(t *testing.T) {
	f := newFixture(t, owner)
	f.expectLoad(withUpload(pending("s1"), 1))
	f.mock.ExpectExec("UPDATE `resource_submissions` SET").WillReturnResult(sqlmock.NewResult(0, 1))

	body, ct := imagetest.Multipart(t, imagetest.PNG(t, 40, 40), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/s1/image", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/v1/submission-images/s1?v=2", *decode(t, rec).ImageURL)

	ok, err := f.submissions.Exists(context.Background(), "s1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadImageNotPending(t *testing.T) {
	f := newFixture(t, owner)
	sub := pending("s1")
	sub.Status = models.SubmissionApproved
	f.expectLoad(sub)

	body, ct := imagetest.Multipart(t, imagetest.PNG(t, 40, 40), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/s1/image", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot modify images on a submission that is not pending")
}

func TestClearImageResetsVersion(t *testing.T) {
	f := newFixture(t, owner)
	f.expectLoad(withUpload(pending("s1"), 4))
	f.mock.ExpectExec("UPDATE `resource_submissions` SET").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodDelete, "/api/v1/submissions/s1/image", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode(t, rec).ImageURL)
}

func TestAdminListFiltersByStatus(t *testing.T) {
	f := newFixture(t, moderator)
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resource_submissions` WHERE status = \\?").
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	f.mock.ExpectQuery("SELECT \\* FROM `resource_submissions` WHERE status = \\? ORDER BY created_at DESC LIMIT \\?").
		WithArgs("pending", 50).
		WillReturnRows(dbtest.SubmissionRows(pending("s1")))

	rec := f.do(http.MethodGet, "/api/v1/submissions/?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestModerationNeedsSuperuser(t *testing.T) {
	f := newFixture(t, owner)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/submissions/"},
		{http.MethodPost, "/api/v1/submissions/s1/approve"},
		{http.MethodPost, "/api/v1/submissions/s1/reject"},
	} {
		rec := f.do(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
	}
}

func TestMine(t *testing.T) {
	f := newFixture(t, owner)
	f.mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resource_submissions` WHERE submitter_id = \\?").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	sub := pending("s1")
	sub.CategoryID = dbtest.Str("c1")
	f.mock.ExpectQuery("SELECT \\* FROM `resource_submissions` WHERE submitter_id = \\? ORDER BY created_at DESC").
		WillReturnRows(dbtest.SubmissionRows(sub))
	f.mock.ExpectQuery("SELECT `id`,`name` FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c1", "Courses"))

	rec := f.do(http.MethodGet, "/api/v1/submissions/mine", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"category_name":"Courses"`)
}

func TestApproveCopiesUploadedImage(t *testing.T) {
	f := newFixture(t, moderator)
	require.NoError(t, f.submissions.Put(context.Background(), "s1.jpg", []byte("jpeg bytes"), "image/jpeg"))
	f.expectLoad(withUpload(pending("s1"), 5))
	f.expectResourceURL(false)
	f.mock.ExpectBegin()
	f.mock.ExpectExec("INSERT INTO `resources`").WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("UPDATE `resource_submissions` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	rec := f.do(http.MethodPost, "/api/v1/submissions/s1/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode(t, rec).Status)

	entries, err := os.ReadDir(f.resources.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".jpg"))
	data, err := f.resources.Get(context.Background(), entries[0].Name())
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestApproveRollsBackCopiedFileOnFailure(t *testing.T) {
	f := newFixture(t, moderator)
	require.NoError(t, f.submissions.Put(context.Background(), "s1.jpg", []byte("jpeg bytes"), "image/jpeg"))
	f.expectLoad(withUpload(pending("s1"), 1))
	f.expectResourceURL(false)
	f.mock.ExpectBegin()
	f.mock.ExpectExec("INSERT INTO `resources`").WillReturnError(assert.AnError)
	f.mock.ExpectRollback()

	rec := f.do(http.MethodPost, "/api/v1/submissions/s1/approve", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries, err := os.ReadDir(f.resources.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApproveChecks(t *testing.T) {
	t.Run("not pending", func(t *testing.T) {
		f := newFixture(t, moderator)
		sub := pending("s1")
		sub.Status = models.SubmissionRejected
		f.expectLoad(sub)
		rec := f.do(http.MethodPost, "/api/v1/submissions/s1/approve", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Only pending submissions can be approved")
	})
	t.Run("url taken", func(t *testing.T) {
		f := newFixture(t, moderator)
		f.expectLoad(pending("s1"))
		f.expectResourceURL(true)
		rec := f.do(http.MethodPost, "/api/v1/submissions/s1/approve", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestReject(t *testing.T) {
	f := newFixture(t, moderator)
	f.expectLoad(pending("s1"))
	f.mock.ExpectExec("UPDATE `resource_submissions` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodPost, "/api/v1/submissions/s1/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rejected", decode(t, rec).Status)

	f2 := newFixture(t, moderator)
	sub := pending("s2")
	sub.Status = models.SubmissionRejected
	f2.expectLoad(sub)
	rec = f2.do(http.MethodPost, "/api/v1/submissions/s2/reject", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only pending submissions can be rejected")
}

func TestCommentsOnMissingSubmission(t *testing.T) {
	f := newFixture(t, stranger)
	f.mock.ExpectQuery("SELECT \\* FROM `resource_submissions` WHERE id = \\?").WillReturnRows(dbtest.SubmissionRows())

	rec := f.do(http.MethodGet, "/api/v1/submissions/s9/comments", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSubmissionComment(t *testing.T) {
	f := newFixture(t, stranger)
	f.expectLoad(pending("s1"))
	f.mock.ExpectExec("INSERT INTO `submission_comments`").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := f.do(http.MethodPost, "/api/v1/submissions/s1/comments", map[string]string{"body": "please add a summary"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out comment.Public
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "s1", out.SubmissionID)
}
