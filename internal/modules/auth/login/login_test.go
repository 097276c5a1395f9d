package login

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database/dbtest"
	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/pkg/jwt"
	"github.com/ai-resource-hub/server/internal/pkg/password"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(db *gorm.DB) *gin.Engine {
	users := user.NewService(db, nil, nil)
	svc := NewService(users, Options{
		AccessTTL:    time.Hour,
		ResetTTL:     48 * time.Hour,
		ProjectName:  "Hub",
		FrontendHost: "http://localhost:5173",
	})
	r := gin.New()
	NewHandler(svc, nil, "/api/v1", nil).RegisterRoutes(r.Group("/api/v1"), middleware.Auth(db))
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func storedUser(t *testing.T, active bool) models.UserModel {
	t.Helper()
	h, err := password.Hash("correct-horse")
	require.NoError(t, err)
	return models.UserModel{Base: models.Base{ID: "u1"}, Email: "a@example.com", IsActive: active, HashedPassword: h}
}

func TestAccessTokenSuccess(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, true)))
	rec := postForm(r, "/api/v1/login/access-token", url.Values{"username": {"a@example.com"}, "password": {"correct-horse"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	claims, err := jwt.Parse(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
}

func TestAccessTokenWrongPassword(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, true)))
	rec := postForm(r, "/api/v1/login/access-token", url.Values{"username": {"a@example.com"}, "password": {"nope-nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows())
	rec = postForm(r, "/api/v1/login/access-token", url.Values{"username": {"ghost@example.com"}, "password": {"nope-nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")
}

func TestAccessTokenInactive(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, false)))
	rec := postForm(r, "/api/v1/login/access-token", url.Values{"username": {"a@example.com"}, "password": {"correct-horse"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inactive user")
}

func TestPasswordRecoveryUnknownEmail(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows())
	rec := postForm(r, "/api/v1/password-recovery/ghost@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The user with this email does not exist in the system.")
}

func TestPasswordRecoveryKnownEmail(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, true)))
	rec := postForm(r, "/api/v1/password-recovery/a@example.com", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password recovery email sent")
}

func resetBody(token, next string) *bytes.Buffer {
	b, _ := json.Marshal(map[string]string{"token": token, "new_password": next})
	return bytes.NewBuffer(b)
}

func TestResetPassword(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reset-password/", resetBody("garbage", "brand-new-pass"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")

	access, err := jwt.Sign("u1", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reset-password/", resetBody(access, "brand-new-pass"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "access tokens must not reset passwords")

	token, err := jwt.SignPasswordReset("a@example.com", time.Hour)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, true)))
	mock.ExpectExec("UPDATE `users` SET `hashed_password`").WillReturnResult(sqlmock.NewResult(0, 1))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reset-password/", resetBody(token, "brand-new-pass"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Password updated successfully")
}

func TestRecoveryEmailLink(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(user.NewService(db, nil, nil), Options{ResetTTL: 48 * time.Hour, ProjectName: "Hub", FrontendHost: "https://hub.test"})

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(dbtest.UserRows(storedUser(t, true)))
	_, email, err := svc.RecoveryEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Hub - Password recovery for user a@example.com", email.Subject)
	assert.Contains(t, email.HTML, "https://hub.test/reset-password?token=")
	assert.Contains(t, email.HTML, "48 hours")
}
