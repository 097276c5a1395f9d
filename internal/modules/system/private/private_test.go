package private

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-resource-hub/server/internal/database/dbtest"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func post(r http.Handler, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/private/users/", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateUser(t *testing.T) {
	db, mock := dbtest.New(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), user.NewService(db, nil, nil), "/api/v1")

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").WillReturnRows(dbtest.UserRows())
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := post(r, map[string]interface{}{"email": "dev@example.com", "password": "password123", "is_verified": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out user.Public
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "dev@example.com", out.Email)
	assert.True(t, out.IsActive)
	assert.False(t, out.IsSuperuser)
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock := dbtest.New(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), user.NewService(db, nil, nil), "/api/v1")

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(dbtest.UserRows(models.UserModel{Base: models.Base{ID: "u1"}, Email: "dev@example.com"}))

	rec := post(r, map[string]interface{}{"email": "dev@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserValidation(t *testing.T) {
	db, _ := dbtest.New(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), user.NewService(db, nil, nil), "/api/v1")

	rec := post(r, map[string]interface{}{"email": "not-an-email", "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
