package transcript

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
)

func init() {
	gin.SetMode(gin.TestMode)
}

var transcriptColumns = []string{"id", "user_id", "title", "messages", "created_at", "updated_at"}

func newRouter(db *gorm.DB) *gin.Engine {
	u := &models.UserModel{Base: models.Base{ID: "u1"}, Email: "u1@example.com", IsActive: true}
	auth := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, u)
		c.Set(middleware.ContextKeyUserID, u.ID)
		c.Next()
	}
	r := gin.New()
	NewHandler(NewService(db)).RegisterRoutes(r.Group("/api/v1"), auth)
	return r
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListCapsLimit(t *testing.T) {
	db, mock := dbtest.New(t)
	now := time.Now()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_transcripts` WHERE user_id = \\?").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `chat_transcripts` WHERE user_id = \\? ORDER BY updated_at DESC LIMIT \\?").
		WithArgs("u1", 200).
		WillReturnRows(sqlmock.NewRows(transcriptColumns).
			AddRow("t1", "u1", "", `[{"role":"user","content":"hi"}]`, now, now))

	rec := do(newRouter(db), http.MethodGet, "/api/v1/me/chat-transcripts/?limit=1000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Data  []Public `json:"data"`
		Count int64    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Nil(t, out.Data[0].Title)
	assert.Equal(t, "hi", out.Data[0].Messages[0].Content)
}

func TestCreateTranscript(t *testing.T) {
	db, mock := dbtest.New(t)

	mock.ExpectExec("INSERT INTO `chat_transcripts`").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "u1", "Ideas",
			`[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := do(newRouter(db), http.MethodPost, "/api/v1/me/chat-transcripts/", map[string]interface{}{
		"title": "Ideas",
		"messages": []map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out Public
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Ideas", *out.Title)
	assert.Len(t, out.Messages, 2)
}

func TestCreateValidation(t *testing.T) {
	db, _ := dbtest.New(t)
	r := newRouter(db)

	for name, body := range map[string]interface{}{
		"no messages":   map[string]interface{}{"messages": []interface{}{}},
		"empty content": map[string]interface{}{"messages": []map[string]string{{"role": "user", "content": ""}}},
		"long role":     map[string]interface{}{"messages": []map[string]string{{"role": strings.Repeat("r", 21), "content": "x"}}},
		"long title":    map[string]interface{}{"title": strings.Repeat("t", 121), "messages": []map[string]string{{"role": "user", "content": "x"}}},
	} {
		rec := do(r, http.MethodPost, "/api/v1/me/chat-transcripts/", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, name)
	}
}

func TestGetIsOwnerScoped(t *testing.T) {
	db, mock := dbtest.New(t)

	mock.ExpectQuery("SELECT \\* FROM `chat_transcripts` WHERE id = \\? AND user_id = \\?").
		WithArgs("t9", "u1", 1).
		WillReturnRows(sqlmock.NewRows(transcriptColumns))

	rec := do(newRouter(db), http.MethodGet, "/api/v1/me/chat-transcripts/t9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcript not found")
}

func TestDeleteTranscript(t *testing.T) {
	db, mock := dbtest.New(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `chat_transcripts` WHERE id = \\? AND user_id = \\?").
		WillReturnRows(sqlmock.NewRows(transcriptColumns).AddRow("t1", "u1", "x", `[]`, now, now))
	mock.ExpectExec("DELETE FROM `chat_transcripts`").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := do(newRouter(db), http.MethodDelete, "/api/v1/me/chat-transcripts/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Transcript deleted"}`, rec.Body.String())
}
