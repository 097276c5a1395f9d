package landing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database/dbtest"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func newRouter(db *gorm.DB, completer llm.Completer) *gin.Engine {
	r := gin.New()
	NewHandler(NewService(db, completer, nil)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(r http.Handler, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/landing/chat/recommendations", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatDisabled(t *testing.T) {
	db, _ := dbtest.New(t)
	rec := post(newRouter(db, nil), ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chat is currently unavailable")
}

func TestChatGroundsOnCatalog(t *testing.T) {
	db, mock := dbtest.New(t)
	fake := &fakeCompleter{reply: "Try the RAG tutorial."}
	r := newRouter(db, fake)

	withDesc := models.ResourceModel{Base: models.Base{ID: "r1"}, Title: "RAG tutorial", Description: dbtest.Str("Retrieval basics"), DestinationURL: "https://a.example", IsPublished: true, CategoryID: dbtest.Str("c1")}
	bare := models.ResourceModel{Base: models.Base{ID: "r2"}, Title: "RAG paper", DestinationURL: "https://b.example", IsPublished: true}
	mock.ExpectQuery("SELECT \\* FROM `resources` WHERE is_published = \\? AND \\(LOWER\\(title\\) LIKE \\? OR LOWER\\(description\\) LIKE \\?\\) LIMIT \\?").
		WithArgs(true, "%rag%", "%rag%", 5).
		WillReturnRows(dbtest.ResourceRows(withDesc, bare))
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE `categories`.`id` = \\?").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_key"}).AddRow("c1", "Tutorials", "tutorials"))

	rec := post(r, ChatRequest{Message: "  RAG  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Try the RAG tutorial.", out.AssistantMessage)
	require.Len(t, out.Recommendations, 2)
	assert.Equal(t, "Tutorials", out.Recommendations[0].Type)
	assert.Equal(t, "", out.Recommendations[1].Type)

	assert.Contains(t, fake.system, "Recommend resources from the following catalog only.")
	assert.Contains(t, fake.system, "- RAG tutorial: Retrieval basics\n- RAG paper: No description")
	assert.Equal(t, "  RAG  ", fake.user)
}

func TestChatFallbackPromptWhenNothingMatches(t *testing.T) {
	db, mock := dbtest.New(t)
	fake := &fakeCompleter{reply: "Try other keywords."}
	r := newRouter(db, fake)

	mock.ExpectQuery("SELECT \\* FROM `resources`").WillReturnRows(dbtest.ResourceRows())

	rec := post(r, ChatRequest{Message: "quantum gardening"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"assistant_message":"Try other keywords.","recommendations":[]}`, rec.Body.String())
	assert.Equal(t, fallbackPrompt, fake.system)
}

func TestChatLLMFailure(t *testing.T) {
	db, mock := dbtest.New(t)
	r := newRouter(db, &fakeCompleter{err: errors.New("boom")})

	mock.ExpectQuery("SELECT \\* FROM `resources`").WillReturnRows(dbtest.ResourceRows())

	rec := post(r, ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chat is temporarily unavailable")
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	db, _ := dbtest.New(t)
	rec := post(newRouter(db, &fakeCompleter{}), ChatRequest{Message: ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchTermIsCut(t *testing.T) {
	long := strings.Repeat("é", 150)
	assert.Equal(t, 100, len([]rune(searchTerm("  "+long+"  "))))
	assert.Equal(t, "abc", searchTerm(" abc "))
}
