package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-resource-hub/server/internal/config"
)

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", NormalizeOpenAIBaseURL(""))
	assert.Equal(t, "https://api.example.com/v1", NormalizeOpenAIBaseURL("https://api.example.com"))
	assert.Equal(t, "https://api.example.com/v1", NormalizeOpenAIBaseURL("https://api.example.com/v1/"))
	assert.Equal(t, "https://proxy.local/openai/v1", NormalizeOpenAIBaseURL("https://proxy.local/openai"))
}

func TestNewRequiresKeyAndKnownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = New(config.LLMConfig{Provider: "gemini", APIKey: "k"})
	assert.Error(t, err)

	c, err := New(config.LLMConfig{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestOpenAICompleterSendsPromptAndSettings(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Try the RAG guide."}}]}`))
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{
		Provider:       "openai",
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		Model:          "gpt-4o-mini",
		MaxTokens:      300,
		Temperature:    0.7,
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "system prompt", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Try the RAG guide.", text)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 300, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	msgs, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
}

func TestOpenAICompleterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Equal(t, "APIError(500)", ErrorKind(err))
}

func TestOpenAICompleterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	c.(*openAICompleter).settings.Timeout = 50 * time.Millisecond

	_, err = c.Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Equal(t, "Timeout", ErrorKind(err))
}
