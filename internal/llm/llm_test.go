package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr string
	}{
		{"ollama ok", Settings{Provider: "ollama", Model: "llama3.1"}, ""},
		{"ollama needs model", Settings{Provider: "Ollama"}, "model"},
		{"openai ok", Settings{Provider: "openai", Model: "m", APIBase: "http://x/v1", APIKey: "k"}, ""},
		{"openai compat alias", Settings{Provider: "openai_compat", Model: "m", APIBase: "http://x/v1", APIKey: "k"}, ""},
		{"openai missing", Settings{Provider: "openai", Model: "m"}, "api_base, api_key"},
		{"none", Settings{Provider: "none"}, "no LLM configured"},
		{"unknown", Settings{Provider: "claude"}, "unknown llm provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.1", body["model"])
		assert.Equal(t, false, body["stream"])
		assert.Equal(t, map[string]any{"temperature": 0.3}, body["options"])
		msgs := body["messages"].([]any)
		assert.Len(t, msgs, 2)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"role": "assistant", "content": "# Outline"}})
	}))
	defer srv.Close()

	c, err := New(Settings{Provider: "ollama", Model: "llama3.1", OllamaBase: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "ollama:llama3.1", c.Name())

	out, err := c.Chat(context.Background(), []Message{System("sys"), User("hi")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "# Outline", out)
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1200, body["max_tokens"])
		assert.EqualValues(t, 0.7, body["temperature"])
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "draft"}}}})
	}))
	defer srv.Close()

	c, err := New(Settings{Provider: "openai", Model: "m", APIBase: srv.URL + "/v1", APIKey: "secret"})
	require.NoError(t, err)
	out, err := c.Chat(context.Background(), []Message{User("hi")}, Options{Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "draft", out)
}

func TestChatErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/chat/completions" {
			_, _ = w.Write([]byte(`{"choices": []}`))
			return
		}
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Settings{Provider: "ollama", Model: "m", OllamaBase: srv.URL})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), []Message{User("hi")}, Options{})
	assert.ErrorContains(t, err, "HTTP 500")
	assert.ErrorContains(t, err, "model not loaded")

	c, err = New(Settings{Provider: "openai", Model: "m", APIBase: srv.URL + "/v1", APIKey: "k"})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), []Message{User("hi")}, Options{})
	assert.ErrorContains(t, err, "no choices")
}
