package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultAnthropicConfig("sk-ant-test")
	config.BaseURL = server.URL
	config.Timeout = 5 * time.Second
	return NewAnthropicClientWithConfig(config)
}

func TestAnthropicCompleteWithSystem(t *testing.T) {
	var captured AnthropicRequest
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"part one"},{"type":"text","text":" part two"}],"stop_reason":"end_turn"}`)
	})

	got, err := client.CompleteWithSystem(context.Background(), "be brief", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", got, "text blocks should concatenate")

	assert.Equal(t, "be brief", captured.System)
	assert.Equal(t, 8192, captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "user prompt", captured.Messages[0].Content)
}

func TestAnthropicErrorPayload(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"type":"overloaded_error","message":"overloaded"}}`)
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropicServerError(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"bad model"}}`)
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API request failed with status 400")
}

func TestAnthropicEmptyContent(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[],"stop_reason":"end_turn"}`)
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion returned")
}

func TestAnthropicMissingKey(t *testing.T) {
	client := NewAnthropicClientWithConfig(AnthropicConfig{BaseURL: "http://localhost:1", Timeout: time.Second})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}
