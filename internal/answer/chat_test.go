package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxd/internal/fault"
)

const completionBody = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "mistral-small-latest",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Paris."}}
  ]
}`

func newChat(t *testing.T, h http.HandlerFunc) *Chat {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewChat(ChatConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1/",
		HTTPClient: srv.Client(),
	})
}

func TestChatComplete(t *testing.T) {
	c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultChatModel, body.Model)
		assert.Equal(t, 100, body.MaxTokens)
		assert.Equal(t, DefaultChatTemperature, body.Temperature)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "capital of france", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	text, err := c.Complete(context.Background(), SystemPrompt, "capital of france")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", text)
}

func TestChatStatusKinds(t *testing.T) {
	tests := []struct {
		status int
		want   fault.Kind
	}{
		{http.StatusUnauthorized, fault.KindAuth},
		{http.StatusTooManyRequests, fault.KindRateLimit},
		{http.StatusInternalServerError, fault.KindBadResponse},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			calls := 0
			c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"error"}}`))
			})

			_, err := c.Complete(context.Background(), SystemPrompt, "q")
			require.Error(t, err)
			assert.Equal(t, tt.want, fault.KindOf(err))
			assert.Equal(t, 1, calls, "requests must not be retried")
		})
	}
}

func TestChatTimeout(t *testing.T) {
	c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, SystemPrompt, "q")
	require.Error(t, err)
	assert.Equal(t, fault.KindTimeout, fault.KindOf(err))
}
