package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlayiq/picks-engine/pkg/config"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(baseURL string) *Client {
	cfg := &config.Config{
		XAIAPIKey:    "test-key",
		XAIBaseURL:   baseURL,
		LLMModel:     "grok-4-0709",
		LLMTemp:      0.2,
		LLMRateLimit: 600,
	}
	return NewClient(cfg, nil, quietLogger())
}

func completionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20},
	}
}

func TestCompleteReturnsMessageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-4-0709", req["model"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse(`Here you go: [{"pick": "one"}]`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	reply, err := client.Complete(context.Background(), "give me picks")
	require.NoError(t, err)
	assert.Contains(t, reply, `[{"pick": "one"}]`)
	assert.True(t, client.IsHealthy())
	assert.Equal(t, "grok-4-0709", client.Model())
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	client.retryAttempts = 1
	_, err := client.Complete(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteCancelledContext(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "anything")
	require.Error(t, err)
}
