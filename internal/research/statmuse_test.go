package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatMuseQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/query", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Aaron Judge home runs last 10 games", body["query"])

		json.NewEncoder(w).Encode(map[string]string{"answer": "Aaron Judge has 6 home runs in his last 10 games."})
	}))
	defer srv.Close()

	client := NewStatMuseClient(srv.URL, time.Millisecond, quietLogger())
	result := client.Query(context.Background(), "Aaron Judge home runs last 10 games")
	require.NotNil(t, result)
	assert.Empty(t, result.Err)
	assert.Contains(t, result.Answer, "6 home runs")
}

func TestStatMuseQueryResultField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"result": "an answer under the alternate key"})
	}))
	defer srv.Close()

	client := NewStatMuseClient(srv.URL, time.Millisecond, quietLogger())
	result := client.Query(context.Background(), "anything")
	assert.Equal(t, "an answer under the alternate key", result.Answer)
}

func TestStatMuseQueryServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "could not understand the question"})
	}))
	defer srv.Close()

	client := NewStatMuseClient(srv.URL, time.Millisecond, quietLogger())
	result := client.Query(context.Background(), "gibberish")
	assert.Empty(t, result.Answer)
	assert.Equal(t, "could not understand the question", result.Err)
}

func TestStatMuseQueryNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewStatMuseClient(srv.URL, time.Millisecond, quietLogger())
	result := client.Query(context.Background(), "anything")
	assert.Contains(t, result.Err, "status 500")
}

func TestStatMuseQueryTransportError(t *testing.T) {
	client := NewStatMuseClient("http://127.0.0.1:1", time.Millisecond, quietLogger())
	result := client.Query(context.Background(), "anything")
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Err)
}

func TestStatMuseQueryCancelledContext(t *testing.T) {
	client := NewStatMuseClient("http://127.0.0.1:1", time.Hour, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := client.Query(ctx, "anything")
	assert.NotEmpty(t, result.Err)
}
