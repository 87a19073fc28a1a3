package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, hits *int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		assert.Equal(t, "/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]string{{"text": text}},
		})
	}))
}

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	hits := 0
	server := newCompletionServer(t, &hits, "a solid credit profile")
	defer server.Close()

	client, err := NewHTTPLLMClient(LLMConfig{URL: server.URL, Model: "test-model"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "explain this profile")
	require.NoError(t, err)
	assert.Equal(t, "a solid credit profile", text)
	assert.Equal(t, 1, hits)
}

func TestComplete_CacheAvoidsSecondUpstreamCall(t *testing.T) {
	hits := 0
	server := newCompletionServer(t, &hits, "cached answer")
	defer server.Close()

	client, err := NewHTTPLLMClient(LLMConfig{URL: server.URL, Model: "test-model", CacheSize: 4})
	require.NoError(t, err)

	first, err := client.Complete(context.Background(), "same prompt")
	require.NoError(t, err)
	// surrounding whitespace does not defeat the cache
	second, err := client.Complete(context.Background(), "  same prompt \n")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)
}

func TestComplete_CacheEvictsAtCapacity(t *testing.T) {
	hits := 0
	server := newCompletionServer(t, &hits, "answer")
	defer server.Close()

	client, err := NewHTTPLLMClient(LLMConfig{URL: server.URL, Model: "test-model", CacheSize: 2})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.Complete(ctx, "prompt a")
	require.NoError(t, err)
	_, err = client.Complete(ctx, "prompt b")
	require.NoError(t, err)
	_, err = client.Complete(ctx, "prompt c") // evicts "prompt a"
	require.NoError(t, err)
	_, err = client.Complete(ctx, "prompt a")
	require.NoError(t, err)

	assert.Equal(t, 4, hits)
}

func TestComplete_UpstreamFailure(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := NewHTTPLLMClient(LLMConfig{URL: server.URL, Model: "test-model"})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		client, err := NewHTTPLLMClient(LLMConfig{URL: server.URL, Model: "test-model"})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})
}
