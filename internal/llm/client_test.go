package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
)

func testConfig(baseURL string) config.CompletionConfig {
	return config.CompletionConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   512,
		Timeout:     5 * time.Second,
	}
}

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestComplete_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestComplete_NonRetryableStatusSurfaces(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindBadResponse, domain.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindBadResponse, domain.KindOf(err))
}

func TestComplete_DisabledWithoutKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.APIKey = ""
	c := NewClient(cfg, zerolog.Nop())

	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInput, domain.KindOf(err))
}

func TestComplete_ExpiredDeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	_, err := c.Complete(ctx, "sys", "user")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindTimeout, domain.KindOf(err))
	assert.True(t, domain.Retryable(err))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.True(t, isTimeout(fmt.Errorf("request: %w", context.DeadlineExceeded)))
	assert.False(t, isTimeout(context.Canceled))
	assert.False(t, isTimeout(fmt.Errorf("connection refused")))
	assert.False(t, isTimeout(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 1*time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(2, cfg))
	assert.Equal(t, 30*time.Second, calculateBackoff(10, cfg))
}

func TestShouldRetry(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, shouldRetry(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		assert.False(t, shouldRetry(code), "status %d", code)
	}
}
