package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infem06/progress/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func generateResponseBody(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func newTestClient(baseURL string, cache Cache) *Client {
	c := NewClient(Config{
		BaseURL:   baseURL,
		Model:     "gemini-3-flash-preview",
		RateLimit: 60000,
	}, cache, newTestLogger())
	c.SetCredential("test-key")
	return c
}

func TestGenerateJSONSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/models/gemini-3-flash-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
		assert.NotNil(t, req.GenerationConfig.ResponseSchema)
		assert.InDelta(t, 0.7, req.GenerationConfig.Temperature, 0.001)

		w.Write([]byte(generateResponseBody(`{"logs":[]}`)))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	raw, err := client.GenerateJSON(context.Background(), "프롬프트", map[string]any{"type": "OBJECT"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"logs":[]}`, string(raw))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateJSONNotConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(generateResponseBody("x")))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	client.SetCredential("")

	_, err := client.GenerateJSON(context.Background(), "프롬프트", nil)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "an unconfigured client must not reach the network")
}

func TestGenerateJSONUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	_, err := client.GenerateJSON(context.Background(), "프롬프트", nil)
	assert.Error(t, err)
}

func TestGenerateJSONCacheHit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(generateResponseBody(`{"logs":[]}`)))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, NewMemoryCache(16, 0))

	for i := 0; i < 2; i++ {
		_, err := client.GenerateJSON(context.Background(), "같은 프롬프트", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a repeated prompt must be served from cache")
}

func TestValidate(t *testing.T) {
	var status int32 = http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if s := atomic.LoadInt32(&status); s != http.StatusOK {
			http.Error(w, "denied", int(s))
			return
		}
		w.Write([]byte(generateResponseBody("확인")))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	require.NoError(t, client.Validate(context.Background()))
	assert.True(t, client.Ready())

	atomic.StoreInt32(&status, http.StatusForbidden)
	assert.Error(t, client.Validate(context.Background()))
	assert.False(t, client.Ready(), "a failed probe must reset readiness")
}

func TestValidateWithoutCredential(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1", RateLimit: 60000}, nil, newTestLogger())
	err := client.Validate(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.False(t, client.Ready())
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	_, err := client.GenerateText(context.Background(), "프롬프트")
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("m", "prompt one")
	b := CacheKey("m", "prompt two")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey("m", "prompt one"), "same inputs must produce the same key")
	assert.NotEqual(t, a, CacheKey("other-model", "prompt one"))
}
