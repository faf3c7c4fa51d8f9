package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

func TestCompleteReturnsOutputText(t *testing.T) {
	var gotFormat any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		if text, ok := req["text"].(map[string]any); ok {
			gotFormat = text["format"]
		}
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"items\":[]}"}]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.NewNop(), Options{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
	assert.Equal(t, map[string]any{"type": "json_object"}, gotFormat)
}

func TestTemperatureFallbackRetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		if _, hasTemp := req["temperature"]; hasTemp {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: 'temperature'"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"ok"}]}]}`))
	}))
	defer srv.Close()

	temp := 0.2
	c, err := NewClient(logger.NewNop(), Options{APIKey: "k", BaseURL: srv.URL, Model: "o3", Temperature: &temp})
	require.NoError(t, err)

	out, err := c.GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = c.GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.NewNop(), Options{})
	require.Error(t, err)
}

func TestNon2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(logger.NewNop(), Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	var he *httpError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.HTTPStatusCode())
}
