package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/association-planning/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var fromContext *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members", nil))

	require.NotNil(t, fromContext)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/members", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
}

func TestWriteRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := WriteRateLimit(2, nil)(ok)

	send := func(method, remote string) int {
		req := httptest.NewRequest(method, "/api/absences", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send(http.MethodDelete, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "10.0.0.1:1234"))

	// reads and other clients are unaffected
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "10.0.0.2:1234"))
}

func TestWriteRateLimitDisabled(t *testing.T) {
	handler := WriteRateLimit(0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/members", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://planning.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/planning", nil)
	req.Header.Set("Origin", "https://planning.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://planning.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/planning", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleServiceErrorFallsBackTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := newResponder(nil)
	resp.handleServiceError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
