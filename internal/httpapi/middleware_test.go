package httpapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_GeneratesRequestIDAndLogs(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(nil, slog.New(slog.NewJSONHandler(&buf, nil)))

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	h.requestID(h.accessLog(next)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), id)
}

func TestMiddleware_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	h.recoverer(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Contains(t, buf.String(), "panic recovered")
}
