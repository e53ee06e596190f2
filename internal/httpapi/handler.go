// Package httpapi exposes a cache over HTTP with a JSON envelope.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/IvanBrykalov/lrucache/cache"
)

const (
	// MaxBatchSize bounds the number of items in one batch request.
	MaxBatchSize = 1000
	// MaxTTLMillis is the largest ttl, in milliseconds, that fits a time.Duration.
	MaxTTLMillis = math.MaxInt64 / int64(time.Millisecond)
	maxBodyBytes = 1 << 20
)

// Store is the cache shape served by Handler: string keys, raw JSON values.
type Store = cache.Cache[string, json.RawMessage]

// Handler maps HTTP requests onto cache calls.
type Handler struct {
	cache  Store
	logger *slog.Logger
}

// NewHandler creates an HTTP handler over c.
func NewHandler(c Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{cache: c, logger: logger}
}

// Routes returns the API mux with middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("GET /api/v1/stats", h.stats)
	mux.HandleFunc("GET /api/v1/keys", h.listKeys)
	mux.HandleFunc("DELETE /api/v1/keys", h.clear)
	mux.HandleFunc("POST /api/v1/cleanup", h.cleanup)

	mux.HandleFunc("GET /api/v1/keys/{key}", h.getKey)
	mux.HandleFunc("HEAD /api/v1/keys/{key}", h.hasKey)
	mux.HandleFunc("PUT /api/v1/keys/{key}", h.putKey)
	mux.HandleFunc("DELETE /api/v1/keys/{key}", h.deleteKey)

	mux.HandleFunc("POST /api/v1/batch/set", h.batchSet)
	mux.HandleFunc("POST /api/v1/batch/get", h.batchGet)
	mux.HandleFunc("POST /api/v1/batch/delete", h.batchDelete)

	return h.requestID(h.accessLog(h.recoverer(mux)))
}

// ---- request / response shapes ----

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type putRequest struct {
	Value json.RawMessage `json:"value"`
	TTL   *int64          `json:"ttl,omitempty"` // milliseconds
}

type batchEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	TTL   *int64          `json:"ttl,omitempty"`
}

type batchSetRequest struct {
	Entries []batchEntry `json:"entries"`
}

type batchKeysRequest struct {
	Keys []string `json:"keys"`
}

// ---- handlers ----

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.ok(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	h.ok(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) listKeys(w http.ResponseWriter, _ *http.Request) {
	keys := h.cache.Keys()
	h.ok(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	h.logger.InfoContext(r.Context(), "cache cleared")
	h.ok(w, http.StatusOK, map[string]any{"cleared": true})
}

func (h *Handler) cleanup(w http.ResponseWriter, _ *http.Request) {
	h.ok(w, http.StatusOK, map[string]any{"removed": h.cache.Cleanup()})
}

func (h *Handler) getKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	v, ok := h.cache.Get(key)
	if !ok {
		h.fail(w, http.StatusNotFound, "key not found")
		return
	}
	h.ok(w, http.StatusOK, map[string]any{"key": key, "value": v})
}

func (h *Handler) hasKey(w http.ResponseWriter, r *http.Request) {
	if !h.cache.Has(r.PathValue("key")) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) putKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req putRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Value) == 0 {
		h.fail(w, http.StatusBadRequest, "value is required")
		return
	}
	if req.TTL != nil && !validTTL(*req.TTL) {
		h.fail(w, http.StatusBadRequest, fmt.Sprintf("ttl must be between 0 and %d milliseconds", MaxTTLMillis))
		return
	}

	var err error
	if req.TTL != nil {
		err = h.cache.SetWithTTL(key, req.Value, msToDuration(*req.TTL))
	} else {
		err = h.cache.Set(key, req.Value)
	}
	if err != nil {
		h.fail(w, statusFor(err), err.Error())
		return
	}
	h.ok(w, http.StatusOK, map[string]any{"key": key, "ttl": req.TTL})
}

func (h *Handler) deleteKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !h.cache.Delete(key) {
		h.fail(w, http.StatusNotFound, "key not found")
		return
	}
	h.ok(w, http.StatusOK, map[string]any{"key": key, "deleted": true})
}

func (h *Handler) batchSet(w http.ResponseWriter, r *http.Request) {
	var req batchSetRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkBatchSize(len(req.Entries)); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := make([]cache.Entry[string, json.RawMessage], 0, len(req.Entries))
	for i, e := range req.Entries {
		switch {
		case e.Key == "":
			h.fail(w, http.StatusBadRequest, fmt.Sprintf("entries[%d]: key is required", i))
			return
		case len(e.Value) == 0:
			h.fail(w, http.StatusBadRequest, fmt.Sprintf("entries[%d]: value is required", i))
			return
		case e.TTL != nil && !validTTL(*e.TTL):
			h.fail(w, http.StatusBadRequest, fmt.Sprintf("entries[%d]: ttl must be between 0 and %d", i, MaxTTLMillis))
			return
		}
		entry := cache.Entry[string, json.RawMessage]{Key: e.Key, Value: e.Value}
		if e.TTL != nil {
			entry.TTL = cache.TTL(msToDuration(*e.TTL))
		}
		entries = append(entries, entry)
	}

	res := h.cache.SetMultiple(entries)
	if len(res.Failed) > 0 {
		h.logger.WarnContext(r.Context(), "batch set partially failed",
			"total", res.Total, "failed", len(res.Failed))
	}
	h.ok(w, http.StatusOK, res)
}

func (h *Handler) batchGet(w http.ResponseWriter, r *http.Request) {
	keys, ok := h.decodeKeys(w, r)
	if !ok {
		return
	}
	h.ok(w, http.StatusOK, h.cache.GetMultiple(keys))
}

func (h *Handler) batchDelete(w http.ResponseWriter, r *http.Request) {
	keys, ok := h.decodeKeys(w, r)
	if !ok {
		return
	}
	h.ok(w, http.StatusOK, h.cache.DeleteMultiple(keys))
}

// ---- helpers ----

func (h *Handler) decodeKeys(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req batchKeysRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := checkBatchSize(len(req.Keys)); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	for i, k := range req.Keys {
		if k == "" {
			h.fail(w, http.StatusBadRequest, fmt.Sprintf("keys[%d]: key is required", i))
			return nil, false
		}
	}
	return req.Keys, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func checkBatchSize(n int) error {
	switch {
	case n == 0:
		return errors.New("batch must not be empty")
	case n > MaxBatchSize:
		return fmt.Errorf("batch of %d exceeds the limit of %d", n, MaxBatchSize)
	}
	return nil
}

func validTTL(ms int64) bool { return ms >= 0 && ms <= MaxTTLMillis }

func msToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cache.ErrInvalidTTL):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ok(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, envelope{Success: false, Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}
