package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimitExhaustsAndRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:        2,
		RefillPerMin: 60,
		Now:          func() time.Time { return now },
	})(noContent)

	req := func(path string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.RemoteAddr = "192.0.2.1:4000"
		return serve(h, r)
	}

	assert.Equal(t, http.StatusNoContent, req("/books").Code)
	second := req("/books")
	assert.Equal(t, http.StatusNoContent, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := req("/books")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))

	api := req("/api/books")
	assert.Equal(t, http.StatusTooManyRequests, api.Code)
	assert.JSONEq(t, `{"error":"Too Many Requests"}`, api.Body.String())

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, req("/books").Code)
}

func TestRateLimitIsPerClient(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerMin: 1})(noContent)

	for _, addr := range []string{"192.0.2.1:1", "192.0.2.2:1"} {
		r := httptest.NewRequest(http.MethodPost, "/books", nil)
		r.RemoteAddr = addr
		assert.Equal(t, http.StatusNoContent, serve(h, r).Code, addr)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.NewNop())(noContent)

	r := httptest.NewRequest(http.MethodGet, "/infra", nil)
	r.RemoteAddr = "10.1.2.3:999"
	assert.Equal(t, http.StatusNoContent, serve(h, r).Code)

	r.RemoteAddr = "203.0.113.1:999"
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)

	open := AllowOnlyCIDRS(nil, false, logger.NewNop())(noContent)
	assert.Equal(t, http.StatusNoContent, serve(open, r).Code)
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"books.lan", "*.home.lan"}, logger.NewNop())(noContent)

	tests := []struct {
		host string
		want int
	}{
		{"books.lan", http.StatusNoContent},
		{"Books.LAN:8080", http.StatusNoContent},
		{"shelf.home.lan", http.StatusNoContent},
		{"home.lan", http.StatusForbidden},
		{"evil.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		assert.Equal(t, tt.want, serve(h, r).Code, tt.host)
	}
}

func TestLogPassesThroughStatus(t *testing.T) {
	h := Log(logger.NewNop(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, rec.Body.String(), "nope")
}
