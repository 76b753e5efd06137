package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rateLimited(rl *RateLimit, remoteAddr string) int {
	h := rl.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_WithinBurst(t *testing.T) {
	rl := NewRateLimit(1, 2)

	assert.Equal(t, http.StatusOK, rateLimited(rl, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, rateLimited(rl, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, rateLimited(rl, "10.0.0.1:1111"))
}

func TestRateLimit_PerIP(t *testing.T) {
	rl := NewRateLimit(1, 1)

	assert.Equal(t, http.StatusOK, rateLimited(rl, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, rateLimited(rl, "10.0.0.1:2222"))
	assert.Equal(t, http.StatusOK, rateLimited(rl, "10.0.0.2:1111"))
}

func TestRateLimit_BareRemoteAddr(t *testing.T) {
	rl := NewRateLimit(1, 1)

	// No port at all still counts against the raw address.
	assert.Equal(t, http.StatusOK, rateLimited(rl, "10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, rateLimited(rl, "10.0.0.9"))
}
