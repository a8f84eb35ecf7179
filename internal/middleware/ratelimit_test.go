package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "203.0.113.7:4001"))
	assert.Equal(t, http.StatusOK, hit(h, "203.0.113.7:4001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "203.0.113.7:4001"))
}

func TestRateLimiterIsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "203.0.113.7:4001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "203.0.113.7:4002"))
	// A different client still has its own bucket.
	assert.Equal(t, http.StatusOK, hit(h, "203.0.113.8:4001"))
}

func TestStrictRateLimiterAllowsProviderRetryBursts(t *testing.T) {
	h := StrictRateLimiter()(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "198.51.100.2:9000"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "198.51.100.2:9000"))
}
