package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFirstRemoteIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded list", forwarded: "203.0.113.7, 10.0.0.1", remoteAddr: "10.0.0.1:443", want: "203.0.113.7"},
		{name: "single forwarded", forwarded: "198.51.100.2", remoteAddr: "10.0.0.1:443", want: "198.51.100.2"},
		{name: "remote addr", remoteAddr: "192.0.2.10:51234", want: "192.0.2.10"},
		{name: "remote addr without port", remoteAddr: "192.0.2.10", want: "192.0.2.10"},
		{name: "blank forwarded entry", forwarded: " ,10.0.0.1", remoteAddr: "192.0.2.10:1", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/checkout/callback", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, FirstRemoteIP(r))
		})
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 2, zap.NewNop())
	defer rl.Shutdown()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/checkout/send", nil)
		r.RemoteAddr = "192.0.2.1:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/checkout/send", nil)
	other.RemoteAddr = "192.0.2.2:1000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_CleanupAndEviction(t *testing.T) {
	rl := NewRateLimiter(10, 10, zap.NewNop())
	defer rl.Shutdown()
	rl.maxSize = 2

	start := time.Now()
	rl.getLimiter("a", start)
	rl.getLimiter("b", start.Add(time.Second))
	rl.getLimiter("c", start.Add(2*time.Second))
	assert.Len(t, rl.limiters, 2)
	assert.NotContains(t, rl.limiters, "a")

	removed := rl.cleanup(start.Add(rl.cleanupInterval + 90*time.Second))
	assert.Equal(t, 2, removed)
	assert.Empty(t, rl.limiters)

	rl.Shutdown()
}
