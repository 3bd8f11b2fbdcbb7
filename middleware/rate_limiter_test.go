package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "1")
	t.Setenv("RATE_LIMIT_BURST", "2")

	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Unique client so state from other tests cannot interfere.
	const clientIP = "203.0.113.77"

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		req.Header.Set("X-Forwarded-For", clientIP)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(); code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("request over burst: status = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestLimiterSettingsDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	rps, burst := limiterSettings()
	if float64(rps) != defaultRatePerSecond {
		t.Errorf("rps = %v, want %v", rps, defaultRatePerSecond)
	}
	if burst != defaultBurst {
		t.Errorf("burst = %d, want %d", burst, defaultBurst)
	}
}
