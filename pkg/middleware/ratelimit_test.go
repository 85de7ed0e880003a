package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	handler := RateLimit(NewIPRateLimiter(1, 2))(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimitIgnoresReads(t *testing.T) {
	handler := RateLimit(NewIPRateLimiter(1, 1))(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("read %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitKeysByClient(t *testing.T) {
	handler := RateLimit(NewIPRateLimiter(1, 1))(okHandler())

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.1:1111"); code != http.StatusOK {
		t.Fatalf("expected 200 for first client, got %d", code)
	}
	if code := do("10.0.0.2:2222"); code != http.StatusOK {
		t.Errorf("expected 200 for second client, got %d", code)
	}
	if code := do("10.0.0.1:3333"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for exhausted client, got %d", code)
	}
}

func TestRedisRateLimitFailOpen(t *testing.T) {
	// Nothing listens on port 1; the limiter must let traffic through.
	limiter := NewRedisRateLimiter("127.0.0.1:1", 1, 1, zerolog.Nop())
	t.Cleanup(func() { limiter.Close() })

	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 when redis is unreachable, got %d", rec.Code)
	}
}
