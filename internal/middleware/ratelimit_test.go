package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterPerClientBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	defer rl.Stop()

	if !rl.allow("203.0.113.5") || !rl.allow("203.0.113.5") {
		t.Fatal("requests within the budget should be allowed")
	}
	if rl.allow("203.0.113.5") {
		t.Error("request over the budget should be denied")
	}
	// Budgets are tracked per client.
	if !rl.allow("198.51.100.7") {
		t.Error("an unrelated client should still be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 80*time.Millisecond)
	defer rl.Stop()

	rl.allow("203.0.113.5")
	if rl.allow("203.0.113.5") {
		t.Error("second request inside the window should be denied")
	}

	time.Sleep(120 * time.Millisecond)

	if !rl.allow("203.0.113.5") {
		t.Error("request after the window passed should be allowed")
	}
}

func TestRateLimiterMiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hotspot/L123456/suggest", nil)
		req.RemoteAddr = "203.0.113.5:40312"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		if got := send(); got != http.StatusCreated {
			t.Fatalf("submission %d: got status %d, want 201", i+1, got)
		}
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Errorf("over-budget submission: got status %d, want 429", got)
	}
}

func TestClientIPResolution(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"direct connection", nil, "203.0.113.5:40312", "203.0.113.5"},
		{"remote without port", nil, "203.0.113.5", "203.0.113.5"},
		{"single forwarded hop", map[string]string{"X-Forwarded-For": "198.51.100.7"}, "10.0.0.2:80", "198.51.100.7"},
		{"forwarded chain keeps origin", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2, 10.0.0.3"}, "10.0.0.3:80", "198.51.100.7"},
		{"real-ip header", map[string]string{"X-Real-IP": "198.51.100.9"}, "10.0.0.2:80", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/hotspot/L123456", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(4, 60*time.Millisecond)
	defer rl.Stop()

	// A handful of one-off submitters plus one that stays active.
	for i := 0; i < 3; i++ {
		rl.allow(fmt.Sprintf("203.0.113.%d", i+10))
	}
	rl.allow("198.51.100.7")

	time.Sleep(100 * time.Millisecond)
	rl.allow("198.51.100.7")

	rl.cleanup()

	rl.mu.RLock()
	_, activeKept := rl.clients["198.51.100.7"]
	remaining := len(rl.clients)
	rl.mu.RUnlock()

	if !activeKept {
		t.Error("client with a recent request should survive cleanup")
	}
	if remaining != 1 {
		t.Errorf("expected only the active client to remain, got %d entries", remaining)
	}
}
