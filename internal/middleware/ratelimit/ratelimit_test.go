package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestAllowWindow(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: 2, Now: c.now})
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}
	if got := rl.RetryAfter("a"); got != 60 {
		t.Fatalf("RetryAfter = %d, want 60", got)
	}

	c.advance(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window should reset after a minute")
	}
	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	c := &clock{t: time.Now()}
	rl := NewLimiter(Config{RequestsPerMinute: 5, Now: c.now})
	defer rl.Stop()

	rl.Allow("a")
	c.advance(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Fatalf("ActiveClients = %d", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests || second.Header().Get("Retry-After") == "" {
		t.Fatalf("second status = %d, retry-after %q", second.Code, second.Header().Get("Retry-After"))
	}
	rl.Stop()
}
