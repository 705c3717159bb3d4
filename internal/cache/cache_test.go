package cache

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pitaka/internal/log"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[int](10, time.Minute, clock.Now)

	c.Set("a", 1)
	c.SetWithTTL("b", 2, time.Hour)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to expire")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to survive")
	}

	clock.Advance(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to be present", k)
		}
	}
}

func TestLRUCacheDeleteAndZeroTTL(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.SetWithTTL("skip", 1, 0)
	if c.Size() != 0 {
		t.Fatal("zero ttl should not store")
	}
	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be deleted")
	}
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCacheWithClock[int](4, time.Second, clock.Now)
	c.Set("a", 1)

	m := NewManager(log.New(log.Config{Level: slog.LevelError, Output: io.Discard}))
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	clock.Advance(2 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	m.Stop()
}
