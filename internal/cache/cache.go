package cache

import (
	"time"

	"pitaka/internal/log"
)

// Cache is the lookup surface shared by the dashboard summary cache and the
// session denylist.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	SetWithTTL(key string, data T, ttl time.Duration)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps every registered cache.
type Manager struct {
	caches      []Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		caches:      make([]Cleaner, 0),
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

// Sweep cleans every registered cache once and returns the number of evictions.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (m *Manager) Stop() {
	select {
	case <-m.stopCleanup:
		return
	default:
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}
