package subscription

import (
	"sync"

	"pitaka/internal/core"
)

// Subscription is the cancellation handle returned by Hub.Subscribe.
//
// Updates are queued in a one-slot mailbox: a newer snapshot replaces one
// that has not been delivered yet, and a single goroutine drains the mailbox
// so the listener is never called concurrently.
type Subscription struct {
	hub      *Hub
	id       uint64
	key      key
	session  string
	listener Listener
	done     chan struct{}

	mu        sync.Mutex
	pending   *Update
	running   bool
	cancelled bool
	once      sync.Once
}

func (s *Subscription) UserID() string        { return s.key.userID }
func (s *Subscription) Kind() core.RecordKind { return s.key.kind }

// Cancel stops deliveries. An update already being delivered completes.
// Calling Cancel more than once is safe.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
		s.hub.remove(s)
	})
}

// Done is closed once the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Subscription) deliver(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.pending = &u
	if !s.running {
		s.running = true
		go s.drain()
	}
}

func (s *Subscription) drain() {
	for {
		s.mu.Lock()
		if s.pending == nil || s.cancelled {
			s.running = false
			s.mu.Unlock()
			return
		}
		u := *s.pending
		s.pending = nil
		s.mu.Unlock()

		s.listener(u)
	}
}
