// Package subscription keeps listeners in step with a user's records. A
// listener first receives the current snapshot of one record kind and then a
// fresh snapshot after every change to it.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pitaka/internal/core"
	"pitaka/internal/log"
	"pitaka/internal/store"
)

var ErrUnknownKind = errors.New("unknown record kind")

// Update is one delivery. Data holds []core.BankAccount, []core.IncomeEntry,
// []core.ExpenseEntry, *core.SalaryDetails or *core.UserProfile depending on
// Kind; the singletons are nil until saved. Err is set when a reload failed.
type Update struct {
	UserID string          `json:"userId"`
	Kind   core.RecordKind `json:"kind"`
	Data   any             `json:"data"`
	Err    error           `json:"-"`
	At     time.Time       `json:"at"`
}

// Listener receives updates one at a time, never concurrently with itself.
type Listener func(Update)

// LoaderFunc reads the current snapshot of one kind.
type LoaderFunc func(ctx context.Context, userID string, kind core.RecordKind) (any, error)

type key struct {
	userID string
	kind   core.RecordKind
}

// keyMutex is dropped from Hub.locks once nobody holds or waits on it.
type keyMutex struct {
	sync.Mutex
	refs int
}

type Hub struct {
	load   LoaderFunc
	now    func() time.Time
	logger *log.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[key]map[uint64]*Subscription
	locks  map[key]*keyMutex
}

func NewHub(load LoaderFunc, logger *log.Logger) *Hub {
	return &Hub{
		load:   load,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentSubscription),
		subs:   map[key]map[uint64]*Subscription{},
		locks:  map[key]*keyMutex{},
	}
}

// StoreLoader reads snapshots straight from a record store.
func StoreLoader(st store.RecordStore) LoaderFunc {
	return func(ctx context.Context, userID string, kind core.RecordKind) (any, error) {
		switch kind {
		case core.KindBanks:
			return st.ListBanks(ctx, userID)
		case core.KindIncomes:
			return st.ListIncomes(ctx, userID)
		case core.KindExpenses:
			return st.ListExpenses(ctx, userID)
		case core.KindSalary:
			s, err := st.GetSalary(ctx, userID)
			if errors.Is(err, store.ErrNotFound) {
				return (*core.SalaryDetails)(nil), nil
			}
			if err != nil {
				return nil, err
			}
			return &s, nil
		case core.KindProfile:
			p, err := st.GetProfile(ctx, userID)
			if errors.Is(err, store.ErrNotFound) {
				return (*core.UserProfile)(nil), nil
			}
			if err != nil {
				return nil, err
			}
			return &p, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}
}

// lockKey serializes loads per (user, kind) so snapshots are queued in the
// order they were read. The returned func releases the lock.
func (h *Hub) lockKey(k key) func() {
	h.mu.Lock()
	l, ok := h.locks[k]
	if !ok {
		l = &keyMutex{}
		h.locks[k] = l
	}
	l.refs++
	h.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		h.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, k)
		}
		h.mu.Unlock()
	}
}

// Subscribe registers listener for one kind of the user's records and queues
// the current snapshot as its first update.
func (h *Hub) Subscribe(ctx context.Context, userID string, kind core.RecordKind, listener Listener) (*Subscription, error) {
	return h.SubscribeSession(ctx, userID, "", kind, listener)
}

// SubscribeSession is Subscribe for a listener tied to one sign-in session,
// so CancelSession can end it without touching the user's other devices.
func (h *Hub) SubscribeSession(ctx context.Context, userID, sessionID string, kind core.RecordKind, listener Listener) (*Subscription, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if userID == "" {
		return nil, errors.New("subscribe: user id is required")
	}
	k := key{userID: userID, kind: kind}

	unlock := h.lockKey(k)
	defer unlock()

	data, err := h.load(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	h.mu.Lock()
	h.nextID++
	sub := &Subscription{hub: h, id: h.nextID, key: k, session: sessionID, listener: listener, done: make(chan struct{})}
	if h.subs[k] == nil {
		h.subs[k] = map[uint64]*Subscription{}
	}
	h.subs[k][sub.id] = sub
	h.mu.Unlock()

	sub.deliver(Update{UserID: userID, Kind: kind, Data: data, At: h.now()})
	h.logger.DebugContext(ctx, "Subscription registered", log.FieldUserID, userID, log.FieldRecordKind, string(kind))
	return sub, nil
}

// Notify reloads the user's records of kind and pushes the snapshot to every
// listener of that kind. It is a no-op when nobody listens.
func (h *Hub) Notify(ctx context.Context, userID string, kind core.RecordKind) {
	k := key{userID: userID, kind: kind}
	if len(h.listeners(k)) == 0 {
		return
	}

	unlock := h.lockKey(k)
	defer unlock()

	subs := h.listeners(k)
	if len(subs) == 0 {
		return
	}

	u := Update{UserID: userID, Kind: kind, At: h.now()}
	u.Data, u.Err = h.load(ctx, userID, kind)
	if u.Err != nil {
		h.logger.ErrorContext(ctx, "Failed to reload snapshot",
			log.FieldUserID, userID, log.FieldRecordKind, string(kind), log.FieldError, u.Err)
	}
	for _, s := range subs {
		s.deliver(u)
	}
}

// CancelSession cancels the subscriptions opened under one sign-in session
// of userID. An empty sessionID matches nothing.
func (h *Hub) CancelSession(userID, sessionID string) int {
	if sessionID == "" {
		return 0
	}
	return h.cancelWhere(func(s *Subscription) bool {
		return s.key.userID == userID && s.session == sessionID
	})
}

func (h *Hub) cancelWhere(match func(*Subscription) bool) int {
	var toCancel []*Subscription
	h.mu.Lock()
	for _, subs := range h.subs {
		for _, s := range subs {
			if match(s) {
				toCancel = append(toCancel, s)
			}
		}
	}
	h.mu.Unlock()

	for _, s := range toCancel {
		s.Cancel()
	}
	return len(toCancel)
}

// Close cancels all subscriptions.
func (h *Hub) Close() {
	var all []*Subscription
	h.mu.Lock()
	for _, subs := range h.subs {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.Cancel()
	}
}

// Count returns the number of live subscriptions owned by userID.
func (h *Hub) Count(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for k, subs := range h.subs {
		if k.userID == userID {
			n += len(subs)
		}
	}
	return n
}

func (h *Hub) listeners(k key) []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Subscription, 0, len(h.subs[k]))
	for _, s := range h.subs[k] {
		out = append(out, s)
	}
	return out
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[s.key]
	delete(subs, s.id)
	if len(subs) == 0 {
		delete(h.subs, s.key)
	}
}
