// Package memory is an in-process Store used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pitaka/internal/core"
	"pitaka/internal/store"
)

type userData struct {
	banks    []core.BankAccount
	incomes  []core.IncomeEntry
	expenses []core.ExpenseEntry
	salary   *core.SalaryDetails
	profile  *core.UserProfile
}

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]*userData
	accounts map[string]store.Account // by id
	byEmail  map[string]string        // email -> id
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests pin the write timestamps.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:      now,
		users:    map[string]*userData{},
		accounts: map[string]store.Account{},
		byEmail:  map[string]string{},
	}
}

func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{}
		s.users[userID] = u
	}
	return u
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListBanks(_ context.Context, userID string) ([]core.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.BankAccount(nil), s.user(userID).banks...)
	store.SortBanks(out)
	return out, nil
}

func (s *Store) SaveBank(_ context.Context, userID string, b core.BankAccount) (core.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if store.Stamp(&b.ID, &b.CreatedAt, &b.LastUpdated, store.Timestamp(s.now())) {
		u.banks = append(u.banks, b)
		return b, nil
	}
	for i := range u.banks {
		if u.banks[i].ID == b.ID {
			b.CreatedAt = u.banks[i].CreatedAt
			u.banks[i] = b
			return b, nil
		}
	}
	return core.BankAccount{}, fmt.Errorf("bank %s: %w", b.ID, store.ErrNotFound)
}

func (s *Store) ListIncomes(_ context.Context, userID string) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.IncomeEntry(nil), s.user(userID).incomes...)
	store.SortIncomes(out)
	return out, nil
}

func (s *Store) SaveIncome(_ context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if store.Stamp(&in.ID, &in.CreatedAt, &in.LastUpdated, store.Timestamp(s.now())) {
		u.incomes = append(u.incomes, in)
		return in, nil
	}
	for i := range u.incomes {
		if u.incomes[i].ID == in.ID {
			in.CreatedAt = u.incomes[i].CreatedAt
			u.incomes[i] = in
			return in, nil
		}
	}
	return core.IncomeEntry{}, fmt.Errorf("income %s: %w", in.ID, store.ErrNotFound)
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.ExpenseEntry(nil), s.user(userID).expenses...)
	store.SortExpenses(out)
	return out, nil
}

func (s *Store) SaveExpense(_ context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if store.Stamp(&e.ID, &e.CreatedAt, &e.LastUpdated, store.Timestamp(s.now())) {
		u.expenses = append(u.expenses, e)
		return e, nil
	}
	for i := range u.expenses {
		if u.expenses[i].ID == e.ID {
			e.CreatedAt = u.expenses[i].CreatedAt
			u.expenses[i] = e
			return e, nil
		}
	}
	return core.ExpenseEntry{}, fmt.Errorf("expense %s: %w", e.ID, store.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.expenses {
		if u.expenses[i].ID == id {
			u.expenses = append(u.expenses[:i], u.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("expense %s: %w", id, store.ErrNotFound)
}

func (s *Store) GetSalary(_ context.Context, userID string) (core.SalaryDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sal := s.user(userID).salary; sal != nil {
		return *sal, nil
	}
	return core.SalaryDetails{}, store.ErrNotFound
}

func (s *Store) SaveSalary(_ context.Context, userID string, sal core.SalaryDetails) (core.SalaryDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sal.LastUpdated = store.Timestamp(s.now())
	s.user(userID).salary = &sal
	return sal, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.user(userID).profile; p != nil {
		return *p, nil
	}
	return core.UserProfile{}, store.ErrNotFound
}

func (s *Store) SaveProfile(_ context.Context, userID string, p core.UserProfile) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.LastUpdated = store.Timestamp(s.now())
	s.user(userID).profile = &p
	return p, nil
}

func (s *Store) CreateAccount(_ context.Context, a store.Account) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if _, ok := s.byEmail[a.Email]; ok {
		return store.Account{}, fmt.Errorf("account %s: %w", a.Email, store.ErrDuplicate)
	}
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.CreatedAt = store.Timestamp(s.now())
	s.accounts[a.ID] = a
	s.byEmail[a.Email] = a.ID
	return a, nil
}

func (s *Store) AccountByEmail(_ context.Context, email string) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) AccountByID(_ context.Context, id string) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return a, nil
}
