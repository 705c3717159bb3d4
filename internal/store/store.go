// Package store defines the persistence ports for user records and accounts.
//
// Every record lives in a per-user namespace; implementations must scope all
// reads and writes by user id. Saves follow one rule across backends: an
// empty ID creates the record (new id, createdAt = lastUpdated = now), a set
// ID updates it (createdAt preserved, lastUpdated refreshed) and fails with
// ErrNotFound when the id is unknown for that user.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"pitaka/internal/core"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Ports for the record backends.
type (
	RecordStore interface {
		ListBanks(ctx context.Context, userID string) ([]core.BankAccount, error)
		SaveBank(ctx context.Context, userID string, b core.BankAccount) (core.BankAccount, error)

		ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error)
		SaveIncome(ctx context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error)

		ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error)
		SaveExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error)
		DeleteExpense(ctx context.Context, userID, id string) error

		// GetSalary returns ErrNotFound when the user has not saved one yet.
		GetSalary(ctx context.Context, userID string) (core.SalaryDetails, error)
		SaveSalary(ctx context.Context, userID string, s core.SalaryDetails) (core.SalaryDetails, error)

		// GetProfile returns ErrNotFound when no profile exists.
		GetProfile(ctx context.Context, userID string) (core.UserProfile, error)
		SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error)

		Ping(ctx context.Context) error
	}

	AccountStore interface {
		// CreateAccount fails with ErrDuplicate when the email is taken.
		CreateAccount(ctx context.Context, a Account) (Account, error)
		AccountByEmail(ctx context.Context, email string) (Account, error)
		AccountByID(ctx context.Context, id string) (Account, error)
	}

	// Store is what a backend provides.
	Store interface {
		RecordStore
		AccountStore
	}
)

// Account is a sign-in identity. Email is stored lower-cased.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// Timestamp normalizes t to the precision every backend can round-trip.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Stamp applies the create-or-update timestamps. It returns true when the
// record is new and was given an id.
func Stamp(id *string, createdAt, lastUpdated *time.Time, now time.Time) bool {
	*lastUpdated = now
	if *id != "" {
		return false
	}
	*id = NewID()
	*createdAt = now
	return true
}

// SortBanks orders accounts oldest first.
func SortBanks(banks []core.BankAccount) {
	sort.SliceStable(banks, func(i, j int) bool {
		return banks[i].CreatedAt.Before(banks[j].CreatedAt)
	})
}

// SortIncomes orders incomes by date, newest first.
func SortIncomes(incomes []core.IncomeEntry) {
	sort.SliceStable(incomes, func(i, j int) bool {
		a, b := incomes[i], incomes[j]
		if !a.IncomeDate.Equal(b.IncomeDate.Time) {
			return a.IncomeDate.After(b.IncomeDate.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// SortExpenses orders expenses by date, newest first, then by creation.
func SortExpenses(expenses []core.ExpenseEntry) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.ExpenseDate.Equal(b.ExpenseDate.Time) {
			return a.ExpenseDate.After(b.ExpenseDate.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
