package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
	"pitaka/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pitaka.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, newTestRepo(t))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pitaka.db")
	first, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestAmountsKeepPrecision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	want := decimal.RequireFromString("1234567.89")
	if _, err := repo.SaveExpense(ctx, "u1", core.ExpenseEntry{Name: "Laptop", Category: "Shopping", ExpenseAmount: want, ExpenseDate: core.NewDate(2024, 7, 4)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || !got[0].ExpenseAmount.Equal(want) || got[0].ExpenseDate.String() != "2024-07-04" {
		t.Fatalf("unexpected expense %+v", got)
	}
}
