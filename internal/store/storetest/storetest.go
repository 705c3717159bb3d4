// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
	"pitaka/internal/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	t.Run("banks", func(t *testing.T) { testBanks(t, s) })
	t.Run("incomes", func(t *testing.T) { testIncomes(t, s) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, s) })
	t.Run("singletons", func(t *testing.T) { testSingletons(t, s) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, s) })
}

func testBanks(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.SaveBank(ctx, "u1", core.BankAccount{BankName: "BDO", FullName: "Ana", Last4Digits: "1234", Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() || !first.CreatedAt.Equal(first.LastUpdated) {
		t.Fatalf("create did not stamp record: %+v", first)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := s.SaveBank(ctx, "u1", core.BankAccount{BankName: "BPI", FullName: "Ana", Last4Digits: "0000", Amount: decimal.NewFromInt(-5)})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	first.Amount = decimal.NewFromInt(250)
	updated, err := s.SaveBank(ctx, "u1", first)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(first.CreatedAt) || !updated.LastUpdated.After(first.CreatedAt) {
		t.Fatalf("update timestamps wrong: %+v", updated)
	}

	banks, err := s.ListBanks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(banks) != 2 || banks[0].ID != first.ID || banks[1].ID != second.ID {
		t.Fatalf("expected oldest first, got %+v", banks)
	}
	if !banks[0].Amount.Equal(decimal.NewFromInt(250)) || !banks[1].Amount.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("amounts not persisted: %s %s", banks[0].Amount, banks[1].Amount)
	}

	other, err := s.ListBanks(ctx, "u2")
	if err != nil || len(other) != 0 {
		t.Fatalf("records leaked across users: %v %v", other, err)
	}

	_, err = s.SaveBank(ctx, "u2", first)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update from another user should be ErrNotFound, got %v", err)
	}
}

func testIncomes(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, d := range []core.Date{core.NewDate(2024, 1, 5), core.NewDate(2024, 3, 1), core.NewDate(2023, 12, 25)} {
		if _, err := s.SaveIncome(ctx, "u1", core.IncomeEntry{BusinessName: "Acme", IncomeAmount: decimal.RequireFromString("10.50"), IncomeDate: d}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	incomes, err := s.ListIncomes(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(incomes) != 3 {
		t.Fatalf("expected 3 incomes, got %d", len(incomes))
	}
	if incomes[0].IncomeDate.String() != "2024-03-01" || incomes[2].IncomeDate.String() != "2023-12-25" {
		t.Fatalf("expected newest first, got %s .. %s", incomes[0].IncomeDate, incomes[2].IncomeDate)
	}
	if !incomes[0].IncomeAmount.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("amount = %s", incomes[0].IncomeAmount)
	}

	_, err = s.SaveIncome(ctx, "u1", core.IncomeEntry{ID: "missing", BusinessName: "x", IncomeDate: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testExpenses(t *testing.T, s store.Store) {
	ctx := context.Background()
	rent, err := s.SaveExpense(ctx, "u1", core.ExpenseEntry{Name: "Rent", Category: "Bills", ExpenseAmount: decimal.NewFromInt(500), ExpenseDate: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	lunch, err := s.SaveExpense(ctx, "u1", core.ExpenseEntry{Name: "Lunch", Category: "Food", ExpenseAmount: decimal.NewFromInt(150), ExpenseDate: core.NewDate(2024, 1, 2)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	expenses, err := s.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(expenses) != 2 || expenses[0].ID != lunch.ID {
		t.Fatalf("expected newest first, got %+v", expenses)
	}

	if err := s.DeleteExpense(ctx, "u2", rent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete from another user should be ErrNotFound, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", rent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", rent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	expenses, _ = s.ListExpenses(ctx, "u1")
	if len(expenses) != 1 || expenses[0].ID != lunch.ID {
		t.Fatalf("unexpected expenses after delete: %+v", expenses)
	}
}

func testSingletons(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.GetSalary(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing salary, got %v", err)
	}
	sal := core.SalaryDetails{Salary: decimal.NewFromInt(30000), Frequency: core.Monthly, DayOffInMonth: 2, Tax: decimal.RequireFromString("1200.25")}
	if _, err := s.SaveSalary(ctx, "u1", sal); err != nil {
		t.Fatalf("save salary: %v", err)
	}
	sal.Frequency = core.Weekly
	if _, err := s.SaveSalary(ctx, "u1", sal); err != nil {
		t.Fatalf("overwrite salary: %v", err)
	}
	got, err := s.GetSalary(ctx, "u1")
	if err != nil {
		t.Fatalf("get salary: %v", err)
	}
	if got.Frequency != core.Weekly || !got.Tax.Equal(sal.Tax) || got.LastUpdated.IsZero() {
		t.Fatalf("unexpected salary %+v", got)
	}

	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing profile, got %v", err)
	}
	p := core.UserProfile{Name: "Ana", Email: "ana@example.com", ReceiveEmailNotifications: true}
	if _, err := s.SaveProfile(ctx, "u1", p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	gotP, err := s.GetProfile(ctx, "u1")
	if err != nil || gotP.Name != "Ana" || !gotP.ReceiveEmailNotifications {
		t.Fatalf("unexpected profile %+v err=%v", gotP, err)
	}
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.CreateAccount(ctx, store.Account{Email: "Ana@Example.com", DisplayName: "Ana", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || a.Email != "ana@example.com" {
		t.Fatalf("unexpected account %+v", a)
	}
	if _, err := s.CreateAccount(ctx, store.Account{Email: "ana@example.com", PasswordHash: "x"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	byEmail, err := s.AccountByEmail(ctx, "ANA@example.com")
	if err != nil || byEmail.ID != a.ID {
		t.Fatalf("by email: %+v %v", byEmail, err)
	}
	byID, err := s.AccountByID(ctx, a.ID)
	if err != nil || byID.DisplayName != "Ana" || byID.PasswordHash != "h" {
		t.Fatalf("by id: %+v %v", byID, err)
	}
	if _, err := s.AccountByID(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
