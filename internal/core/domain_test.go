package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 1))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-01-01"` {
		t.Fatalf("got %s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-05T10:00:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal rfc3339: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 5 {
		t.Fatalf("unexpected date %v", d)
	}

	if !d.Equal(NewDate(2024, 3, 5).Time) {
		t.Fatalf("timestamp should keep only the calendar date, got %v", d.Time)
	}

	if err := json.Unmarshal([]byte(`"05/03/2024"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseDateDropsTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2024-03-05", NewDate(2024, 3, 5)},
		{"2024-03-05T10:00:00Z", NewDate(2024, 3, 5)},
		{"2024-03-05T23:30:00+08:00", NewDate(2024, 3, 5)},
		{"2024-03-05T00:15:00-05:00", NewDate(2024, 3, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}
			if !got.Equal(tc.want.Time) || got.Location() != time.UTC {
				t.Fatalf("got %v, want %v", got.Time, tc.want.Time)
			}
			if got.String() != tc.want.String() {
				t.Fatalf("String() = %q", got.String())
			}
		})
	}
}

func TestBankAccountNormalizeValidate(t *testing.T) {
	b := BankAccount{BankName: " BDO ", FullName: "Juan Dela Cruz", Amount: decimal.NewFromInt(-50)}
	b.Normalize()
	if b.Last4Digits != UnknownLast4 {
		t.Fatalf("expected sentinel digits, got %q", b.Last4Digits)
	}
	if b.BankName != "BDO" {
		t.Fatalf("expected trimmed bank name, got %q", b.BankName)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok (negative balances allowed), got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*BankAccount)
		want error
	}{
		{"missing bank", func(b *BankAccount) { b.BankName = "" }, ErrEmptyBankName},
		{"missing holder", func(b *BankAccount) { b.FullName = "" }, ErrEmptyName},
		{"short digits", func(b *BankAccount) { b.Last4Digits = "123" }, ErrInvalidLast4},
		{"letters in digits", func(b *BankAccount) { b.Last4Digits = "12a4" }, ErrInvalidLast4},
		{"bad month", func(b *BankAccount) { b.ExpirationDate = "13/27" }, ErrInvalidExpiration},
		{"bad layout", func(b *BankAccount) { b.ExpirationDate = "1/27" }, ErrInvalidExpiration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := BankAccount{BankName: "BPI", FullName: "Ana", Last4Digits: "4321", ExpirationDate: "08/27"}
			tc.mod(&acc)
			if err := acc.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	good := IncomeEntry{BusinessName: "Acme", Industry: "Retail", IncomeAmount: decimal.NewFromInt(100), IncomeDate: NewDate(2024, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []IncomeEntry{
		{BusinessName: "", IncomeAmount: decimal.NewFromInt(1), IncomeDate: NewDate(2024, 1, 1)},
		{BusinessName: "a", IncomeAmount: decimal.NewFromInt(-1), IncomeDate: NewDate(2024, 1, 1)},
		{BusinessName: "a", IncomeAmount: decimal.NewFromInt(1)},
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := ExpenseEntry{Name: "Rent", Category: "Bills", ExpenseAmount: decimal.NewFromInt(500), ExpenseDate: NewDate(2024, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []ExpenseEntry{
		{Name: "", Category: "Bills", ExpenseAmount: decimal.NewFromInt(1), ExpenseDate: NewDate(2024, 1, 1)},
		{Name: "a", Category: "Groceries", ExpenseAmount: decimal.NewFromInt(1), ExpenseDate: NewDate(2024, 1, 1)},
		{Name: "a", Category: "Food", ExpenseAmount: decimal.NewFromInt(-1), ExpenseDate: NewDate(2024, 1, 1)},
		{Name: "a", Category: "Food", ExpenseAmount: decimal.NewFromInt(1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSalaryValidate(t *testing.T) {
	s := SalaryDetails{Salary: decimal.NewFromInt(30000), Frequency: Monthly, DayOffInMonth: 2}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	s.Frequency = "Daily"
	if err := s.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	s.Frequency = Weekly
	s.DayOffInMonth = 3
	if err := s.Validate(); !errors.Is(err, ErrInvalidDayOff) {
		t.Fatalf("expected ErrInvalidDayOff, got %v", err)
	}
	s.DayOffInMonth = 1
	s.Tax = decimal.NewFromInt(-1)
	if err := s.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	p := UserProfile{Name: "Ana", Email: "ana@example.com"}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, email := range []string{"", "ana", "Ana <ana@example.com>", "ana@example"} {
		p.Email = email
		if err := p.Validate(); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRecordPath(t *testing.T) {
	if got := RecordPath("pitaka", "u1", KindExpenses); got != "pitaka/u1/expenses" {
		t.Fatalf("got %q", got)
	}
	if RecordKind("accounts").IsValid() {
		t.Fatalf("unexpected valid kind")
	}
}
