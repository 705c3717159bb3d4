package core

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func expenseOn(y, m, d int, amount int64) ExpenseEntry {
	return ExpenseEntry{
		Name:          "x",
		Category:      "Food",
		ExpenseAmount: decimal.NewFromInt(amount),
		ExpenseDate:   NewDate(y, m, d),
	}
}

func TestFilterByPeriodAllIsIdentity(t *testing.T) {
	records := []ExpenseEntry{expenseOn(2020, 5, 1, 10), expenseOn(2024, 1, 1, 20), expenseOn(2030, 12, 31, 30)}
	ref := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	got, sum := FilterByPeriod(records, PeriodAll, ref)
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("all period changed the input")
	}
	if !sum.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("sum = %s, want 60", sum)
	}
}

func TestFilterByPeriodDay(t *testing.T) {
	rec := expenseOn(2024, 1, 1, 500)
	records := []ExpenseEntry{rec}

	got, sum := FilterByPeriod(records, PeriodDay, rec.ExpenseDate.Time)
	if len(got) != 1 || !sum.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("same day: got %d records sum %s", len(got), sum)
	}

	got, sum = FilterByPeriod(records, PeriodDay, rec.ExpenseDate.AddDate(0, 0, 1))
	if len(got) != 0 || !sum.IsZero() {
		t.Fatalf("next day: got %d records sum %s", len(got), sum)
	}
}

func TestFilterByPeriodWindows(t *testing.T) {
	// Wednesday; the week runs Sunday 7 Jan to Saturday 13 Jan.
	ref := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	records := []ExpenseEntry{
		expenseOn(2024, 1, 6, 1),   // previous Saturday
		expenseOn(2024, 1, 7, 2),   // Sunday
		expenseOn(2024, 1, 10, 4),  // today
		expenseOn(2024, 1, 13, 8),  // Saturday
		expenseOn(2024, 1, 14, 16), // next Sunday
		expenseOn(2024, 2, 1, 32),
		expenseOn(2023, 1, 10, 64),
	}

	cases := []struct {
		period Period
		want   int64
		count  int
	}{
		{PeriodDay, 4, 1},
		{PeriodWeek, 2 + 4 + 8, 3},
		{PeriodMonth, 1 + 2 + 4 + 8 + 16, 5},
		{PeriodYear, 1 + 2 + 4 + 8 + 16 + 32, 6},
		{PeriodAll, 127, 7},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			got, sum := FilterByPeriod(records, tc.period, ref)
			if len(got) != tc.count {
				t.Fatalf("count = %d, want %d", len(got), tc.count)
			}
			if !sum.Equal(decimal.NewFromInt(tc.want)) {
				t.Fatalf("sum = %s, want %d", sum, tc.want)
			}
		})
	}
}

func TestFilterByPeriodUsesReferenceLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	// 00:30 on 2 Jan in Manila is still 1 Jan in UTC.
	ref := time.Date(2024, 1, 2, 0, 30, 0, 0, manila)
	records := []IncomeEntry{{BusinessName: "a", IncomeAmount: decimal.NewFromInt(5), IncomeDate: NewDate(2024, 1, 2)}}

	got, _ := FilterByPeriod(records, PeriodDay, ref)
	if len(got) != 1 {
		t.Fatalf("expected calendar date to match in reference zone")
	}
}

func TestFilterByPeriodIsPure(t *testing.T) {
	ref := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	records := []ExpenseEntry{expenseOn(2024, 1, 9, 3), expenseOn(2024, 1, 20, 5)}

	a, sa := FilterByPeriod(records, PeriodWeek, ref)
	b, sb := FilterByPeriod(records, PeriodWeek, ref)
	if !reflect.DeepEqual(a, b) || !sa.Equal(sb) {
		t.Fatalf("repeated calls differ")
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodAll, "Week": PeriodWeek, " month ": PeriodMonth, "all": PeriodAll} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Fatalf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("decade"); err == nil {
		t.Fatalf("expected error")
	}
}
