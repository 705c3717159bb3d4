package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Period selects the calendar window a list of records is narrowed to.
type Period string

// Dated is implemented by records that carry a date and an amount.
type Dated interface {
	DatedAmount() (time.Time, decimal.Decimal)
}

// ParsePeriod accepts the lower-case period names; empty means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return PeriodAll, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

func (i IncomeEntry) DatedAmount() (time.Time, decimal.Decimal) {
	return i.IncomeDate.Time, i.IncomeAmount
}

func (e ExpenseEntry) DatedAmount() (time.Time, decimal.Decimal) {
	return e.ExpenseDate.Time, e.ExpenseAmount
}

// FilterByPeriod returns the records dated inside period p around ref, and
// the sum of their amounts. PeriodAll returns records unchanged. The function
// is pure: ref is the only notion of "now" it uses.
func FilterByPeriod[T Dated](records []T, p Period, ref time.Time) ([]T, decimal.Decimal) {
	total := decimal.Zero
	if p == PeriodAll || p == "" {
		for _, r := range records {
			_, amt := r.DatedAmount()
			total = total.Add(amt)
		}
		return records, total
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		date, amt := r.DatedAmount()
		if !InPeriod(date, p, ref) {
			continue
		}
		out = append(out, r)
		total = total.Add(amt)
	}
	return out, total
}

// SumAmounts totals the amounts of records without filtering.
func SumAmounts[T Dated](records []T) decimal.Decimal {
	_, total := FilterByPeriod(records, PeriodAll, time.Time{})
	return total
}

// InPeriod reports whether date falls in period p relative to ref. The date's
// wall clock is read in ref's location, so a stored calendar date keeps its
// day regardless of the zone it was saved in. Weeks start on Sunday.
func InPeriod(date time.Time, p Period, ref time.Time) bool {
	if date.IsZero() {
		return p == PeriodAll
	}
	d := wallClockIn(date, ref.Location())

	switch p {
	case PeriodAll, "":
		return true
	case PeriodDay:
		return d.Year() == ref.Year() && d.Month() == ref.Month() && d.Day() == ref.Day()
	case PeriodWeek:
		start := StartOfDay(ref).AddDate(0, 0, -int(ref.Weekday()))
		end := start.AddDate(0, 0, 7)
		return !d.Before(start) && d.Before(end)
	case PeriodMonth:
		return d.Year() == ref.Year() && d.Month() == ref.Month()
	case PeriodYear:
		return d.Year() == ref.Year()
	default:
		return false
	}
}

// StartOfDay truncates t to local midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
