package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastPoints is the number of monthly balance projections, including the
// current balance at index 0.
const ForecastPoints = 7

// Snapshot is every record a user owns at one point in time.
type Snapshot struct {
	Banks    []BankAccount  `json:"banks"`
	Incomes  []IncomeEntry  `json:"incomes"`
	Expenses []ExpenseEntry `json:"expenses"`
	Salary   *SalaryDetails `json:"salary,omitempty"`
	Profile  *UserProfile   `json:"profile,omitempty"`
}

// Summary holds the dashboard figures.
//
// TotalIncome and TotalExpenses are all-time sums even though the dashboard
// labels them year-to-date; IncomeThisYear and ExpensesThisYear carry the
// calendar-year figures.
type Summary struct {
	TotalBankBalance   decimal.Decimal                 `json:"totalBankBalance"`
	TotalIncome        decimal.Decimal                 `json:"totalIncome"`
	TotalExpenses      decimal.Decimal                 `json:"totalExpenses"`
	IncomeThisYear     decimal.Decimal                 `json:"incomeThisYear"`
	ExpensesThisYear   decimal.Decimal                 `json:"expensesThisYear"`
	UpcomingIncome     decimal.Decimal                 `json:"upcomingIncome"`
	MonthlyNetCashFlow decimal.Decimal                 `json:"monthlyNetCashFlow"`
	Forecast           [ForecastPoints]decimal.Decimal `json:"forecast"`
	Salary             *SalaryBreakdown                `json:"salary,omitempty"`
	GeneratedAt        time.Time                       `json:"generatedAt"`
}

// Aggregate computes the dashboard summary for snap as seen at ref.
// Missing collections count as empty and a missing salary as zero cash flow.
func Aggregate(snap Snapshot, ref time.Time) Summary {
	s := Summary{GeneratedAt: ref}

	for _, b := range snap.Banks {
		s.TotalBankBalance = s.TotalBankBalance.Add(b.Amount)
	}
	s.TotalIncome = SumAmounts(snap.Incomes)
	s.TotalExpenses = SumAmounts(snap.Expenses)
	_, s.IncomeThisYear = FilterByPeriod(snap.Incomes, PeriodYear, ref)
	_, s.ExpensesThisYear = FilterByPeriod(snap.Expenses, PeriodYear, ref)
	s.UpcomingIncome = UpcomingIncome(snap.Incomes, ref)

	if snap.Salary != nil {
		b := snap.Salary.Breakdown()
		s.Salary = &b
		s.MonthlyNetCashFlow = b.NetMonthly
	}
	s.Forecast = Forecast(s.TotalBankBalance, s.MonthlyNetCashFlow)
	return s
}

// UpcomingIncome sums incomes dated strictly after the start of ref's day.
func UpcomingIncome(incomes []IncomeEntry, ref time.Time) decimal.Decimal {
	start := StartOfDay(ref)
	total := decimal.Zero
	for _, in := range incomes {
		if in.IncomeDate.IsZero() {
			continue
		}
		if wallClockIn(in.IncomeDate.Time, ref.Location()).After(start) {
			total = total.Add(in.IncomeAmount)
		}
	}
	return total
}

// Forecast projects balance forward one month per step by adding net. Each
// step is rounded to two places before the next one builds on it.
func Forecast(balance, net decimal.Decimal) [ForecastPoints]decimal.Decimal {
	var out [ForecastPoints]decimal.Decimal
	out[0] = balance.Round(2)
	for i := 1; i < ForecastPoints; i++ {
		out[i] = out[i-1].Add(net).Round(2)
	}
	return out
}

func wallClockIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
