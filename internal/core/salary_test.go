package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeSalary(t *testing.T) {
	cases := []struct {
		name        string
		gross       int64
		freq        Frequency
		daysOff     int
		wantMonthly string
		wantDaily   string
		workdays    int
	}{
		{"monthly two days off", 30000, Monthly, 2, "30000.00", "1363.64", 22},
		{"weekly one day off", 7000, Weekly, 1, "30416.67", "1169.87", 26},
		{"fortnightly two days off", 14000, Fortnightly, 2, "30416.67", "1382.58", 22},
		{"unknown frequency counts as monthly", 1000, Frequency("Daily"), 1, "1000.00", "38.46", 26},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeSalary(decimal.NewFromInt(tc.gross), tc.freq, tc.daysOff, Deductions{})
			if s := got.MonthlyIncome.StringFixed(2); s != tc.wantMonthly {
				t.Fatalf("monthly = %s, want %s", s, tc.wantMonthly)
			}
			if s := got.DailyIncome.StringFixed(2); s != tc.wantDaily {
				t.Fatalf("daily = %s, want %s", s, tc.wantDaily)
			}
			if got.WorkdaysInMonth != tc.workdays {
				t.Fatalf("workdays = %d, want %d", got.WorkdaysInMonth, tc.workdays)
			}
		})
	}
}

func TestComputeSalaryDeductions(t *testing.T) {
	d := Deductions{
		SSS:        decimal.NewFromInt(1125),
		PhilHealth: decimal.NewFromInt(750),
		PagIBIG:    decimal.NewFromInt(200),
		Tax:        decimal.RequireFromString("1875.50"),
		Loans:      decimal.Zero,
		Voluntary:  decimal.NewFromInt(49),
	}
	got := ComputeSalary(decimal.NewFromInt(30000), Monthly, 2, d)
	if !got.TotalDeductions.Equal(decimal.RequireFromString("3999.5")) {
		t.Fatalf("total = %s", got.TotalDeductions)
	}
	if !got.NetMonthly.Equal(decimal.RequireFromString("26000.5")) {
		t.Fatalf("net = %s", got.NetMonthly)
	}
}

func TestSalaryFormNeverFails(t *testing.T) {
	f := SalaryForm{
		Salary:        "30,000",
		Frequency:     "Monthly",
		DayOffInMonth: float64(2),
		SSS:           "abc",
		PhilHealth:    nil,
		Tax:           "500",
		Loans:         float64(250.5),
	}
	got := f.Details().Breakdown()
	if got.MonthlyIncome.StringFixed(2) != "30000.00" {
		t.Fatalf("monthly = %s", got.MonthlyIncome)
	}
	if !got.TotalDeductions.Equal(decimal.RequireFromString("750.5")) {
		t.Fatalf("deductions = %s", got.TotalDeductions)
	}

	empty := SalaryForm{}.Details().Breakdown()
	if !empty.MonthlyIncome.IsZero() || !empty.DailyIncome.IsZero() || !empty.TotalDeductions.IsZero() {
		t.Fatalf("empty form should compute zeros: %+v", empty)
	}
}

func TestComputeSalaryIsPure(t *testing.T) {
	a := ComputeSalary(decimal.NewFromInt(7000), Weekly, 1, Deductions{Tax: decimal.NewFromInt(10)})
	b := ComputeSalary(decimal.NewFromInt(7000), Weekly, 1, Deductions{Tax: decimal.NewFromInt(10)})
	if !a.MonthlyIncome.Equal(b.MonthlyIncome) || !a.DailyIncome.Equal(b.DailyIncome) || !a.TotalDeductions.Equal(b.TotalDeductions) {
		t.Fatalf("repeated calls differ: %+v vs %+v", a, b)
	}
}
