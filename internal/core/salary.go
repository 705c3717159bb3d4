package core

import "github.com/shopspring/decimal"

// Workday constants used to turn a monthly figure into a daily one. They are
// fixed, not derived from the calendar.
const (
	WorkdaysOneDayOff  = 26
	WorkdaysTwoDaysOff = 22
)

var (
	daysPerYear      = decimal.NewFromInt(365)
	weeksDivisor     = decimal.NewFromInt(7 * 12)
	fortnightDivisor = decimal.NewFromInt(14 * 12)
)

// Deductions are the six monthly contributions subtracted from gross pay.
type Deductions struct {
	SSS        decimal.Decimal `json:"sss"`
	PhilHealth decimal.Decimal `json:"philhealth"`
	PagIBIG    decimal.Decimal `json:"pagibig"`
	Tax        decimal.Decimal `json:"tax"`
	Loans      decimal.Decimal `json:"loans"`
	Voluntary  decimal.Decimal `json:"voluntary"`
}

// SalaryBreakdown is the derived view of a salary record.
type SalaryBreakdown struct {
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	DailyIncome     decimal.Decimal `json:"dailyIncome"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetMonthly      decimal.Decimal `json:"netMonthly"`
	WorkdaysInMonth int             `json:"workdaysInMonth"`
}

// SalaryForm carries salary fields exactly as typed. Each field may hold a
// string or a JSON number; anything unparsable counts as zero.
type SalaryForm struct {
	Salary        any    `json:"salary"`
	Frequency     string `json:"frequency"`
	DayOffInMonth any    `json:"dayOffInMonth"`
	SSS           any    `json:"sss"`
	PhilHealth    any    `json:"philhealth"`
	PagIBIG       any    `json:"pagibig"`
	Tax           any    `json:"tax"`
	Loans         any    `json:"loans"`
	Voluntary     any    `json:"voluntary"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.SSS.Add(d.PhilHealth).Add(d.PagIBIG).Add(d.Tax).Add(d.Loans).Add(d.Voluntary)
}

// MonthlyIncome converts gross pay at the given frequency to an average
// month: weekly and fortnightly pay are annualized over 365 days and spread
// over 12 months. Unknown frequencies are treated as monthly.
func MonthlyIncome(gross decimal.Decimal, freq Frequency) decimal.Decimal {
	switch freq {
	case Weekly:
		return gross.Mul(daysPerYear).Div(weeksDivisor)
	case Fortnightly:
		return gross.Mul(daysPerYear).Div(fortnightDivisor)
	default:
		return gross
	}
}

// WorkdaysInMonth maps days off per week to working days per month.
func WorkdaysInMonth(daysOff int) int {
	if daysOff == 1 {
		return WorkdaysOneDayOff
	}
	return WorkdaysTwoDaysOff
}

// ComputeSalary derives monthly income, daily income and total deductions.
// It never fails.
func ComputeSalary(gross decimal.Decimal, freq Frequency, daysOff int, d Deductions) SalaryBreakdown {
	monthly := MonthlyIncome(gross, freq)
	workdays := WorkdaysInMonth(daysOff)
	daily := decimal.Zero
	if workdays > 0 {
		daily = monthly.Div(decimal.NewFromInt(int64(workdays)))
	}
	total := d.Total()
	return SalaryBreakdown{
		MonthlyIncome:   monthly,
		DailyIncome:     daily,
		TotalDeductions: total,
		NetMonthly:      monthly.Sub(total),
		WorkdaysInMonth: workdays,
	}
}

func (s SalaryDetails) Deductions() Deductions {
	return Deductions{
		SSS:        s.SSS,
		PhilHealth: s.PhilHealth,
		PagIBIG:    s.PagIBIG,
		Tax:        s.Tax,
		Loans:      s.Loans,
		Voluntary:  s.Voluntary,
	}
}

func (s SalaryDetails) Breakdown() SalaryBreakdown {
	return ComputeSalary(s.Salary, s.Frequency, s.DayOffInMonth, s.Deductions())
}

// Details coerces the form into a SalaryDetails without validating it.
func (f SalaryForm) Details() SalaryDetails {
	return SalaryDetails{
		Salary:        Coerce(f.Salary),
		Frequency:     Frequency(f.Frequency),
		DayOffInMonth: int(Coerce(f.DayOffInMonth).IntPart()),
		SSS:           Coerce(f.SSS),
		PhilHealth:    Coerce(f.PhilHealth),
		PagIBIG:       Coerce(f.PagIBIG),
		Tax:           Coerce(f.Tax),
		Loans:         Coerce(f.Loans),
		Voluntary:     Coerce(f.Voluntary),
	}
}
