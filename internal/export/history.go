// Package export builds the downloadable history of a user's records.
//
// The history has three sections in a fixed order (Expenses, Incomes, Salary
// Details). The same sections feed the CSV download, the XLSX download and
// the spreadsheet mirror written by the worker.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
)

const (
	// CSVFilename is the attachment name of the CSV download.
	CSVFilename = "expense_tracker_history.csv"
	// XLSXFilename is the attachment name of the XLSX download.
	XLSXFilename = "expense_tracker_history.xlsx"

	// DefaultDateLayout renders dates as a short numeric date, e.g. 1/2/2024.
	DefaultDateLayout = "1/2/2006"
)

const (
	SectionExpenses = "Expenses"
	SectionIncomes  = "Incomes"
	SectionSalary   = "Salary Details"
)

var (
	expenseHeader = []string{"Name", "Category", "Amount", "Date"}
	incomeHeader  = []string{"Business Name", "Industry", "Amount", "Date"}
	salaryHeader  = []string{"Salary", "Frequency", "Payday", "Days Off", "SSS", "PhilHealth", "Pag-IBIG", "Tax", "Loans", "Voluntary", "Last Updated"}
)

// Section is one labelled table of the history. Cells hold either a string
// or a decimal.Decimal so each writer can choose how to render numbers.
type Section struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Options control how dates are rendered.
type Options struct {
	DateLayout string
	Location   *time.Location
}

func (o Options) withDefaults() Options {
	if o.DateLayout == "" {
		o.DateLayout = DefaultDateLayout
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Sections returns the history sections for snap in export order.
func Sections(snap core.Snapshot, opts Options) []Section {
	opts = opts.withDefaults()
	return []Section{
		ExpenseSection(snap.Expenses, opts),
		IncomeSection(snap.Incomes, opts),
		SalarySection(snap.Salary, opts),
	}
}

func ExpenseSection(expenses []core.ExpenseEntry, opts Options) Section {
	opts = opts.withDefaults()
	s := Section{Title: SectionExpenses, Header: expenseHeader, Rows: make([][]any, 0, len(expenses))}
	for _, e := range expenses {
		s.Rows = append(s.Rows, []any{e.Name, e.Category, e.ExpenseAmount, formatDate(e.ExpenseDate.Time, opts)})
	}
	return s
}

func IncomeSection(incomes []core.IncomeEntry, opts Options) Section {
	opts = opts.withDefaults()
	s := Section{Title: SectionIncomes, Header: incomeHeader, Rows: make([][]any, 0, len(incomes))}
	for _, in := range incomes {
		s.Rows = append(s.Rows, []any{in.BusinessName, in.Industry, in.IncomeAmount, formatDate(in.IncomeDate.Time, opts)})
	}
	return s
}

// SalarySection has at most one row since salary is a singleton.
func SalarySection(salary *core.SalaryDetails, opts Options) Section {
	opts = opts.withDefaults()
	s := Section{Title: SectionSalary, Header: salaryHeader, Rows: [][]any{}}
	if salary == nil {
		return s
	}
	s.Rows = append(s.Rows, []any{
		salary.Salary,
		string(salary.Frequency),
		salary.PaydaySpecific,
		decimal.NewFromInt(int64(salary.DayOffInMonth)),
		salary.SSS,
		salary.PhilHealth,
		salary.PagIBIG,
		salary.Tax,
		salary.Loans,
		salary.Voluntary,
		formatTimestamp(salary.LastUpdated, opts),
	})
	return s
}

// formatDate renders a calendar date. The wall clock is kept as stored so a
// date never shifts a day when the display zone differs from UTC.
func formatDate(t time.Time, opts Options) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(opts.DateLayout)
}

// formatTimestamp renders an instant in the display zone.
func formatTimestamp(t time.Time, opts Options) string {
	if t.IsZero() {
		return ""
	}
	return t.In(opts.Location).Format(opts.DateLayout)
}

// CellString renders a section cell as plain text. Numbers are raw decimals,
// never currency formatted.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	default:
		return ""
	}
}

// Grid lays sections out row by row the way WriteCSV does: a title row, the
// header, one row per record and an empty row between sections. Cells keep
// their section types.
func Grid(sections []Section) [][]any {
	var rows [][]any
	for i, s := range sections {
		if i > 0 {
			rows = append(rows, []any{})
		}
		rows = append(rows, []any{s.Title})
		header := make([]any, len(s.Header))
		for j, h := range s.Header {
			header[j] = h
		}
		rows = append(rows, header)
		rows = append(rows, s.Rows...)
	}
	return rows
}
