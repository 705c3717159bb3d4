package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pitaka/internal/core"
)

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Expenses: []core.ExpenseEntry{{
			Name:          "Rent",
			Category:      "Bills",
			ExpenseAmount: decimal.NewFromInt(500),
			ExpenseDate:   core.NewDate(2024, 1, 1),
		}},
		Incomes: []core.IncomeEntry{{
			BusinessName: `Juan's "Sari-Sari" Store`,
			Industry:     "Retail",
			IncomeAmount: decimal.RequireFromString("1250.75"),
			IncomeDate:   core.NewDate(2024, 2, 14),
		}},
		Salary: &core.SalaryDetails{
			Salary:         decimal.NewFromInt(30000),
			Frequency:      core.Monthly,
			PaydaySpecific: "15th and 30th",
			DayOffInMonth:  2,
			SSS:            decimal.NewFromInt(1125),
			LastUpdated:    time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC),
		},
	}
}

func TestCSVExpenseRow(t *testing.T) {
	out := CSV(Sections(sampleSnapshot(), Options{Location: time.UTC}))
	if !strings.Contains(out, `"Rent","Bills","500","1/1/2024"`+"\n") {
		t.Fatalf("expense row missing:\n%s", out)
	}
	if !strings.Contains(out, `"Juan's ""Sari-Sari"" Store","Retail","1250.75","2/14/2024"`) {
		t.Fatalf("quotes not doubled:\n%s", out)
	}
	if !strings.Contains(out, `"30000","Monthly","15th and 30th","2","1125","0","0","0","0","0","3/1/2024"`) {
		t.Fatalf("salary row missing:\n%s", out)
	}
}

func TestCSVSectionLayout(t *testing.T) {
	out := CSV(Sections(core.Snapshot{}, Options{Location: time.UTC}))
	want := "Expenses\n" +
		`"Name","Category","Amount","Date"` + "\n" +
		"\n" +
		"Incomes\n" +
		`"Business Name","Industry","Amount","Date"` + "\n" +
		"\n" +
		"Salary Details\n" +
		`"Salary","Frequency","Payday","Days Off","SSS","PhilHealth","Pag-IBIG","Tax","Loans","Voluntary","Last Updated"` + "\n"
	if out != want {
		t.Fatalf("unexpected layout:\n%q\nwant\n%q", out, want)
	}
}

func TestCSVCustomDateLayout(t *testing.T) {
	out := CSV([]Section{ExpenseSection(sampleSnapshot().Expenses, Options{DateLayout: "02/01/2006"})})
	if !strings.Contains(out, `"01/01/2024"`) {
		t.Fatalf("layout not applied:\n%s", out)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Sections(sampleSnapshot(), Options{Location: time.UTC})); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SectionExpenses || sheets[1] != SectionIncomes || sheets[2] != SectionSalary {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SectionExpenses)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Rent" || rows[1][2] != "500" {
		t.Fatalf("unexpected expense rows %v", rows)
	}
}

func TestGridMatchesCSVLayout(t *testing.T) {
	sections := Sections(sampleSnapshot(), Options{})
	grid := Grid(sections)

	lines := strings.Split(strings.TrimSuffix(CSV(sections), "\n"), "\n")
	if len(grid) != len(lines) {
		t.Fatalf("grid has %d rows, csv has %d lines", len(grid), len(lines))
	}
	if grid[0][0] != SectionExpenses {
		t.Fatalf("first cell = %v", grid[0][0])
	}
	for i, row := range grid {
		if len(row) == 0 && lines[i] != "" {
			t.Fatalf("row %d: blank grid row but csv line %q", i, lines[i])
		}
	}
}
