package http

import (
	"time"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
)

// Money carries an amount as a raw decimal and as display text.
type Money struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// The views embed the stored record and shadow its amounts with Money.
type (
	bankView struct {
		core.BankAccount
		Amount Money `json:"amount"`
	}

	incomeView struct {
		core.IncomeEntry
		IncomeAmount Money `json:"incomeAmount"`
	}

	expenseView struct {
		core.ExpenseEntry
		ExpenseAmount Money `json:"expenseAmount"`
	}

	breakdownView struct {
		MonthlyIncome   Money `json:"monthlyIncome"`
		DailyIncome     Money `json:"dailyIncome"`
		TotalDeductions Money `json:"totalDeductions"`
		NetMonthly      Money `json:"netMonthly"`
		WorkdaysInMonth int   `json:"workdaysInMonth"`
	}

	salaryView struct {
		core.SalaryDetails
		Salary     Money         `json:"salary"`
		SSS        Money         `json:"sss"`
		PhilHealth Money         `json:"philhealth"`
		PagIBIG    Money         `json:"pagibig"`
		Tax        Money         `json:"tax"`
		Loans      Money         `json:"loans"`
		Voluntary  Money         `json:"voluntary"`
		Breakdown  breakdownView `json:"breakdown"`
	}

	summaryView struct {
		TotalBankBalance   Money          `json:"totalBankBalance"`
		TotalIncome        Money          `json:"totalIncome"`
		TotalExpenses      Money          `json:"totalExpenses"`
		IncomeThisYear     Money          `json:"incomeThisYear"`
		ExpensesThisYear   Money          `json:"expensesThisYear"`
		UpcomingIncome     Money          `json:"upcomingIncome"`
		MonthlyNetCashFlow Money          `json:"monthlyNetCashFlow"`
		Forecast           []Money        `json:"forecast"`
		Salary             *breakdownView `json:"salary,omitempty"`
		GeneratedAt        time.Time      `json:"generatedAt"`
	}

	listView[T any] struct {
		Items  []T         `json:"items"`
		Total  Money       `json:"total"`
		Period core.Period `json:"period"`
	}
)

func (s *Server) money(d decimal.Decimal) Money {
	return Money{Value: d, Display: s.currency.Format(d)}
}

func (s *Server) bankViews(banks []core.BankAccount) []bankView {
	out := make([]bankView, len(banks))
	for i, b := range banks {
		out[i] = bankView{BankAccount: b, Amount: s.money(b.Amount)}
	}
	return out
}

func (s *Server) incomeViews(incomes []core.IncomeEntry) []incomeView {
	out := make([]incomeView, len(incomes))
	for i, in := range incomes {
		out[i] = incomeView{IncomeEntry: in, IncomeAmount: s.money(in.IncomeAmount)}
	}
	return out
}

func (s *Server) expenseViews(expenses []core.ExpenseEntry) []expenseView {
	out := make([]expenseView, len(expenses))
	for i, e := range expenses {
		out[i] = expenseView{ExpenseEntry: e, ExpenseAmount: s.money(e.ExpenseAmount)}
	}
	return out
}

func (s *Server) newBreakdownView(b core.SalaryBreakdown) breakdownView {
	return breakdownView{
		MonthlyIncome:   s.money(b.MonthlyIncome),
		DailyIncome:     s.money(b.DailyIncome),
		TotalDeductions: s.money(b.TotalDeductions),
		NetMonthly:      s.money(b.NetMonthly),
		WorkdaysInMonth: b.WorkdaysInMonth,
	}
}

func (s *Server) newSalaryView(sd *core.SalaryDetails) *salaryView {
	if sd == nil {
		return nil
	}
	return &salaryView{
		SalaryDetails: *sd,
		Salary:        s.money(sd.Salary),
		SSS:           s.money(sd.SSS),
		PhilHealth:    s.money(sd.PhilHealth),
		PagIBIG:       s.money(sd.PagIBIG),
		Tax:           s.money(sd.Tax),
		Loans:         s.money(sd.Loans),
		Voluntary:     s.money(sd.Voluntary),
		Breakdown:     s.newBreakdownView(sd.Breakdown()),
	}
}

func (s *Server) newSummaryView(sum core.Summary) summaryView {
	v := summaryView{
		TotalBankBalance:   s.money(sum.TotalBankBalance),
		TotalIncome:        s.money(sum.TotalIncome),
		TotalExpenses:      s.money(sum.TotalExpenses),
		IncomeThisYear:     s.money(sum.IncomeThisYear),
		ExpensesThisYear:   s.money(sum.ExpensesThisYear),
		UpcomingIncome:     s.money(sum.UpcomingIncome),
		MonthlyNetCashFlow: s.money(sum.MonthlyNetCashFlow),
		Forecast:           make([]Money, len(sum.Forecast)),
		GeneratedAt:        sum.GeneratedAt,
	}
	for i, f := range sum.Forecast {
		v.Forecast[i] = s.money(f)
	}
	if sum.Salary != nil {
		b := s.newBreakdownView(*sum.Salary)
		v.Salary = &b
	}
	return v
}

// streamData converts a subscription payload to its response view.
func (s *Server) streamData(data any) any {
	switch v := data.(type) {
	case []core.BankAccount:
		return s.bankViews(v)
	case []core.IncomeEntry:
		return s.incomeViews(v)
	case []core.ExpenseEntry:
		return s.expenseViews(v)
	case *core.SalaryDetails:
		return s.newSalaryView(v)
	default:
		return data
	}
}
