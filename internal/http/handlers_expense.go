package http

import (
	"net/http"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
)

// handleListExpenses lists expenses inside ?period= with their total.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	items, total, err := s.records.ListExpenses(r.Context(), id.UserID, period)
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Body(listView[expenseView]{
		Items:  s.expenseViews(items),
		Total:  s.money(total),
		Period: period,
	}).Write(w)
}

func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	amount, err := p.Amount("expenseAmount", false)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	date, err := p.Date("expenseDate")
	if err != nil {
		UnprocessableEntityError(core.ErrInvalidDate.Error()).Write(w)
		return
	}

	expense := core.ExpenseEntry{
		ID:            r.PathValue("id"),
		Name:          p.Get("name"),
		Category:      p.Get("category"),
		ExpenseAmount: amount,
		ExpenseDate:   date,
	}

	saved, err := s.records.SaveExpense(r.Context(), id.UserID, expense)
	if err != nil {
		writeServiceError(w, r, err, opFor(expense.ID))
		return
	}
	s.recordSaved()

	NewJSONResponse().
		Status(savedStatus(expense.ID)).
		Body(expenseView{ExpenseEntry: saved, ExpenseAmount: s.money(saved.ExpenseAmount)}).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := s.records.DeleteExpense(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, log.OpDelete)
		return
	}
	s.recordSaved()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string][]string{"categories": core.ExpenseCategories}).Write(w)
}
