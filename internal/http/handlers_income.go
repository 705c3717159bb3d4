package http

import (
	"net/http"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
)

// handleListIncomes lists incomes inside ?period= with their total.
func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	items, total, err := s.records.ListIncomes(r.Context(), id.UserID, period)
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Body(listView[incomeView]{
		Items:  s.incomeViews(items),
		Total:  s.money(total),
		Period: period,
	}).Write(w)
}

func (s *Server) handleSaveIncome(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	amount, err := p.Amount("incomeAmount", false)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	date, err := p.Date("incomeDate")
	if err != nil {
		UnprocessableEntityError(core.ErrInvalidDate.Error()).Write(w)
		return
	}

	income := core.IncomeEntry{
		ID:           r.PathValue("id"),
		BusinessName: p.Get("businessName"),
		Industry:     p.Get("industry"),
		IncomeAmount: amount,
		IncomeDate:   date,
	}

	saved, err := s.records.SaveIncome(r.Context(), id.UserID, income)
	if err != nil {
		writeServiceError(w, r, err, opFor(income.ID))
		return
	}
	s.recordSaved()

	NewJSONResponse().
		Status(savedStatus(income.ID)).
		Body(incomeView{IncomeEntry: saved, IncomeAmount: s.money(saved.IncomeAmount)}).
		Write(w)
}
