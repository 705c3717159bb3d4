package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
)

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	banks, err := s.records.ListBanks(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}

	total := decimal.Zero
	for _, b := range banks {
		total = total.Add(b.Amount)
	}
	NewJSONResponse().Body(listView[bankView]{
		Items:  s.bankViews(banks),
		Total:  s.money(total),
		Period: core.PeriodAll,
	}).Write(w)
}

// handleSaveBank creates on POST and updates on PUT /{id}.
func (s *Server) handleSaveBank(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	amount, err := p.Amount("amount", true)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	bank := core.BankAccount{
		ID:             r.PathValue("id"),
		BankName:       p.Get("bankName"),
		FullName:       p.Get("fullName"),
		Last4Digits:    p.Get("last4Digits"),
		ExpirationDate: p.Get("expirationDate"),
		Amount:         amount,
	}

	saved, err := s.records.SaveBank(r.Context(), id.UserID, bank)
	if err != nil {
		writeServiceError(w, r, err, opFor(bank.ID))
		return
	}
	s.recordSaved()

	NewJSONResponse().
		Status(savedStatus(bank.ID)).
		Body(bankView{BankAccount: saved, Amount: s.money(saved.Amount)}).
		Write(w)
}

func opFor(id string) string {
	if id == "" {
		return log.OpCreate
	}
	return log.OpUpdate
}

func savedStatus(id string) int {
	if id == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}
