package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
)

var deductionFields = []string{"sss", "philhealth", "pagibig", "tax", "loans", "voluntary"}

func (s *Server) handleGetSalary(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	sd, err := s.records.GetSalary(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"salary": s.newSalaryView(sd)}).Write(w)
}

// handleSaveSalary replaces the salary document. Deductions left blank
// count as zero; anything else must be a valid amount.
func (s *Server) handleSaveSalary(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	gross, err := p.Amount("salary", false)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	deductions := make(map[string]decimal.Decimal, len(deductionFields))
	for _, f := range deductionFields {
		if p.Get(f) == "" {
			deductions[f] = decimal.Zero
			continue
		}
		d, err := p.Amount(f, false)
		if err != nil {
			UnprocessableEntityError(f + ": " + err.Error()).Write(w)
			return
		}
		deductions[f] = d
	}

	sd := core.SalaryDetails{
		Salary:         gross,
		Frequency:      core.Frequency(p.Get("frequency")),
		PaydaySpecific: p.Get("paydaySpecific"),
		DayOffInMonth:  p.Int("dayOffInMonth", 0),
		SSS:            deductions["sss"],
		PhilHealth:     deductions["philhealth"],
		PagIBIG:        deductions["pagibig"],
		Tax:            deductions["tax"],
		Loans:          deductions["loans"],
		Voluntary:      deductions["voluntary"],
	}

	saved, err := s.records.SaveSalary(r.Context(), id.UserID, sd)
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}
	s.recordSaved()

	NewJSONResponse().Body(map[string]any{"salary": s.newSalaryView(&saved)}).Write(w)
}

// handleSalaryPreview computes the breakdown of a form as typed. Unparsable
// fields count as zero, so it never fails on content.
func (s *Server) handleSalaryPreview(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	form := core.SalaryForm{
		Salary:        p.Value("salary"),
		Frequency:     p.Get("frequency"),
		DayOffInMonth: p.Value("dayOffInMonth"),
		SSS:           p.Value("sss"),
		PhilHealth:    p.Value("philhealth"),
		PagIBIG:       p.Value("pagibig"),
		Tax:           p.Value("tax"),
		Loans:         p.Value("loans"),
		Voluntary:     p.Value("voluntary"),
	}
	NewJSONResponse().Body(s.newBreakdownView(form.Details().Breakdown())).Write(w)
}
