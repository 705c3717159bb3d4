package http

import (
	"net/http"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	profile, err := s.records.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(profile).Write(w)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	profile := core.UserProfile{
		Name:                      p.Get("name"),
		Email:                     p.Get("email"),
		PhoneNumber:               p.Get("phoneNumber"),
		ReceiveEmailNotifications: p.Bool("receiveEmailNotifications"),
		ReceivePhoneNotifications: p.Bool("receivePhoneNotifications"),
	}

	saved, err := s.records.SaveProfile(r.Context(), id.UserID, profile)
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}
	s.recordSaved()
	NewJSONResponse().Body(saved).Write(w)
}
