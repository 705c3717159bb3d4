package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pitaka/internal/auth"
	"pitaka/internal/log"
	"pitaka/internal/services"
	"pitaka/internal/store"
)

type contextKey string

const identityKey contextKey = "identity"

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// bearerToken extracts the session token from the Authorization header.
// Websocket clients cannot set headers, so ?token= is accepted on upgrade
// requests only.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the authenticated caller stored by the auth middleware.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// authStatus maps an auth failure to its HTTP status.
func authStatus(code auth.Code) int {
	switch code {
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeInvalidEmail, auth.CodeWeakPassword, auth.CodeMissingDisplayName:
		return http.StatusUnprocessableEntity
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeUserNotFound, auth.CodeWrongPassword, auth.CodeInvalidCredential, auth.CodeSessionExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeAuthError answers with the readable message for an auth failure.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error, op string) {
	code := auth.CodeOf(err)
	status := authStatus(code)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Auth operation failed", err, log.ComponentAuth, op, nil)
	}
	CodedErrorResponse(status, string(code), auth.Message(err)).Write(w)
}

// writeServiceError maps record service failures to responses. Validation
// failures carry their message; anything else is logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		UnprocessableEntityError(ve.Err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Record not found").Write(w)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Record operation failed", err, log.ComponentRecords, op, nil)
		InternalServerError("Something went wrong. Please try again.").Write(w)
	}
}
