package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"pitaka/internal/auth"
	"pitaka/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if err := s.records.Ping(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentStorage).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	recordsSaved := atomic.LoadInt64(&s.appMetrics.recordsSaved)
	exports := atomic.LoadInt64(&s.appMetrics.exports)
	streamClients := atomic.LoadInt64(&s.appMetrics.streamClients)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_failed_total Requests answered with a 4xx or 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_requests_failed_total counter\n")
	fmt.Fprintf(w, "http_requests_failed_total %d\n\n", traceMetrics.FailedRequests)

	fmt.Fprintf(w, "# HELP records_saved_total Records written through the API\n")
	fmt.Fprintf(w, "# TYPE records_saved_total counter\n")
	fmt.Fprintf(w, "records_saved_total %d\n\n", recordsSaved)

	fmt.Fprintf(w, "# HELP exports_total History downloads served\n")
	fmt.Fprintf(w, "# TYPE exports_total counter\n")
	fmt.Fprintf(w, "exports_total %d\n\n", exports)

	fmt.Fprintf(w, "# HELP stream_clients Open subscription streams\n")
	fmt.Fprintf(w, "# TYPE stream_clients gauge\n")
	fmt.Fprintf(w, "stream_clients %d\n\n", streamClients)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	session, err := s.auth.SignUp(r.Context(), p.Get("email"), p.Get("password"), p.Get("displayName"))
	if err != nil {
		writeAuthError(w, r, err, log.OpSignUp)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(session).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	session, err := s.auth.SignIn(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		writeAuthError(w, r, err, log.OpSignIn)
		return
	}
	NewJSONResponse().Body(session).Write(w)
}

// handleSignOut revokes the token and ends the streams opened with it. The
// user's other sessions keep streaming.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		UnauthorizedError("Please sign in to continue.").Write(w)
		return
	}

	id, err := s.auth.SignOut(r.Context(), token)
	if err != nil {
		writeAuthError(w, r, err, log.OpSignOut)
		return
	}

	cancelled := s.hub.CancelSession(id.UserID, id.TokenID)
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Signed out",
		log.FieldUserID, id.UserID,
		"subscriptions_cancelled", cancelled)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	NewJSONResponse().Body(id).Write(w)
}
