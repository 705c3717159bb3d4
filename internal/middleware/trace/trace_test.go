package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pitaka/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Level: slog.LevelInfo, Output: &buf}), func(*http.Request) string { return "10.0.0.1" })

	var seen string
	var ctxLogger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/banks", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("header id %q != context id %q", rec.Header().Get(RequestIDHeader), seen)
	}
	if ctxLogger == nil || ctxLogger.Component() == "unknown" {
		t.Fatal("expected request logger in context")
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "request_id="+seen) {
		t.Fatalf("unexpected log output %q", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("TotalRequests = %d", got)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Output: &buf}), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestMiddlewareCountsServerErrors(t *testing.T) {
	m := NewMiddleware(log.New(log.Config{Output: &bytes.Buffer{}}), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := m.GetMetrics().FailedRequests; got != 1 {
		t.Fatalf("FailedRequests = %d", got)
	}
}
