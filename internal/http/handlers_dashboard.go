package http

import (
	"bytes"
	"net/http"
	"sync/atomic"

	"pitaka/internal/auth"
	"pitaka/internal/export"
	"pitaka/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	summary, err := s.records.Dashboard(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(s.newSummaryView(summary)).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	sections, err := s.records.History(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sections); err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)

	NewJSONResponse().
		Attachment(export.CSVFilename, "text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	sections, err := s.records.History(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sections); err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)

	NewJSONResponse().
		Attachment(export.XLSXFilename, xlsxContentType, buf.Bytes()).
		Write(w)
}
