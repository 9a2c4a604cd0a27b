package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ReportHandler serves the latest pass reports.
type ReportHandler struct {
	reports ReportProvider
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports ReportProvider) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// HandleReport handles GET /report and GET /report?job=name. Without a job
// it returns the last report of every job that has run.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	job := strings.TrimSpace(r.URL.Query().Get("job"))
	if job == "" {
		writeJSON(w, http.StatusOK, h.reports.LastReports())
		return
	}
	report, ok := h.reports.LastReport(job)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w for job %q", ErrNoReport, job))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
