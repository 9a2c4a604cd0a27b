// Package api exposes the operational HTTP surface of the sync service:
// metrics, runtime stats, the latest pass reports and a manual trigger.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brian-reel/airtable-heroku/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider
	ReportProvider
	Runner
}

// ReportProvider exposes the most recent pass reports.
type ReportProvider interface {
	LastReport(job string) (*types.Report, bool)
	LastReports() []*types.Report
}

// Runner starts a pass on demand.
type Runner interface {
	Run(ctx context.Context, job string) (*types.Report, error)
}

// Server wires HTTP routes for the service.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	reportHandler *ReportHandler
	runHandler    *RunHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		reportHandler: NewReportHandler(deps),
		runHandler:    NewRunHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
	mux.HandleFunc("/run", MetricsMiddleware(s.runHandler.HandleRun, "run"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
