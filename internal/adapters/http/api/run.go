package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/brian-reel/airtable-heroku/internal/app"
)

// RunHandler triggers a pass on demand.
type RunHandler struct {
	runner Runner
}

// NewRunHandler creates a new run handler.
func NewRunHandler(runner Runner) *RunHandler {
	return &RunHandler{runner: runner}
}

// HandleRun handles POST /run?job=name. The request waits for the pass and
// returns its report. A load failure still returns the report, with 502.
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	job := strings.TrimSpace(r.URL.Query().Get("job"))
	if job == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing job", ErrBadRequest))
		return
	}

	report, err := h.runner.Run(r.Context(), job)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrUnknownJob):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrPassInProgress):
		writeError(w, http.StatusConflict, "pass_in_progress", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	case errors.Is(err, service.ErrLoadFailure) && report != nil:
		writeJSON(w, http.StatusBadGateway, report)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
