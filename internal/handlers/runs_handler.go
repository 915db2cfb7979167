package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/scheduler"
)

// RunsHandler exposes the run ledger and manual run triggers
type RunsHandler struct {
	runs    interfaces.RunStorage
	trigger JobTrigger
	logger  arbor.ILogger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runs interfaces.RunStorage, trigger JobTrigger, logger arbor.ILogger) *RunsHandler {
	return &RunsHandler{
		runs:    runs,
		trigger: trigger,
		logger:  logger,
	}
}

// ListRunsHandler returns recent runs, newest first. ?domain= filters.
func (h *RunsHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var domain models.Domain
	if s := r.URL.Query().Get("domain"); s != "" {
		d, ok := models.ParseDomain(s)
		if !ok {
			WriteError(w, http.StatusBadRequest, "Unknown domain: "+s)
			return
		}
		domain = d
	}

	runs, err := h.runs.ListRuns(r.Context(), domain, GetLimitParam(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.IngestionRun{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
		"jobs": h.trigger.GetAllJobStatuses(),
	})
}

// TriggerRunHandler starts an ingestion run for /api/runs/{domain}
func (h *RunsHandler) TriggerRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := PathParam(r, "/api/runs/")
	domain, ok := models.ParseDomain(name)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown domain: "+name)
		return
	}

	err := h.trigger.TriggerJob(string(domain))
	switch {
	case errors.Is(err, scheduler.ErrJobRunning):
		WriteError(w, http.StatusConflict, string(domain)+" ingestion is already running")
		return
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, string(domain)+" ingestion is not configured")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("domain", string(domain)).Msg("Failed to trigger run")
		WriteError(w, http.StatusInternalServerError, "Failed to trigger run")
		return
	}

	WriteStarted(w, string(domain)+" ingestion started")
}
