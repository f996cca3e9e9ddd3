package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/usecase"
)

// API exposes the trigger, status, and enrichment endpoints.
type API struct {
	ingest  *usecase.IngestService
	enrich  *usecase.EnrichService
	tracker *usecase.Tracker
	logger  *slog.Logger
}

type ingestRequest struct {
	Days int `json:"days"`
}

type ingestResponse struct {
	Message string             `json:"message"`
	Status  domain.JobSnapshot `json:"status"`
}

type enrichRequest struct {
	Order string `json:"order,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type enrichResponse struct {
	Success bool                    `json:"success"`
	Results domain.EnrichmentReport `json:"results"`
}

type summaryRequest struct {
	PaperID string `json:"paper_id"`
}

type summaryResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Summary domain.Summary `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartIngest validates the trigger, launches the background run, and
// acknowledges immediately. A concurrent start is rejected with the active
// run's snapshot.
func (a *API) StartIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST to start ingestion")
		return
	}

	mode := domain.IngestMode(r.URL.Query().Get("mode"))
	days := 0
	if mode == domain.ModeFixedDays {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, `invalid request body, expected JSON with a "days" property`)
			return
		}
		days = req.Days
	}

	snap, err := a.ingest.Start(r.Context(), mode, days)
	switch {
	case errors.Is(err, usecase.ErrInvalidMode), errors.Is(err, usecase.ErrInvalidDays):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrRunActive):
		writeJSON(w, http.StatusConflict, ingestResponse{
			Message: fmt.Sprintf("Ingestion already in progress (%s mode).", snap.Mode),
			Status:  snap,
		})
	case err != nil:
		a.warn("start ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start ingestion")
	default:
		writeJSON(w, http.StatusAccepted, ingestResponse{
			Message: fmt.Sprintf("Started ingestion in %s mode in the background.", mode),
			Status:  snap,
		})
	}
}

// IngestStatus returns the current snapshot; safe to poll at high frequency.
func (a *API) IngestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET to poll status")
		return
	}
	writeJSON(w, http.StatusOK, a.tracker.Snapshot())
}

// RunEnrichment processes all papers lacking a summary and returns the
// aggregate synchronously.
func (a *API) RunEnrichment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST to run enrichment")
		return
	}

	req := enrichRequest{}
	if r.Body != nil {
		// The body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	newestFirst := req.Order != "oldest"
	report, err := a.enrich.Run(r.Context(), newestFirst, req.Limit)
	if err != nil {
		a.warn("enrichment run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, enrichResponse{Success: true, Results: report})
}

// GenerateSummary creates (or returns the existing) summary for one paper.
func (a *API) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST to generate a summary")
		return
	}

	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaperID == "" {
		writeError(w, http.StatusBadRequest, "paper_id is required")
		return
	}

	summary, existing, err := a.enrich.SummarizeOne(r.Context(), req.PaperID)
	switch {
	case errors.Is(err, usecase.ErrPaperNotFound):
		writeError(w, http.StatusNotFound, "paper not found")
	case err != nil:
		a.warn("summary generation failed", "paper", req.PaperID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		resp := summaryResponse{Success: true, Summary: summary}
		if existing {
			resp.Message = "Summary already exists"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *API) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
