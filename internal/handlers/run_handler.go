// -------------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -------------------------------------------------------------------------

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

var validate = validator.New()

// RunHandler serves suite execution and run history endpoints
type RunHandler struct {
	executor interfaces.ExecutionService
	storage  interfaces.StorageManager
	logger   arbor.ILogger
}

// NewRunHandler creates a new run handler
func NewRunHandler(executor interfaces.ExecutionService, storage interfaces.StorageManager, logger arbor.ILogger) *RunHandler {
	logger.Info().Msg("Initializing run handler")

	return &RunHandler{
		executor: executor,
		storage:  storage,
		logger:   logger,
	}
}

// ExecuteHandler handles POST /api/runs - runs a suite across the viewport
// matrix and responds with the finished run once every pair has executed.
func (h *RunHandler) ExecuteHandler(w http.ResponseWriter, r *http.Request) {
	var req interfaces.ExecuteRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid execute request: "+err.Error())
		return
	}

	h.logger.Info().
		Str("suite_id", req.SuiteID).
		Int("viewports", len(req.Viewports)).
		Msg("Executing suite")

	run, err := h.executor.ExecuteSuite(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Suite not found: "+req.SuiteID)
			return
		}
		h.logger.Error().Err(err).Str("suite_id", req.SuiteID).Msg("Suite execution failed")
		WriteError(w, http.StatusInternalServerError, "Suite execution failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// ListRunsHandler handles GET /api/runs?suite_id=...&limit=N
func (h *RunHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	suiteID := r.URL.Query().Get("suite_id")
	limit := GetLimitParam(r, 50, 500)

	runs, err := h.storage.Runs().ListRuns(r.Context(), suiteID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRunHandler handles GET /api/runs/{id} - returns the run together with
// its per-pair scenario results.
func (h *RunHandler) GetRunHandler(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := h.storage.Runs().GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found: "+runID)
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		WriteError(w, http.StatusInternalServerError, "Failed to get run: "+err.Error())
		return
	}

	results, err := h.storage.Runs().GetScenarioResults(r.Context(), runID)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to get scenario results")
		WriteError(w, http.StatusInternalServerError, "Failed to get scenario results: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":     run,
		"results": results,
	})
}

// DeleteRunHandler handles DELETE /api/runs/{id}
func (h *RunHandler) DeleteRunHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if err := h.storage.Runs().DeleteRun(r.Context(), runID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found: "+runID)
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to delete run")
		WriteError(w, http.StatusInternalServerError, "Failed to delete run: "+err.Error())
		return
	}

	h.logger.Info().Str("run_id", runID).Msg("Run deleted")
	WriteSuccess(w, "Run deleted: "+runID)
}
