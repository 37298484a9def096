// -------------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -------------------------------------------------------------------------

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// RegressionHandler serves regression analysis, baseline, threshold and
// ignore-region endpoints.
type RegressionHandler struct {
	regression interfaces.RegressionService
	storage    interfaces.StorageManager
	events     interfaces.EventService
	logger     arbor.ILogger
}

// NewRegressionHandler creates a new regression handler
func NewRegressionHandler(regression interfaces.RegressionService, storage interfaces.StorageManager, events interfaces.EventService, logger arbor.ILogger) *RegressionHandler {
	logger.Info().Msg("Initializing regression handler")

	return &RegressionHandler{
		regression: regression,
		storage:    storage,
		events:     events,
		logger:     logger,
	}
}

// AnalyzeHandler handles POST /api/regression/analyze - compares a run
// against its suite's baseline and returns the aggregated report.
func (h *RegressionHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string `json:"run_id"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.RunID == "" {
		WriteError(w, http.StatusBadRequest, "run_id is required")
		return
	}

	h.logger.Info().Str("run_id", req.RunID).Msg("Analyzing run for visual regressions")

	report, err := h.regression.Analyze(r.Context(), req.RunID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found: "+req.RunID)
			return
		}
		h.logger.Error().Err(err).Str("run_id", req.RunID).Msg("Regression analysis failed")
		WriteError(w, http.StatusInternalServerError, "Regression analysis failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// ListByRunHandler handles GET /api/regression/runs/{runID}
func (h *RegressionHandler) ListByRunHandler(w http.ResponseWriter, r *http.Request, runID string) {
	regressions, err := h.storage.Regressions().ListRegressionsByRun(r.Context(), runID)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to list regressions")
		WriteError(w, http.StatusInternalServerError, "Failed to list regressions: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"regressions": regressions,
		"count":       len(regressions),
	})
}

// UpdateStatusHandler handles PUT /api/regression/{id}/status - moves a
// regression through the human review workflow.
func (h *RegressionHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request, regressionID string) {
	var req struct {
		Status models.ReviewStatus `json:"status"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !req.Status.IsValid() {
		WriteError(w, http.StatusBadRequest, "Invalid review status: "+string(req.Status))
		return
	}

	if err := h.storage.Regressions().UpdateRegressionStatus(r.Context(), regressionID, req.Status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Regression not found: "+regressionID)
			return
		}
		h.logger.Error().Err(err).Str("regression_id", regressionID).Msg("Failed to update review status")
		WriteError(w, http.StatusInternalServerError, "Failed to update review status: "+err.Error())
		return
	}

	h.logger.Info().
		Str("regression_id", regressionID).
		Str("status", string(req.Status)).
		Msg("Review status updated")
	WriteSuccess(w, "Review status updated")
}

// SetBaselineHandler handles PUT /api/suites/{id}/baseline - pins a
// completed run as the suite's visual reference.
func (h *RegressionHandler) SetBaselineHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	var req struct {
		RunID string `json:"run_id"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.RunID == "" {
		WriteError(w, http.StatusBadRequest, "run_id is required")
		return
	}

	run, err := h.storage.Runs().GetRun(r.Context(), req.RunID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found: "+req.RunID)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load run: "+err.Error())
		return
	}
	if run.SuiteID != suiteID {
		WriteError(w, http.StatusBadRequest, "Run "+req.RunID+" does not belong to suite "+suiteID)
		return
	}
	if !run.IsTerminal() {
		WriteError(w, http.StatusBadRequest, "Run "+req.RunID+" is still in progress")
		return
	}

	baseline := &models.Baseline{
		SuiteID: suiteID,
		RunID:   req.RunID,
		SetAt:   time.Now().UTC(),
	}
	if err := h.storage.Regressions().SetBaseline(r.Context(), baseline); err != nil {
		h.logger.Error().Err(err).Str("suite_id", suiteID).Msg("Failed to set baseline")
		WriteError(w, http.StatusInternalServerError, "Failed to set baseline: "+err.Error())
		return
	}

	h.logger.Info().
		Str("suite_id", suiteID).
		Str("run_id", req.RunID).
		Msg("Baseline set")
	h.publishBaselineChanged(suiteID, req.RunID)

	WriteJSON(w, http.StatusOK, baseline)
}

// GetBaselineHandler handles GET /api/suites/{id}/baseline
func (h *RegressionHandler) GetBaselineHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	baseline, err := h.storage.Regressions().GetBaseline(r.Context(), suiteID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "No baseline set for suite: "+suiteID)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get baseline: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, baseline)
}

// ClearBaselineHandler handles DELETE /api/suites/{id}/baseline
func (h *RegressionHandler) ClearBaselineHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	if err := h.storage.Regressions().ClearBaseline(r.Context(), suiteID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "No baseline set for suite: "+suiteID)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to clear baseline: "+err.Error())
		return
	}

	h.logger.Info().Str("suite_id", suiteID).Msg("Baseline cleared")
	h.publishBaselineChanged(suiteID, "")

	WriteSuccess(w, "Baseline cleared for suite "+suiteID)
}

// SetThresholdHandler handles PUT /api/suites/{id}/thresholds - stores a
// suite-wide or per-viewport significance cutoff.
func (h *RegressionHandler) SetThresholdHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	var req struct {
		Viewport string  `json:"viewport,omitempty"`
		Value    float64 `json:"value"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Value < 0 || req.Value > 1 {
		WriteError(w, http.StatusBadRequest, "Threshold must be a pixel fraction between 0 and 1")
		return
	}

	override := &models.ThresholdOverride{
		ID:       models.ThresholdKey(suiteID, req.Viewport),
		SuiteID:  suiteID,
		Viewport: req.Viewport,
		Value:    req.Value,
	}
	if err := h.storage.Regressions().SetThreshold(r.Context(), override); err != nil {
		h.logger.Error().Err(err).Str("suite_id", suiteID).Msg("Failed to set threshold")
		WriteError(w, http.StatusInternalServerError, "Failed to set threshold: "+err.Error())
		return
	}

	h.logger.Info().
		Str("suite_id", suiteID).
		Str("viewport", req.Viewport).
		Float64("value", req.Value).
		Msg("Threshold override set")
	WriteJSON(w, http.StatusOK, override)
}

// ListThresholdsHandler handles GET /api/suites/{id}/thresholds
func (h *RegressionHandler) ListThresholdsHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	thresholds, err := h.storage.Regressions().ListThresholds(r.Context(), suiteID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list thresholds: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"thresholds": thresholds,
		"count":      len(thresholds),
	})
}

// AddIgnoreRegionHandler handles POST /api/suites/{id}/ignore-regions
func (h *RegressionHandler) AddIgnoreRegionHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	var req struct {
		TestName string `json:"test_name,omitempty"`
		Viewport string `json:"viewport,omitempty"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Reason   string `json:"reason"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		WriteError(w, http.StatusBadRequest, "Ignore region dimensions must be positive")
		return
	}

	region := &models.IgnoreRegion{
		ID:       common.NewRegionID(),
		SuiteID:  suiteID,
		TestName: req.TestName,
		Viewport: req.Viewport,
		X:        req.X,
		Y:        req.Y,
		Width:    req.Width,
		Height:   req.Height,
		Reason:   req.Reason,
	}
	if err := h.storage.Regressions().SaveIgnoreRegion(r.Context(), region); err != nil {
		h.logger.Error().Err(err).Str("suite_id", suiteID).Msg("Failed to save ignore region")
		WriteError(w, http.StatusInternalServerError, "Failed to save ignore region: "+err.Error())
		return
	}

	h.logger.Info().
		Str("suite_id", suiteID).
		Str("region_id", region.ID).
		Msg("Ignore region added")
	WriteJSON(w, http.StatusCreated, region)
}

// ListIgnoreRegionsHandler handles GET /api/suites/{id}/ignore-regions
func (h *RegressionHandler) ListIgnoreRegionsHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	regions, err := h.storage.Regressions().ListIgnoreRegions(r.Context(), suiteID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list ignore regions: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// DeleteIgnoreRegionHandler handles DELETE /api/regression/ignore-regions/{id}
func (h *RegressionHandler) DeleteIgnoreRegionHandler(w http.ResponseWriter, r *http.Request, regionID string) {
	if err := h.storage.Regressions().DeleteIgnoreRegion(r.Context(), regionID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Ignore region not found: "+regionID)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete ignore region: "+err.Error())
		return
	}

	h.logger.Info().Str("region_id", regionID).Msg("Ignore region deleted")
	WriteSuccess(w, "Ignore region deleted: "+regionID)
}

func (h *RegressionHandler) publishBaselineChanged(suiteID, runID string) {
	if h.events == nil {
		return
	}
	err := h.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventBaselineChanged,
		Payload: map[string]interface{}{
			"suite_id": suiteID,
			"run_id":   runID,
		},
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("suite_id", suiteID).Msg("Failed to publish baseline change")
	}
}
