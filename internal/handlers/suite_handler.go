// -------------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -------------------------------------------------------------------------

package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// SuiteHandler serves suite definition endpoints
type SuiteHandler struct {
	suites interfaces.SuiteService
	logger arbor.ILogger
}

// NewSuiteHandler creates a new suite handler
func NewSuiteHandler(suites interfaces.SuiteService, logger arbor.ILogger) *SuiteHandler {
	logger.Info().Msg("Initializing suite handler")

	return &SuiteHandler{
		suites: suites,
		logger: logger,
	}
}

// ListSuitesHandler handles GET /api/suites
func (h *SuiteHandler) ListSuitesHandler(w http.ResponseWriter, r *http.Request) {
	suites, err := h.suites.ListSuites(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list suites")
		WriteError(w, http.StatusInternalServerError, "Failed to list suites: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suites": suites,
		"count":  len(suites),
	})
}

// GetSuiteHandler handles GET /api/suites/{id}
func (h *SuiteHandler) GetSuiteHandler(w http.ResponseWriter, r *http.Request, suiteID string) {
	suite, err := h.suites.GetSuite(r.Context(), suiteID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Suite not found: "+suiteID)
			return
		}
		h.logger.Error().Err(err).Str("suite_id", suiteID).Msg("Failed to get suite")
		WriteError(w, http.StatusInternalServerError, "Failed to get suite: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, suite)
}

// ReloadSuitesHandler handles POST /api/suites/reload - re-reads suite
// definition files from the configured directory.
func (h *SuiteHandler) ReloadSuitesHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.suites.Reload(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reload suites")
		WriteError(w, http.StatusInternalServerError, "Failed to reload suites: "+err.Error())
		return
	}

	h.logger.Info().Msg("Suite definitions reloaded")
	WriteSuccess(w, "Suite definitions reloaded")
}
