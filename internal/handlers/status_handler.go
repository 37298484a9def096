package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	storage   interfaces.StorageManager
	suites    interfaces.SuiteService
	startTime time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(storage interfaces.StorageManager, suites interfaces.SuiteService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage:   storage,
		suites:    suites,
		startTime: time.Now(),
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	suiteCount := 0
	if suites, err := h.suites.ListSuites(r.Context()); err == nil {
		suiteCount = len(suites)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service":        "verity",
		"status":         "ONLINE",
		"version":        common.GetVersion(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"suites":         suiteCount,
	})
}

// GetVersionHandler handles GET /api/version
func (h *StatusHandler) GetVersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
