// -------------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -------------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// StreamHandler serves POST /api/runs/stream - suite execution with progress
// delivered as server-sent events while the matrix runs.
type StreamHandler struct {
	executor interfaces.ExecutionService
	logger   arbor.ILogger
}

// NewStreamHandler creates a new streaming execution handler
func NewStreamHandler(executor interfaces.ExecutionService, logger arbor.ILogger) *StreamHandler {
	logger.Info().Msg("Initializing stream handler")

	return &StreamHandler{
		executor: executor,
		logger:   logger,
	}
}

// StreamHandler handles POST /api/runs/stream. The request body matches
// POST /api/runs; the response is an SSE stream of execution events
// terminated by a "complete" event carrying the run summary.
func (h *StreamHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	var req interfaces.ExecuteRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid execute request: "+err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Flush headers immediately to trigger browser's EventSource.onopen
	flusher.Flush()

	h.logger.Info().
		Str("suite_id", req.SuiteID).
		Msg("Streaming suite execution")

	// Events arrive on the executor's goroutine in completion order, so
	// writes to the response need no further synchronization.
	sink := func(event models.ExecutionEvent) {
		h.sendEvent(w, flusher, event.Type, event.Payload)
	}

	if _, err := h.executor.ExecuteSuiteStream(r.Context(), req, sink); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendEvent(w, flusher, models.EventTypeError, models.ErrorPayload{
				Message: "suite not found: " + req.SuiteID,
			})
			return
		}
		h.logger.Error().Err(err).Str("suite_id", req.SuiteID).Msg("Streamed execution failed")
		h.sendEvent(w, flusher, models.EventTypeError, models.ErrorPayload{
			Message: err.Error(),
		})
	}
}

// sendEvent writes an SSE event to the response
func (h *StreamHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal SSE event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
