// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/verity/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket for real-time execution events and log streaming
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Screenshot artifacts captured during execution
	if dir := s.app.Config.Storage.Filesystem.Screenshots; dir != "" {
		mux.Handle("/screenshots/", http.StripPrefix("/screenshots/", http.FileServer(http.Dir(dir))))
	}

	// Run execution and history
	mux.HandleFunc("/api/runs/stream", s.app.StreamHandler.StreamHandler) // POST - SSE execution stream
	mux.HandleFunc("/api/runs", s.handleRunsRoute)                        // GET (list), POST (execute)
	mux.HandleFunc("/api/runs/", s.handleRunRoutes)                       // GET/DELETE /{id}

	// Visual regression
	mux.HandleFunc("/api/regression/analyze", s.app.RegressionHandler.AnalyzeHandler) // POST
	mux.HandleFunc("/api/regression/runs/", s.handleRegressionRunRoutes)              // GET /{runID}
	mux.HandleFunc("/api/regression/ignore-regions/", s.handleIgnoreRegionRoutes)     // DELETE /{id}
	mux.HandleFunc("/api/regression/", s.handleRegressionRoutes)                      // PUT /{id}/status

	// Suite definitions, baselines, thresholds and ignore regions
	mux.HandleFunc("/api/suites/reload", s.app.SuiteHandler.ReloadSuitesHandler) // POST
	mux.HandleFunc("/api/suites", s.app.SuiteHandler.ListSuitesHandler)          // GET
	mux.HandleFunc("/api/suites/", s.handleSuiteRoutes)                          // GET /{id} + nested resources

	// Service endpoints
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.GetVersionHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

// handleRunsRoute routes the runs collection endpoint
func (s *Server) handleRunsRoute(w http.ResponseWriter, r *http.Request) {
	RouteCRUD(w, r,
		s.app.RunHandler.ListRunsHandler,
		s.app.RunHandler.ExecuteHandler,
		nil, nil)
}

// handleRunRoutes routes /api/runs/{id}
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		s.notFoundHandler(w, r)
		return
	}

	RouteCRUD(w, r,
		func(w http.ResponseWriter, r *http.Request) { s.app.RunHandler.GetRunHandler(w, r, runID) },
		nil, nil,
		func(w http.ResponseWriter, r *http.Request) { s.app.RunHandler.DeleteRunHandler(w, r, runID) })
}

// handleRegressionRunRoutes routes /api/regression/runs/{runID}
func (s *Server) handleRegressionRunRoutes(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/regression/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		s.notFoundHandler(w, r)
		return
	}
	if !handlers.RequireMethod(w, r, "GET") {
		return
	}

	s.app.RegressionHandler.ListByRunHandler(w, r, runID)
}

// handleIgnoreRegionRoutes routes /api/regression/ignore-regions/{id}
func (s *Server) handleIgnoreRegionRoutes(w http.ResponseWriter, r *http.Request) {
	regionID := strings.TrimPrefix(r.URL.Path, "/api/regression/ignore-regions/")
	if regionID == "" || strings.Contains(regionID, "/") {
		s.notFoundHandler(w, r)
		return
	}
	if !handlers.RequireMethod(w, r, "DELETE") {
		return
	}

	s.app.RegressionHandler.DeleteIgnoreRegionHandler(w, r, regionID)
}

// handleRegressionRoutes routes /api/regression/{id}/status
func (s *Server) handleRegressionRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/regression/")

	if regressionID, ok := strings.CutSuffix(path, "/status"); ok && regressionID != "" {
		if !handlers.RequireMethod(w, r, "PUT") {
			return
		}
		s.app.RegressionHandler.UpdateStatusHandler(w, r, regressionID)
		return
	}

	s.notFoundHandler(w, r)
}

// handleSuiteRoutes routes /api/suites/{id} and its nested baseline,
// threshold and ignore-region resources.
func (s *Server) handleSuiteRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/suites/")
	parts := strings.SplitN(path, "/", 2)
	suiteID := parts[0]
	if suiteID == "" {
		s.notFoundHandler(w, r)
		return
	}

	// GET /api/suites/{id}
	if len(parts) == 1 {
		if !handlers.RequireMethod(w, r, "GET") {
			return
		}
		s.app.SuiteHandler.GetSuiteHandler(w, r, suiteID)
		return
	}

	switch parts[1] {
	case "baseline":
		RouteCRUD(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.RegressionHandler.GetBaselineHandler(w, r, suiteID) },
			nil,
			func(w http.ResponseWriter, r *http.Request) { s.app.RegressionHandler.SetBaselineHandler(w, r, suiteID) },
			func(w http.ResponseWriter, r *http.Request) {
				s.app.RegressionHandler.ClearBaselineHandler(w, r, suiteID)
			})
	case "thresholds":
		RouteCRUD(w, r,
			func(w http.ResponseWriter, r *http.Request) {
				s.app.RegressionHandler.ListThresholdsHandler(w, r, suiteID)
			},
			nil,
			func(w http.ResponseWriter, r *http.Request) { s.app.RegressionHandler.SetThresholdHandler(w, r, suiteID) },
			nil)
	case "ignore-regions":
		RouteCRUD(w, r,
			func(w http.ResponseWriter, r *http.Request) {
				s.app.RegressionHandler.ListIgnoreRegionsHandler(w, r, suiteID)
			},
			func(w http.ResponseWriter, r *http.Request) {
				s.app.RegressionHandler.AddIgnoreRegionHandler(w, r, suiteID)
			},
			nil, nil)
	default:
		s.notFoundHandler(w, r)
	}
}

// notFoundHandler returns a JSON 404 for unmatched API routes
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "Not found: "+r.URL.Path)
}
