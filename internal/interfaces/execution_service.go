package interfaces

import (
	"context"

	"github.com/ternarybob/verity/internal/models"
)

// ExecuteRequest describes one suite execution across a viewport matrix
type ExecuteRequest struct {
	// Viewports is validated non-empty at the API boundary. Internal callers
	// (the scheduler) may leave it empty to use the suite's own viewports,
	// falling back to the desktop default.
	SuiteID             string                `json:"suite_id" validate:"required"`
	Viewports           []models.ViewportSpec `json:"viewports" validate:"required,min=1"`
	TargetURL           string                `json:"target_url,omitempty" validate:"omitempty,url"`
	ScreenshotEveryStep bool                  `json:"screenshot_on_every_step,omitempty"`
}

// EventSink receives execution events in completion order. Emit must not
// block execution; a sink that can no longer deliver simply drops events.
type EventSink func(event models.ExecutionEvent)

// ExecutionService runs suites across the viewport x scenario matrix
type ExecutionService interface {
	// ExecuteSuite runs the full matrix and returns the finished run (batch mode)
	ExecuteSuite(ctx context.Context, req ExecuteRequest) (*models.TestRun, error)

	// ExecuteSuiteStream runs the full matrix, emitting progress events to
	// the sink as work proceeds. Functionally equivalent to ExecuteSuite,
	// differing only in when the caller observes results.
	ExecuteSuiteStream(ctx context.Context, req ExecuteRequest, sink EventSink) (*models.TestRun, error)
}

// RegressionService compares a run against its suite's baseline
type RegressionService interface {
	// Analyze resolves the run's suite baseline, pairs screenshots, diffs
	// each pair, and returns the aggregated report. A missing baseline
	// yields a report with Success=false, not an error.
	Analyze(ctx context.Context, runID string) (*models.RegressionReport, error)
}

// AnalysisService generates an AI-written failure analysis for a completed
// scenario. Fire-and-forget enrichment: failures never alter results.
type AnalysisService interface {
	// AnalyzeScenario returns a short analysis of the scenario outcome
	AnalyzeScenario(ctx context.Context, result *models.ScenarioResult) (string, error)

	// Enabled reports whether a provider is configured
	Enabled() bool
}

// SuiteService provides access to loaded suite definitions
type SuiteService interface {
	GetSuite(ctx context.Context, id string) (*models.Suite, error)
	ListSuites(ctx context.Context) ([]*models.Suite, error)

	// Reload re-reads suite definition files from the configured directory
	Reload(ctx context.Context) error
}
