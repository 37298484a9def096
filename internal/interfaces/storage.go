// -----------------------------------------------------------------------
// Last Modified: Tuesday, 14th July 2026 3:42:18 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/verity/internal/models"
)

// RunStorage persists test runs and their scenario results
type RunStorage interface {
	// Run operations
	SaveRun(ctx context.Context, run *models.TestRun) error
	GetRun(ctx context.Context, id string) (*models.TestRun, error)
	ListRuns(ctx context.Context, suiteID string, limit int) ([]*models.TestRun, error)
	UpdateRunStatus(ctx context.Context, id string, status models.RunStatus) error
	DeleteRun(ctx context.Context, id string) error

	// Scenario result operations
	SaveScenarioResult(ctx context.Context, result *models.ScenarioResult) error
	GetScenarioResult(ctx context.Context, id string) (*models.ScenarioResult, error)
	GetScenarioResults(ctx context.Context, runID string) ([]*models.ScenarioResult, error)
}

// SuiteStorage persists suite definitions
type SuiteStorage interface {
	SaveSuite(ctx context.Context, suite *models.Suite) error
	GetSuite(ctx context.Context, id string) (*models.Suite, error)
	ListSuites(ctx context.Context) ([]*models.Suite, error)
	DeleteSuite(ctx context.Context, id string) error
}

// RegressionStorage persists visual regressions, baselines, thresholds,
// and ignore regions
type RegressionStorage interface {
	// Visual regression operations
	SaveRegression(ctx context.Context, regression *models.VisualRegression) error
	GetRegression(ctx context.Context, id string) (*models.VisualRegression, error)
	ListRegressionsByRun(ctx context.Context, runID string) ([]*models.VisualRegression, error)
	UpdateRegressionStatus(ctx context.Context, id string, status models.ReviewStatus) error

	// Baseline operations. GetBaseline returns models.ErrNotFound when the
	// suite has no baseline configured.
	SetBaseline(ctx context.Context, baseline *models.Baseline) error
	GetBaseline(ctx context.Context, suiteID string) (*models.Baseline, error)
	ClearBaseline(ctx context.Context, suiteID string) error

	// Threshold operations. GetThreshold resolution order is
	// suite+viewport override, then suite default, then the global default.
	SetThreshold(ctx context.Context, override *models.ThresholdOverride) error
	GetThreshold(ctx context.Context, suiteID, viewport string) (float64, bool, error)
	ListThresholds(ctx context.Context, suiteID string) ([]*models.ThresholdOverride, error)

	// Ignore region operations
	SaveIgnoreRegion(ctx context.Context, region *models.IgnoreRegion) error
	GetIgnoreRegions(ctx context.Context, suiteID, testName, viewport string) ([]*models.IgnoreRegion, error)
	ListIgnoreRegions(ctx context.Context, suiteID string) ([]*models.IgnoreRegion, error)
	DeleteIgnoreRegion(ctx context.Context, id string) error
}

// ScreenshotRef identifies one screenshot artifact within a run
type ScreenshotRef struct {
	RunID        string
	ScenarioName string
	StepName     string
	Viewport     string
	Label        string // "initial", "step", "error", "final", "diff"
}

// ScreenshotStore persists screenshot binaries at stable URLs. A store with
// no configured directory returns an empty URL rather than an error so
// execution can proceed without artifact storage.
type ScreenshotStore interface {
	Save(ctx context.Context, data []byte, ref ScreenshotRef) (string, error)
	Load(ctx context.Context, url string) ([]byte, error)
}

// StorageManager provides access to all storage services
type StorageManager interface {
	Runs() RunStorage
	Suites() SuiteStorage
	Regressions() RegressionStorage
	Screenshots() ScreenshotStore
	Close() error
}
