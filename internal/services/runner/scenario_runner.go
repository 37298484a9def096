package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// ScenarioRun describes one (scenario, viewport) pair to execute
type ScenarioRun struct {
	RunID               string
	Scenario            models.Scenario
	Viewport            models.Viewport
	TargetURL           string
	ScreenshotEveryStep bool
}

// ScenarioRunner executes one scenario in a fresh browsing context. A run
// always yields a ScenarioResult; browser failures are recorded on the
// result rather than returned.
type ScenarioRunner struct {
	driver      interfaces.BrowserDriver
	screenshots interfaces.ScreenshotStore
	interpreter *Interpreter
	config      *common.BrowserConfig
	logger      arbor.ILogger
}

// NewScenarioRunner creates a scenario runner
func NewScenarioRunner(driver interfaces.BrowserDriver, screenshots interfaces.ScreenshotStore, config *common.BrowserConfig, logger arbor.ILogger) *ScenarioRunner {
	return &ScenarioRunner{
		driver:      driver,
		screenshots: screenshots,
		interpreter: NewInterpreter(config, logger),
		config:      config,
		logger:      logger,
	}
}

// Run executes the scenario's steps in order against a dedicated page.
// Step failures never abort the loop; the page is always closed.
func (r *ScenarioRunner) Run(ctx context.Context, run ScenarioRun) *models.ScenarioResult {
	result := &models.ScenarioResult{
		ID:           common.NewResultID(),
		RunID:        run.RunID,
		ScenarioID:   run.Scenario.ID,
		ScenarioName: run.Scenario.Name,
		Viewport:     run.Viewport,
		StartedAt:    time.Now().UTC(),
		Steps:        make([]models.StepResult, 0, len(run.Scenario.Steps)),
	}

	r.logger.Info().
		Str("run_id", run.RunID).
		Str("scenario", run.Scenario.Name).
		Str("viewport", run.Viewport.Name).
		Str("size", run.Viewport.Size()).
		Msg("Executing scenario")

	// captureMu guards result.Errors and result.ConsoleLogs: CDP listeners
	// append on the event goroutine while the run loop appends and reads
	// on this one.
	var captureMu sync.Mutex

	page, err := r.driver.NewPage(ctx, run.Viewport)
	if err != nil {
		r.recordError(result, &captureMu, "scenario", (&models.ScenarioError{
			Scenario: run.Scenario.Name,
			Viewport: run.Viewport.Name,
			Err:      err,
		}).Error())
		r.finalize(result, &captureMu)
		return result
	}
	defer page.Close()

	// Console and page-error capture is armed before any navigation so
	// early output is not lost. Listeners fire on the CDP event goroutine.
	page.OnConsole(func(entry models.ConsoleEntry) {
		captureMu.Lock()
		result.ConsoleLogs = append(result.ConsoleLogs, entry)
		captureMu.Unlock()
	})
	page.OnPageError(func(entry models.ErrorEntry) {
		captureMu.Lock()
		result.Errors = append(result.Errors, entry)
		captureMu.Unlock()
	})

	if run.TargetURL != "" {
		if err := page.Navigate(ctx, run.TargetURL, r.config.NavigationTimeout); err != nil {
			r.recordError(result, &captureMu, "scenario", (&models.ScenarioError{
				Scenario: run.Scenario.Name,
				Viewport: run.Viewport.Name,
				Err:      err,
			}).Error())
			r.capture(ctx, page, result, run, "error", "")
			page.Close()
			r.finalize(result, &captureMu)
			return result
		}
	}

	r.capture(ctx, page, result, run, "initial", "")

	for index, step := range run.Scenario.Steps {
		stepResult := r.interpreter.ExecuteStep(ctx, page, step, index)
		result.Steps = append(result.Steps, stepResult)

		if stepResult.Status == models.StepStatusFail {
			r.recordError(result, &captureMu, "step",
				fmt.Sprintf("step %d (%s) failed: %s", index, step.Kind, stepResult.Error))
			r.capture(ctx, page, result, run, "error", stepLabel(step, index))
		}
		if run.ScreenshotEveryStep || step.Kind == models.StepKindScreenshot {
			r.capture(ctx, page, result, run, "step", stepLabel(step, index))
		}
	}

	r.capture(ctx, page, result, run, "final", "")

	// Closing before status computation stops further CDP listener
	// dispatch; the deferred Close is a no-op after this.
	page.Close()
	r.finalize(result, &captureMu)

	r.logger.Info().
		Str("run_id", run.RunID).
		Str("scenario", run.Scenario.Name).
		Str("viewport", run.Viewport.Name).
		Str("status", string(result.Status)).
		Str("duration", result.Duration.String()).
		Msg("Scenario finished")

	return result
}

// capture saves one screenshot artifact. Capture or store failures are
// logged and skipped so artifacts never change the scenario outcome.
func (r *ScenarioRunner) capture(ctx context.Context, page interfaces.Page, result *models.ScenarioResult, run ScenarioRun, label, stepName string) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		r.logger.Warn().
			Str("scenario", run.Scenario.Name).
			Str("label", label).
			Err(err).
			Msg("Screenshot capture failed")
		return
	}

	url, err := r.screenshots.Save(ctx, data, interfaces.ScreenshotRef{
		RunID:        run.RunID,
		ScenarioName: run.Scenario.Name,
		StepName:     stepName,
		Viewport:     run.Viewport.Name,
		Label:        label,
	})
	if err != nil {
		r.logger.Warn().
			Str("scenario", run.Scenario.Name).
			Str("label", label).
			Err(err).
			Msg("Screenshot save failed")
		return
	}
	if url == "" {
		// No screenshot directory configured
		return
	}

	result.Screenshots = append(result.Screenshots, models.Screenshot{
		Label:     label,
		StepName:  stepName,
		URL:       url,
		Viewport:  run.Viewport.Name,
		TakenAt:   time.Now().UTC(),
		SizeBytes: len(data),
	})
}

func (r *ScenarioRunner) recordError(result *models.ScenarioResult, mu *sync.Mutex, source, message string) {
	mu.Lock()
	result.Errors = append(result.Errors, models.ErrorEntry{
		Message:   message,
		Source:    source,
		Timestamp: time.Now().UTC(),
	})
	mu.Unlock()
	r.logger.Warn().
		Str("scenario", result.ScenarioName).
		Str("viewport", result.Viewport.Name).
		Str("source", source).
		Msg(message)
}

func (r *ScenarioRunner) finalize(result *models.ScenarioResult, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	result.CompletedAt = time.Now().UTC()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	result.Status = result.ComputeStatus()
}

func stepLabel(step models.Step, index int) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("step-%d", index)
}
