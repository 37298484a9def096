// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// Orchestrator executes suites across the viewport x scenario matrix.
// Pairs run sequentially, viewport-outer scenario-inner; one failed pair
// never stops the run.
type Orchestrator struct {
	storage  interfaces.StorageManager
	runner   *ScenarioRunner
	analysis interfaces.AnalysisService
	events   interfaces.EventService
	config   *common.Config
	logger   arbor.ILogger
}

// NewOrchestrator creates the execution orchestrator
func NewOrchestrator(storage interfaces.StorageManager, runner *ScenarioRunner, analysis interfaces.AnalysisService, events interfaces.EventService, config *common.Config, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		storage:  storage,
		runner:   runner,
		analysis: analysis,
		events:   events,
		config:   config,
		logger:   logger,
	}
}

// ExecuteSuite runs the full matrix and returns the finished run
func (o *Orchestrator) ExecuteSuite(ctx context.Context, req interfaces.ExecuteRequest) (*models.TestRun, error) {
	return o.ExecuteSuiteStream(ctx, req, nil)
}

// ExecuteSuiteStream runs the full matrix, emitting progress events to the
// sink as work proceeds. A nil sink degrades to batch mode.
func (o *Orchestrator) ExecuteSuiteStream(ctx context.Context, req interfaces.ExecuteRequest, sink interfaces.EventSink) (*models.TestRun, error) {
	suite, err := o.storage.Suites().GetSuite(ctx, req.SuiteID)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", req.SuiteID, err)
	}

	viewports := o.resolveViewports(req, suite)
	targetURL := o.resolveTargetURL(req, suite)
	started := time.Now()

	run := &models.TestRun{
		ID:                  common.NewRunID(),
		SuiteID:             suite.ID,
		TargetURL:           targetURL,
		Viewports:           viewports,
		ScenarioCount:       len(suite.Scenarios),
		TotalPairs:          len(viewports) * len(suite.Scenarios),
		Status:              models.RunStatusRunning,
		ScreenshotEveryStep: req.ScreenshotEveryStep || o.config.Execution.ScreenshotEveryStep,
		CreatedAt:           started.UTC(),
		UpdatedAt:           started.UTC(),
	}
	if err := o.storage.Runs().SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	o.logger.Info().
		Str("run_id", run.ID).
		Str("suite", suite.ID).
		Str("target_url", targetURL).
		Int("viewports", len(viewports)).
		Int("scenarios", len(suite.Scenarios)).
		Msg("Run started")

	o.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRunStarted, Payload: run})
	o.emitLog(sink, "info", fmt.Sprintf("run %s started: %d scenarios x %d viewports", run.ID, len(suite.Scenarios), len(viewports)))

	pairIndex := 0
	for _, viewport := range viewports {
		for _, scenario := range suite.Scenarios {
			pairIndex++

			o.emit(sink, models.ExecutionEvent{
				Type: models.EventTypeScenarioStart,
				Payload: models.ScenarioStartPayload{
					Name:     scenario.Name,
					Viewport: viewport.Name,
					Index:    pairIndex,
					Total:    run.TotalPairs,
				},
			})
			o.events.Publish(ctx, interfaces.Event{Type: interfaces.EventScenarioStarted, Payload: map[string]interface{}{
				"run_id":   run.ID,
				"scenario": scenario.Name,
				"viewport": viewport.Name,
			}})

			result := o.executePair(ctx, run, scenario, viewport, targetURL)

			saveErr := o.storage.Runs().SaveScenarioResult(ctx, result)
			if saveErr != nil {
				o.logger.Error().
					Str("run_id", run.ID).
					Str("scenario", scenario.Name).
					Err(saveErr).
					Msg("Failed to persist scenario result")
			}

			if result.Passed() {
				run.Passed++
			} else {
				run.Failed++
				o.emit(sink, models.ExecutionEvent{
					Type:    models.EventTypeError,
					Payload: models.ErrorPayload{Message: pairFailureMessage(result)},
				})
			}
			run.UpdatedAt = time.Now().UTC()
			if err := o.storage.Runs().SaveRun(ctx, run); err != nil {
				o.logger.Error().Str("run_id", run.ID).Err(err).Msg("Failed to persist run progress")
			}

			o.emit(sink, models.ExecutionEvent{
				Type: models.EventTypeScenarioComplete,
				Payload: models.ScenarioCompletePayload{
					Name:       scenario.Name,
					Viewport:   viewport.Name,
					Status:     result.Status,
					DurationMs: result.Duration.Milliseconds(),
				},
			})
			o.emit(sink, models.ExecutionEvent{
				Type: models.EventTypeProgress,
				Payload: models.ProgressPayload{
					Current:    pairIndex,
					Total:      run.TotalPairs,
					Percentage: float64(pairIndex) / float64(run.TotalPairs) * 100,
					Passed:     run.Passed,
					Failed:     run.Failed,
					ElapsedMs:  time.Since(started).Milliseconds(),
				},
			})
			o.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRunProgress, Payload: map[string]interface{}{
				"run_id":  run.ID,
				"current": pairIndex,
				"total":   run.TotalPairs,
				"passed":  run.Passed,
				"failed":  run.Failed,
			}})
			o.events.Publish(ctx, interfaces.Event{Type: interfaces.EventScenarioCompleted, Payload: result})

			// Enrichment re-saves the result, so it only runs for results
			// that persisted.
			if saveErr == nil {
				o.maybeAnalyze(result)
			}
		}
	}

	if run.Failed == 0 {
		run.Status = models.RunStatusCompleted
	} else {
		run.Status = models.RunStatusFailed
	}
	run.UpdatedAt = time.Now().UTC()
	run.CompletedAt = run.UpdatedAt
	if err := o.storage.Runs().SaveRun(ctx, run); err != nil {
		o.logger.Error().Str("run_id", run.ID).Err(err).Msg("Failed to persist finished run")
	}

	summary := models.RunSummary{
		RunID:     run.ID,
		Status:    run.Status,
		Total:     run.TotalPairs,
		Passed:    run.Passed,
		Failed:    run.Failed,
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	o.emit(sink, models.ExecutionEvent{
		Type:    models.EventTypeComplete,
		Payload: models.CompletePayload{Summary: summary},
	})
	o.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRunCompleted, Payload: run})

	o.logger.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("passed", run.Passed).
		Int("failed", run.Failed).
		Str("elapsed", time.Since(started).Round(time.Millisecond).String()).
		Msg("Run finished")

	return run, nil
}

// executePair runs one (scenario, viewport) pair with panic containment so
// a crashed pair yields a failing result instead of aborting the run.
func (o *Orchestrator) executePair(ctx context.Context, run *models.TestRun, scenario models.Scenario, viewport models.Viewport, targetURL string) (result *models.ScenarioResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("run_id", run.ID).
				Str("scenario", scenario.Name).
				Str("viewport", viewport.Name).
				Msg(fmt.Sprintf("Scenario panicked: %v", r))

			now := time.Now().UTC()
			result = &models.ScenarioResult{
				ID:           common.NewResultID(),
				RunID:        run.ID,
				ScenarioID:   scenario.ID,
				ScenarioName: scenario.Name,
				Viewport:     viewport,
				Status:       models.ScenarioStatusFail,
				StartedAt:    now,
				CompletedAt:  now,
				Errors: []models.ErrorEntry{{
					Message:   fmt.Sprintf("scenario panicked: %v", r),
					Source:    "scenario",
					Timestamp: now,
				}},
			}
		}
	}()

	result = o.runner.Run(ctx, ScenarioRun{
		RunID:               run.ID,
		Scenario:            scenario,
		Viewport:            viewport,
		TargetURL:           targetURL,
		ScreenshotEveryStep: run.ScreenshotEveryStep,
	})
	return result
}

// maybeAnalyze enriches a failed result with an AI analysis in the
// background. Analysis never changes the result status; failures are logged
// and dropped.
func (o *Orchestrator) maybeAnalyze(result *models.ScenarioResult) {
	if o.analysis == nil || !o.analysis.Enabled() || result.Passed() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		analysis, err := o.analysis.AnalyzeScenario(ctx, result)
		if err != nil {
			o.logger.Warn().
				Str("result_id", result.ID).
				Err(err).
				Msg("Scenario analysis failed")
			return
		}

		result.Analysis = analysis
		if err := o.storage.Runs().SaveScenarioResult(ctx, result); err != nil {
			o.logger.Warn().
				Str("result_id", result.ID).
				Err(err).
				Msg("Failed to persist scenario analysis")
		}
	}()
}

func (o *Orchestrator) resolveViewports(req interfaces.ExecuteRequest, suite *models.Suite) []models.Viewport {
	if len(req.Viewports) > 0 {
		return models.ResolveViewports(req.Viewports, o.config.Execution.Viewports)
	}
	if len(suite.Viewports) > 0 {
		return models.ViewportsFromProfiles(suite.Viewports, o.config.Execution.Viewports)
	}
	return []models.Viewport{{Name: "desktop", Width: models.DefaultViewportWidth, Height: models.DefaultViewportHeight}}
}

func (o *Orchestrator) resolveTargetURL(req interfaces.ExecuteRequest, suite *models.Suite) string {
	if req.TargetURL != "" {
		return req.TargetURL
	}
	if suite.TargetURL != "" {
		return suite.TargetURL
	}
	return o.config.Execution.TargetURL
}

func (o *Orchestrator) emit(sink interfaces.EventSink, event models.ExecutionEvent) {
	if sink != nil {
		sink(event)
	}
}

func (o *Orchestrator) emitLog(sink interfaces.EventSink, level, message string) {
	o.emit(sink, models.ExecutionEvent{
		Type: models.EventTypeLog,
		Payload: models.LogPayload{
			Type:      level,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	})
}

func pairFailureMessage(result *models.ScenarioResult) string {
	for _, entry := range result.Errors {
		return fmt.Sprintf("%s [%s]: %s", result.ScenarioName, result.Viewport.Name, entry.Message)
	}
	for _, step := range result.Steps {
		if step.Status == models.StepStatusFail {
			return fmt.Sprintf("%s [%s]: step %d (%s) failed: %s", result.ScenarioName, result.Viewport.Name, step.Index, step.Kind, step.Error)
		}
	}
	return fmt.Sprintf("%s [%s] failed", result.ScenarioName, result.Viewport.Name)
}
