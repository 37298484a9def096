// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package regression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
	"github.com/ternarybob/verity/internal/services/visual"
)

// Service compares a finished run against its suite baseline. One pair that
// cannot be diffed is logged and skipped; the batch never aborts.
type Service struct {
	storage    interfaces.StorageManager
	comparator *visual.Comparator
	events     interfaces.EventService
	config     *common.RegressionConfig
	logger     arbor.ILogger
}

// NewService creates the regression analysis service
func NewService(storage interfaces.StorageManager, comparator *visual.Comparator, events interfaces.EventService, config *common.RegressionConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:    storage,
		comparator: comparator,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// pairKey identifies one comparable screenshot within a run
type pairKey struct {
	Scenario string
	Viewport string
	Label    string
	StepName string
}

// Analyze resolves the run's suite baseline, pairs screenshots by
// (scenario, viewport, label, step), diffs each pair, persists one
// VisualRegression per comparison, and returns the aggregated report.
// A suite with no baseline yields a Success=false report, not an error.
func (s *Service) Analyze(ctx context.Context, runID string) (*models.RegressionReport, error) {
	run, err := s.storage.Runs().GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	baseline, err := s.storage.Regressions().GetBaseline(ctx, run.SuiteID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info().
			Str("run_id", runID).
			Str("suite", run.SuiteID).
			Msg("No baseline set, skipping regression analysis")
		return &models.RegressionReport{
			Success: false,
			Message: fmt.Sprintf("no baseline set for suite %s", run.SuiteID),
			RunID:   runID,
			SuiteID: run.SuiteID,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("baseline for suite %s: %w", run.SuiteID, err)
	}

	currentShots, err := s.collectScreenshots(ctx, runID)
	if err != nil {
		return nil, err
	}
	baselineShots, err := s.collectScreenshots(ctx, baseline.RunID)
	if err != nil {
		return nil, err
	}

	report := &models.RegressionReport{
		Success:       true,
		RunID:         runID,
		BaselineRunID: baseline.RunID,
		SuiteID:       run.SuiteID,
	}

	var percentageSum float64
	for key, current := range currentShots {
		reference, ok := baselineShots[key]
		if !ok {
			s.logger.Debug().
				Str("scenario", key.Scenario).
				Str("viewport", key.Viewport).
				Str("label", key.Label).
				Msg("No baseline counterpart for screenshot, skipping")
			continue
		}

		regression, err := s.comparePair(ctx, run, baseline, key, reference, current)
		if err != nil {
			report.SkippedComparisons++
			s.logger.Warn().
				Err(&models.ComparisonError{ScenarioName: key.Scenario, Viewport: key.Viewport, Err: err}).
				Msg("Comparison skipped")
			continue
		}

		report.TotalComparisons++
		percentageSum += regression.Comparison.PercentageDifferent
		if regression.Comparison.IsSignificant {
			report.SignificantCount++
		}
		report.Regressions = append(report.Regressions, *regression)
	}

	if report.TotalComparisons > 0 {
		report.MeanPercentage = percentageSum / float64(report.TotalComparisons)
	}

	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRegressionAnalyzed, Payload: report})

	s.logger.Info().
		Str("run_id", runID).
		Str("baseline_run_id", baseline.RunID).
		Int("comparisons", report.TotalComparisons).
		Int("significant", report.SignificantCount).
		Int("skipped", report.SkippedComparisons).
		Msg("Regression analysis finished")

	return report, nil
}

// collectScreenshots indexes a run's comparable screenshots by pair key.
// Error captures are excluded: they document failures, they are not visual
// reference material.
func (s *Service) collectScreenshots(ctx context.Context, runID string) (map[pairKey]models.Screenshot, error) {
	results, err := s.storage.Runs().GetScenarioResults(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("scenario results for run %s: %w", runID, err)
	}

	shots := make(map[pairKey]models.Screenshot)
	for _, result := range results {
		for _, shot := range result.Screenshots {
			if shot.Label == "error" || shot.URL == "" {
				continue
			}
			shots[pairKey{
				Scenario: result.ScenarioName,
				Viewport: shot.Viewport,
				Label:    shot.Label,
				StepName: shot.StepName,
			}] = shot
		}
	}
	return shots, nil
}

// comparePair diffs one screenshot pair and persists the resulting
// VisualRegression with its seeded review status.
func (s *Service) comparePair(ctx context.Context, run *models.TestRun, baseline *models.Baseline, key pairKey, reference, current models.Screenshot) (*models.VisualRegression, error) {
	baselineData, err := s.storage.Screenshots().Load(ctx, reference.URL)
	if err != nil {
		return nil, fmt.Errorf("loading baseline screenshot: %w", err)
	}
	currentData, err := s.storage.Screenshots().Load(ctx, current.URL)
	if err != nil {
		return nil, fmt.Errorf("loading current screenshot: %w", err)
	}

	baselineImg, err := visual.DecodeImage(baselineData)
	if err != nil {
		return nil, err
	}
	currentImg, err := visual.DecodeImage(currentData)
	if err != nil {
		return nil, err
	}

	threshold := s.resolveThreshold(ctx, run.SuiteID, key.Viewport)
	regions, err := s.storage.Regressions().GetIgnoreRegions(ctx, run.SuiteID, key.Scenario, key.Viewport)
	if err != nil {
		return nil, fmt.Errorf("resolving ignore regions: %w", err)
	}
	applicable := make([]models.IgnoreRegion, 0, len(regions))
	for _, region := range regions {
		applicable = append(applicable, *region)
	}

	diff, err := s.comparator.Compare(baselineImg, currentImg, applicable)
	if err != nil {
		return nil, err
	}

	diffURL := s.saveDiffImage(ctx, run.ID, key, diff)

	comparison := models.ComparisonResult{
		PixelsDifferent:     diff.PixelsDifferent,
		PercentageDifferent: diff.PercentageDifferent,
		Width:               diff.Width,
		Height:              diff.Height,
		Threshold:           threshold,
		IsSignificant:       diff.PercentageDifferent > threshold*100,
		BaselineURL:         reference.URL,
		CurrentURL:          current.URL,
		DiffURL:             diffURL,
	}

	now := time.Now().UTC()
	regression := &models.VisualRegression{
		ID:            common.NewRegressionID(),
		RunID:         run.ID,
		BaselineRunID: baseline.RunID,
		SuiteID:       run.SuiteID,
		ScenarioName:  key.Scenario,
		Viewport:      key.Viewport,
		StepName:      key.StepName,
		Comparison:    comparison,
		ReviewStatus:  models.SeedReviewStatus(comparison.IsSignificant),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.storage.Regressions().SaveRegression(ctx, regression); err != nil {
		return nil, fmt.Errorf("persisting regression: %w", err)
	}

	return regression, nil
}

// resolveThreshold walks viewport override, then suite default, then the
// configured global default.
func (s *Service) resolveThreshold(ctx context.Context, suiteID, viewport string) float64 {
	value, found, err := s.storage.Regressions().GetThreshold(ctx, suiteID, viewport)
	if err != nil {
		s.logger.Warn().
			Str("suite", suiteID).
			Str("viewport", viewport).
			Err(err).
			Msg("Threshold lookup failed, using default")
		return s.config.DefaultThreshold
	}
	if !found {
		return s.config.DefaultThreshold
	}
	return value
}

// saveDiffImage stores the rendered diff. Failures degrade to an empty URL;
// the comparison verdict stands without the artifact.
func (s *Service) saveDiffImage(ctx context.Context, runID string, key pairKey, diff *visual.DiffResult) string {
	data, err := visual.EncodePNG(diff.DiffImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode diff image")
		return ""
	}

	stepName := key.StepName
	if stepName == "" && key.Label != "final" {
		stepName = key.Label
	}
	url, err := s.storage.Screenshots().Save(ctx, data, interfaces.ScreenshotRef{
		RunID:        runID,
		ScenarioName: key.Scenario,
		StepName:     stepName,
		Viewport:     key.Viewport,
		Label:        "diff",
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to store diff image")
		return ""
	}
	return url
}
