package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RegressionStorage implements the RegressionStorage interface for Badger
type RegressionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRegressionStorage creates a new RegressionStorage instance
func NewRegressionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RegressionStorage {
	return &RegressionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RegressionStorage) SaveRegression(ctx context.Context, regression *models.VisualRegression) error {
	if regression.ID == "" {
		return fmt.Errorf("regression ID is required")
	}
	regression.UpdatedAt = time.Now()
	if regression.CreatedAt.IsZero() {
		regression.CreatedAt = regression.UpdatedAt
	}

	if err := s.db.Store().Upsert(regression.ID, regression); err != nil {
		return fmt.Errorf("failed to save visual regression: %w", err)
	}
	return nil
}

func (s *RegressionStorage) GetRegression(ctx context.Context, id string) (*models.VisualRegression, error) {
	var regression models.VisualRegression
	if err := s.db.Store().Get(id, &regression); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get visual regression: %w", err)
	}
	return &regression, nil
}

func (s *RegressionStorage) ListRegressionsByRun(ctx context.Context, runID string) ([]*models.VisualRegression, error) {
	var regressions []models.VisualRegression
	query := badgerhold.Where("RunID").Eq(runID).SortBy("CreatedAt")
	if err := s.db.Store().Find(&regressions, query); err != nil {
		return nil, fmt.Errorf("failed to list visual regressions: %w", err)
	}

	result := make([]*models.VisualRegression, len(regressions))
	for i := range regressions {
		result[i] = &regressions[i]
	}
	return result, nil
}

func (s *RegressionStorage) UpdateRegressionStatus(ctx context.Context, id string, status models.ReviewStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid review status: %s", status)
	}

	regression, err := s.GetRegression(ctx, id)
	if err != nil {
		return err
	}

	regression.ReviewStatus = status
	regression.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(regression.ID, regression); err != nil {
		return fmt.Errorf("failed to update regression status: %w", err)
	}

	s.logger.Debug().Str("regression_id", id).Str("status", string(status)).Msg("Regression review status updated")
	return nil
}

func (s *RegressionStorage) SetBaseline(ctx context.Context, baseline *models.Baseline) error {
	if baseline.SuiteID == "" {
		return fmt.Errorf("baseline suite ID is required")
	}
	if baseline.RunID == "" {
		return fmt.Errorf("baseline run ID is required")
	}
	if baseline.SetAt.IsZero() {
		baseline.SetAt = time.Now()
	}

	if err := s.db.Store().Upsert(baseline.SuiteID, baseline); err != nil {
		return fmt.Errorf("failed to set baseline: %w", err)
	}

	s.logger.Info().Str("suite_id", baseline.SuiteID).Str("run_id", baseline.RunID).Msg("Baseline set")
	return nil
}

func (s *RegressionStorage) GetBaseline(ctx context.Context, suiteID string) (*models.Baseline, error) {
	var baseline models.Baseline
	if err := s.db.Store().Get(suiteID, &baseline); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get baseline: %w", err)
	}
	return &baseline, nil
}

func (s *RegressionStorage) ClearBaseline(ctx context.Context, suiteID string) error {
	if err := s.db.Store().Delete(suiteID, &models.Baseline{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to clear baseline: %w", err)
	}
	return nil
}

func (s *RegressionStorage) SetThreshold(ctx context.Context, override *models.ThresholdOverride) error {
	if override.SuiteID == "" {
		return fmt.Errorf("threshold suite ID is required")
	}
	if override.Value < 0 || override.Value > 1 {
		return fmt.Errorf("threshold must be a fraction in [0,1], got %f", override.Value)
	}
	override.ID = models.ThresholdKey(override.SuiteID, override.Viewport)

	if err := s.db.Store().Upsert(override.ID, override); err != nil {
		return fmt.Errorf("failed to set threshold: %w", err)
	}
	return nil
}

// GetThreshold resolves the threshold for a (suite, viewport) pair. The
// viewport-scoped override wins over the suite-wide one. The boolean result
// reports whether any override was found; callers fall back to the global
// default when it is false.
func (s *RegressionStorage) GetThreshold(ctx context.Context, suiteID, viewport string) (float64, bool, error) {
	if viewport != "" {
		var override models.ThresholdOverride
		err := s.db.Store().Get(models.ThresholdKey(suiteID, viewport), &override)
		if err == nil {
			return override.Value, true, nil
		}
		if err != badgerhold.ErrNotFound {
			return 0, false, fmt.Errorf("failed to get threshold: %w", err)
		}
	}

	var override models.ThresholdOverride
	err := s.db.Store().Get(models.ThresholdKey(suiteID, ""), &override)
	if err == nil {
		return override.Value, true, nil
	}
	if err != badgerhold.ErrNotFound {
		return 0, false, fmt.Errorf("failed to get threshold: %w", err)
	}

	return 0, false, nil
}

func (s *RegressionStorage) ListThresholds(ctx context.Context, suiteID string) ([]*models.ThresholdOverride, error) {
	var overrides []models.ThresholdOverride
	query := badgerhold.Where("SuiteID").Eq(suiteID).SortBy("ID")
	if err := s.db.Store().Find(&overrides, query); err != nil {
		return nil, fmt.Errorf("failed to list thresholds: %w", err)
	}

	result := make([]*models.ThresholdOverride, len(overrides))
	for i := range overrides {
		result[i] = &overrides[i]
	}
	return result, nil
}

func (s *RegressionStorage) SaveIgnoreRegion(ctx context.Context, region *models.IgnoreRegion) error {
	if region.SuiteID == "" {
		return fmt.Errorf("ignore region suite ID is required")
	}
	if region.Width <= 0 || region.Height <= 0 {
		return fmt.Errorf("ignore region dimensions must be positive")
	}
	if region.ID == "" {
		region.ID = "ign_" + uuid.New().String()
	}

	if err := s.db.Store().Upsert(region.ID, region); err != nil {
		return fmt.Errorf("failed to save ignore region: %w", err)
	}
	return nil
}

// GetIgnoreRegions returns the regions applicable to a (test, viewport)
// pair: every region whose optional scopes match.
func (s *RegressionStorage) GetIgnoreRegions(ctx context.Context, suiteID, testName, viewport string) ([]*models.IgnoreRegion, error) {
	all, err := s.ListIgnoreRegions(ctx, suiteID)
	if err != nil {
		return nil, err
	}

	applicable := make([]*models.IgnoreRegion, 0, len(all))
	for _, region := range all {
		if region.AppliesTo(testName, viewport) {
			applicable = append(applicable, region)
		}
	}
	return applicable, nil
}

func (s *RegressionStorage) ListIgnoreRegions(ctx context.Context, suiteID string) ([]*models.IgnoreRegion, error) {
	var regions []models.IgnoreRegion
	query := badgerhold.Where("SuiteID").Eq(suiteID).SortBy("ID")
	if err := s.db.Store().Find(&regions, query); err != nil {
		return nil, fmt.Errorf("failed to list ignore regions: %w", err)
	}

	result := make([]*models.IgnoreRegion, len(regions))
	for i := range regions {
		result[i] = &regions[i]
	}
	return result, nil
}

func (s *RegressionStorage) DeleteIgnoreRegion(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.IgnoreRegion{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete ignore region: %w", err)
	}
	return nil
}
