package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(ctx context.Context, run *models.TestRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	run.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.TestRun, error) {
	var run models.TestRun
	if err := s.db.Store().Get(id, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *RunStorage) ListRuns(ctx context.Context, suiteID string, limit int) ([]*models.TestRun, error) {
	query := badgerhold.Where("ID").Ne("")
	if suiteID != "" {
		query = query.And("SuiteID").Eq(suiteID)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.TestRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.TestRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

func (s *RunStorage) UpdateRunStatus(ctx context.Context, id string, status models.RunStatus) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	run.Status = status
	run.UpdatedAt = time.Now()
	if run.IsTerminal() {
		run.CompletedAt = run.UpdatedAt
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	s.logger.Debug().Str("run_id", id).Str("status", string(status)).Msg("Run status updated")
	return nil
}

func (s *RunStorage) DeleteRun(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.TestRun{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete run: %w", err)
	}

	// Remove the run's scenario results alongside the run itself
	if err := s.db.Store().DeleteMatching(&models.ScenarioResult{}, badgerhold.Where("RunID").Eq(id)); err != nil {
		s.logger.Warn().Err(err).Str("run_id", id).Msg("Failed to delete scenario results for run")
	}
	return nil
}

func (s *RunStorage) SaveScenarioResult(ctx context.Context, result *models.ScenarioResult) error {
	if result.ID == "" {
		return fmt.Errorf("scenario result ID is required")
	}

	if err := s.db.Store().Upsert(result.ID, result); err != nil {
		return fmt.Errorf("failed to save scenario result: %w", err)
	}
	return nil
}

func (s *RunStorage) GetScenarioResult(ctx context.Context, id string) (*models.ScenarioResult, error) {
	var result models.ScenarioResult
	if err := s.db.Store().Get(id, &result); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scenario result: %w", err)
	}
	return &result, nil
}

func (s *RunStorage) GetScenarioResults(ctx context.Context, runID string) ([]*models.ScenarioResult, error) {
	var results []models.ScenarioResult
	query := badgerhold.Where("RunID").Eq(runID).SortBy("StartedAt")
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to get scenario results: %w", err)
	}

	out := make([]*models.ScenarioResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}
