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

// SuiteStorage implements the SuiteStorage interface for Badger
type SuiteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSuiteStorage creates a new SuiteStorage instance
func NewSuiteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SuiteStorage {
	return &SuiteStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SuiteStorage) SaveSuite(ctx context.Context, suite *models.Suite) error {
	if suite.ID == "" {
		return fmt.Errorf("suite ID is required")
	}
	suite.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(suite.ID, suite); err != nil {
		return fmt.Errorf("failed to save suite: %w", err)
	}
	return nil
}

func (s *SuiteStorage) GetSuite(ctx context.Context, id string) (*models.Suite, error) {
	var suite models.Suite
	if err := s.db.Store().Get(id, &suite); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get suite: %w", err)
	}
	return &suite, nil
}

func (s *SuiteStorage) ListSuites(ctx context.Context) ([]*models.Suite, error) {
	var suites []models.Suite
	query := badgerhold.Where("ID").Ne("").SortBy("ID")
	if err := s.db.Store().Find(&suites, query); err != nil {
		return nil, fmt.Errorf("failed to list suites: %w", err)
	}

	result := make([]*models.Suite, len(suites))
	for i := range suites {
		result[i] = &suites[i]
	}
	return result, nil
}

func (s *SuiteStorage) DeleteSuite(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Suite{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete suite: %w", err)
	}
	return nil
}
