package suites

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
	badgerstore "github.com/ternarybob/verity/internal/storage/badger"
)

// Service loads suite definitions from YAML files into storage and serves
// them back. Reload re-reads the definitions directory so edited files take
// effect without a restart.
type Service struct {
	storage interfaces.StorageManager
	config  *common.SuitesConfig
	logger  arbor.ILogger
}

// NewService creates the suite service and performs the initial load
func NewService(storage interfaces.StorageManager, config *common.SuitesConfig, logger arbor.ILogger) (*Service, error) {
	service := &Service{
		storage: storage,
		config:  config,
		logger:  logger,
	}

	if err := service.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("initial suite load failed: %w", err)
	}
	return service, nil
}

// GetSuite returns one suite by ID
func (s *Service) GetSuite(ctx context.Context, id string) (*models.Suite, error) {
	return s.storage.Suites().GetSuite(ctx, id)
}

// ListSuites returns all loaded suites
func (s *Service) ListSuites(ctx context.Context) ([]*models.Suite, error) {
	return s.storage.Suites().ListSuites(ctx)
}

// Reload re-reads suite definition files from the configured directory.
// Files that fail to parse are logged and skipped; the rest still load.
func (s *Service) Reload(ctx context.Context) error {
	if s.config.DefinitionsDir == "" {
		s.logger.Debug().Msg("No suite definitions directory configured")
		return nil
	}
	return badgerstore.LoadSuitesFromFiles(ctx, s.storage.Suites(), s.config.DefinitionsDir, s.logger)
}
