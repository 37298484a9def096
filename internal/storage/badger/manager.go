package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	runs        interfaces.RunStorage
	suites      interfaces.SuiteStorage
	regressions interfaces.RegressionStorage
	screenshots interfaces.ScreenshotStore
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, &config.Badger)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		runs:        NewRunStorage(db, logger),
		suites:      NewSuiteStorage(db, logger),
		regressions: NewRegressionStorage(db, logger),
		screenshots: NewScreenshotStore(config.Filesystem.Screenshots, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Runs returns the run storage interface
func (m *Manager) Runs() interfaces.RunStorage {
	return m.runs
}

// Suites returns the suite storage interface
func (m *Manager) Suites() interfaces.SuiteStorage {
	return m.suites
}

// Regressions returns the regression storage interface
func (m *Manager) Regressions() interfaces.RegressionStorage {
	return m.regressions
}

// Screenshots returns the screenshot store
func (m *Manager) Screenshots() interfaces.ScreenshotStore {
	return m.screenshots
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close reclaims value log space and closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		m.db.RunGC()
		return m.db.Close()
	}
	return nil
}
