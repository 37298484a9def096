package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// LoadSuitesFromFiles loads suite definitions from YAML files in the
// specified directory and upserts them into suite storage. Files that fail
// to parse are logged and skipped so one bad definition never blocks the rest.
func LoadSuitesFromFiles(ctx context.Context, suiteStorage interfaces.SuiteStorage, definitionsDir string, logger arbor.ILogger) error {
	if _, err := os.Stat(definitionsDir); os.IsNotExist(err) {
		logger.Debug().Str("dir", definitionsDir).Msg("Suite definitions directory does not exist, skipping")
		return nil
	}

	logger.Info().Str("dir", definitionsDir).Msg("Loading suite definitions from files")

	entries, err := os.ReadDir(definitionsDir)
	if err != nil {
		return fmt.Errorf("failed to read suite definitions directory: %w", err)
	}

	loadedCount := 0
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		filePath := filepath.Join(definitionsDir, entry.Name())

		data, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read suite definition file")
			continue
		}

		suite, err := models.ParseSuiteDefinition(data)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse suite definition")
			continue
		}

		if suite.Schedule != "" {
			if err := common.ValidateSchedule(suite.Schedule); err != nil {
				logger.Warn().Err(err).Str("file", entry.Name()).Str("suite_id", suite.ID).Msg("Invalid suite schedule - clearing it")
				suite.Schedule = ""
			}
		}

		if err := suiteStorage.SaveSuite(ctx, suite); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Str("suite_id", suite.ID).Msg("Failed to save suite definition")
			continue
		}

		logger.Info().Str("file", entry.Name()).Str("suite_id", suite.ID).Int("scenarios", len(suite.Scenarios)).Msg("Suite definition loaded")
		loadedCount++
	}

	logger.Info().Int("count", loadedCount).Msg("Suite definitions loaded")
	return nil
}
