// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/handlers"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/services/analysis"
	"github.com/ternarybob/verity/internal/services/browser"
	"github.com/ternarybob/verity/internal/services/events"
	"github.com/ternarybob/verity/internal/services/regression"
	"github.com/ternarybob/verity/internal/services/runner"
	"github.com/ternarybob/verity/internal/services/scheduler"
	"github.com/ternarybob/verity/internal/services/suites"
	"github.com/ternarybob/verity/internal/services/visual"
	"github.com/ternarybob/verity/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Event bus
	EventService interfaces.EventService

	// Browser automation
	BrowserDriver interfaces.BrowserDriver

	// Execution pipeline
	ScenarioRunner   *runner.ScenarioRunner
	ExecutionService interfaces.ExecutionService

	// Visual regression
	Comparator        *visual.Comparator
	RegressionService interfaces.RegressionService

	// AI failure analysis
	AnalysisService interfaces.AnalysisService

	// Suite definitions and scheduling
	SuiteService interfaces.SuiteService
	Scheduler    *scheduler.Scheduler

	// HTTP handlers
	WSHandler         *handlers.WebSocketHandler
	WSWriter          *handlers.WebSocketWriter
	RunHandler        *handlers.RunHandler
	StreamHandler     *handlers.StreamHandler
	RegressionHandler *handlers.RegressionHandler
	SuiteHandler      *handlers.SuiteHandler
	StatusHandler     *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	// Initialize storage
	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		app.cancelCtx()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Initialize event bus early so every service can publish to it
	app.EventService = events.NewService(logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, logger, &cfg.WebSocket)

	// Route service logs to connected WebSocket clients
	wsWriter, err := handlers.NewWebSocketWriter(app.WSHandler, arbormodels.WriterConfiguration{
		Type:       arbormodels.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}, &cfg.WebSocket)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket log writer unavailable - continuing without log streaming")
	} else {
		app.WSWriter = wsWriter
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.cancelCtx()
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	// Register scheduled suites and start the cron loop
	if err := app.Scheduler.Start(app.ctx); err != nil {
		logger.Warn().Err(err).Msg("Scheduler failed to start - scheduled suites disabled")
	}

	logger.Info().
		Int("scheduled_suites", app.Scheduler.ScheduledCount()).
		Bool("analysis_enabled", app.AnalysisService.Enabled()).
		Msg("Application initialization complete")

	return app, nil
}

// initServices wires the execution and regression pipelines
func (a *App) initServices() error {
	// Browser automation
	a.BrowserDriver = browser.NewDriver(&a.Config.Browser, a.Logger)

	// AI failure analysis (disabled when no provider is configured)
	a.AnalysisService = analysis.NewService(a.Config, a.Logger)

	// Scenario execution
	a.ScenarioRunner = runner.NewScenarioRunner(
		a.BrowserDriver,
		a.StorageManager.Screenshots(),
		&a.Config.Browser,
		a.Logger,
	)
	a.ExecutionService = runner.NewOrchestrator(
		a.StorageManager,
		a.ScenarioRunner,
		a.AnalysisService,
		a.EventService,
		a.Config,
		a.Logger,
	)

	// Visual regression
	a.Comparator = visual.NewComparator(&a.Config.Regression, a.Logger)
	a.RegressionService = regression.NewService(
		a.StorageManager,
		a.Comparator,
		a.EventService,
		&a.Config.Regression,
		a.Logger,
	)

	// Suite definitions (loads definition files at startup)
	suiteService, err := suites.NewService(a.StorageManager, &a.Config.Suites, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load suite definitions: %w", err)
	}
	a.SuiteService = suiteService

	// Scheduled suite execution
	a.Scheduler = scheduler.NewScheduler(a.ExecutionService, a.SuiteService, a.Logger)

	return nil
}

// initHandlers wires the HTTP handlers
func (a *App) initHandlers() {
	a.RunHandler = handlers.NewRunHandler(a.ExecutionService, a.StorageManager, a.Logger)
	a.StreamHandler = handlers.NewStreamHandler(a.ExecutionService, a.Logger)
	a.RegressionHandler = handlers.NewRegressionHandler(a.RegressionService, a.StorageManager, a.EventService, a.Logger)
	a.SuiteHandler = handlers.NewSuiteHandler(a.SuiteService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StorageManager, a.SuiteService, a.Logger)
}

// Context returns the application's root context
func (a *App) Context() context.Context {
	return a.ctx
}

// Close shuts down all application components in dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	a.cancelCtx()

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.BrowserDriver != nil {
		if err := a.BrowserDriver.Shutdown(); err != nil {
			a.Logger.Warn().Err(err).Msg("Browser driver shutdown failed")
		}
	}

	if a.WSWriter != nil {
		if err := a.WSWriter.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("WebSocket log writer close failed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service close failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Storage manager close failed")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
