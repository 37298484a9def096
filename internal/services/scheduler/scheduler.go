// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
)

// Scheduler triggers suite executions on their cron schedules. Suites
// without a schedule are ignored; invalid schedules were already cleared at
// load time.
type Scheduler struct {
	cron     *cron.Cron
	executor interfaces.ExecutionService
	suites   interfaces.SuiteService
	logger   arbor.ILogger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
}

// NewScheduler creates the suite scheduler
func NewScheduler(executor interfaces.ExecutionService, suites interfaces.SuiteService, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		executor: executor,
		suites:   suites,
		logger:   logger,
		entries:  make(map[string]cron.EntryID),
	}
}

// Start registers every scheduled suite and begins the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	loaded, err := s.suites.ListSuites(ctx)
	if err != nil {
		return fmt.Errorf("listing suites for scheduling: %w", err)
	}

	for _, suite := range loaded {
		if suite.Schedule == "" {
			continue
		}
		if err := common.ValidateSchedule(suite.Schedule); err != nil {
			s.logger.Warn().
				Str("suite", suite.ID).
				Str("schedule", suite.Schedule).
				Err(err).
				Msg("Skipping suite with invalid schedule")
			continue
		}

		suiteID := suite.ID
		entryID, err := s.cron.AddFunc(suite.Schedule, func() {
			s.runSuite(suiteID)
		})
		if err != nil {
			s.logger.Warn().
				Str("suite", suiteID).
				Str("schedule", suite.Schedule).
				Err(err).
				Msg("Failed to register suite schedule")
			continue
		}

		s.entries[suiteID] = entryID
		s.logger.Info().
			Str("suite", suiteID).
			Str("schedule", suite.Schedule).
			Msg("Suite scheduled")
	}

	s.cron.Start()
	s.started = true
	s.logger.Info().Int("scheduled", len(s.entries)).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	s.logger.Info().Msg("Scheduler stopped")
}

// ScheduledCount returns the number of registered suite schedules
func (s *Scheduler) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// runSuite executes one scheduled run with the suite's own defaults
func (s *Scheduler) runSuite(suiteID string) {
	s.logger.Info().Str("suite", suiteID).Msg("Scheduled run starting")

	run, err := s.executor.ExecuteSuite(context.Background(), interfaces.ExecuteRequest{SuiteID: suiteID})
	if err != nil {
		s.logger.Error().
			Str("suite", suiteID).
			Err(err).
			Msg("Scheduled run failed to execute")
		return
	}

	s.logger.Info().
		Str("suite", suiteID).
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Msg("Scheduled run finished")
}
