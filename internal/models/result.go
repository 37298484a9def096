package models

import (
	"time"
)

// StepStatus represents the outcome of one executed step
type StepStatus string

const (
	StepStatusPass StepStatus = "pass"
	StepStatusFail StepStatus = "fail"
)

// ScenarioStatus represents the outcome of one (scenario, viewport) execution
type ScenarioStatus string

const (
	ScenarioStatusPass    ScenarioStatus = "pass"
	ScenarioStatusFail    ScenarioStatus = "fail"
	ScenarioStatusSkipped ScenarioStatus = "skipped"
)

// RunStatus represents the state of a test run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StepResult records the outcome of one step execution. Created the instant
// its step begins executing, immutable once the step finishes.
type StepResult struct {
	Index    int           `json:"index"`
	Kind     StepKind      `json:"kind"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message"`
	Error    string        `json:"error,omitempty"`
}

// ConsoleEntry is one captured browser console message
type ConsoleEntry struct {
	Type      string    `json:"type"` // "log", "info", "warn", "error", etc.
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEntry is one captured page error or step failure
type ErrorEntry struct {
	Message   string    `json:"message"`
	Source    string    `json:"source"` // "page", "step", "scenario"
	Timestamp time.Time `json:"timestamp"`
}

// Screenshot references one persisted screenshot artifact
type Screenshot struct {
	Label     string    `json:"label"` // "initial", "step", "error", "final"
	StepName  string    `json:"step_name,omitempty"`
	URL       string    `json:"url"`
	Viewport  string    `json:"viewport"`
	TakenAt   time.Time `json:"taken_at"`
	SizeBytes int       `json:"size_bytes,omitempty"`
}

// ScenarioResult is produced once per (scenario, viewport) execution.
// Status is fail iff at least one step failed or an error was recorded.
type ScenarioResult struct {
	ID           string         `json:"id" badgerhold:"key"`
	RunID        string         `json:"run_id" badgerhold:"index"`
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name"`
	Viewport     Viewport       `json:"viewport"`
	Status       ScenarioStatus `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Duration     time.Duration  `json:"duration"`
	Steps        []StepResult   `json:"steps"`
	Screenshots  []Screenshot   `json:"screenshots"`
	ConsoleLogs  []ConsoleEntry `json:"console_logs"`
	Errors       []ErrorEntry   `json:"errors"`
	Analysis     string         `json:"analysis,omitempty"` // Optional AI-generated failure analysis
}

// ComputeStatus derives the scenario status from recorded steps and errors:
// fail iff any step failed or any error was recorded, else pass.
func (r *ScenarioResult) ComputeStatus() ScenarioStatus {
	if len(r.Errors) > 0 {
		return ScenarioStatusFail
	}
	for _, step := range r.Steps {
		if step.Status == StepStatusFail {
			return ScenarioStatusFail
		}
	}
	return ScenarioStatusPass
}

// Passed reports whether the scenario passed
func (r *ScenarioResult) Passed() bool {
	return r.Status == ScenarioStatusPass
}

// TestRun groups all scenario results for one invocation across the full
// viewport x scenario matrix. Status is completed iff every result passed.
type TestRun struct {
	ID                  string     `json:"id" badgerhold:"key"`
	SuiteID             string     `json:"suite_id" badgerhold:"index"`
	TargetURL           string     `json:"target_url"`
	Viewports           []Viewport `json:"viewports"`
	ScenarioCount       int        `json:"scenario_count"`
	TotalPairs          int        `json:"total_pairs"`
	Passed              int        `json:"passed"`
	Failed              int        `json:"failed"`
	Status              RunStatus  `json:"status"`
	ScreenshotEveryStep bool       `json:"screenshot_every_step"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         time.Time  `json:"completed_at,omitempty"`
	Error               string     `json:"error,omitempty"`
}

// IsTerminal reports whether the run has reached a final status
func (r *TestRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// RunSummary is the aggregate reported by the terminating complete event
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Total     int       `json:"total"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	ElapsedMs int64     `json:"elapsed_ms"`
}
