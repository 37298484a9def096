package models

import "time"

// Execution progress event types, emitted in completion order over one
// single-writer channel per suite invocation.
const (
	EventTypeProgress         = "progress"
	EventTypeScenarioStart    = "scenario-start"
	EventTypeLog              = "log"
	EventTypeScenarioComplete = "scenario-complete"
	EventTypeError            = "error"
	EventTypeComplete         = "complete"
)

// ExecutionEvent is one entry in the progress stream. Payload holds the
// event-type-specific struct below.
type ExecutionEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ProgressPayload reports matrix position after each completed pair
type ProgressPayload struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	ElapsedMs  int64   `json:"elapsedMs"`
}

// ScenarioStartPayload announces one (scenario, viewport) pair beginning
type ScenarioStartPayload struct {
	Name     string `json:"name"`
	Viewport string `json:"viewport"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

// LogPayload relays one console or lifecycle message mid-execution
type LogPayload struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ScenarioCompletePayload reports one finished pair
type ScenarioCompletePayload struct {
	Name       string         `json:"name"`
	Viewport   string         `json:"viewport"`
	Status     ScenarioStatus `json:"status"`
	DurationMs int64          `json:"durationMs"`
}

// ErrorPayload reports a pair-level or run-level failure message
type ErrorPayload struct {
	Message string `json:"message"`
}

// CompletePayload terminates the stream with the run summary
type CompletePayload struct {
	Summary RunSummary `json:"summary"`
}
