package models

import (
	"errors"
	"fmt"
)

// ErrClickIntercepted signals that a click failed because another element
// intercepted the pointer. The interpreter retries such clicks once with a
// forced click that bypasses interception.
var ErrClickIntercepted = errors.New("click intercepted by another element")

// ErrNotFound is returned by storage lookups when no record exists
var ErrNotFound = errors.New("not found")

// StepError reports one failed step action. Recorded on the step result;
// execution continues to the next step.
type StepError struct {
	Kind    StepKind
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step failed: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s step failed: %s", e.Kind, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a StepError for the given step kind
func NewStepError(kind StepKind, message string, err error) *StepError {
	return &StepError{Kind: kind, Message: message, Err: err}
}

// ScenarioError reports a whole-scenario failure outside the step loop
// (context creation, initial navigation). Recorded as a failing result;
// the orchestrator continues to the next pair.
type ScenarioError struct {
	Scenario string
	Viewport string
	Err      error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario %s [%s] failed: %v", e.Scenario, e.Viewport, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// ComparisonError reports one image pair that could not be diffed.
// The regression batch logs and skips it.
type ComparisonError struct {
	ScenarioName string
	Viewport     string
	Err          error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("comparison failed for %s [%s]: %v", e.ScenarioName, e.Viewport, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}
