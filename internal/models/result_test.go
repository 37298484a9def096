package models

import (
	"testing"
	"time"
)

func TestScenarioResult_ComputeStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   ScenarioResult
		expected ScenarioStatus
	}{
		{
			name: "all steps pass",
			result: ScenarioResult{
				Steps: []StepResult{
					{Index: 0, Status: StepStatusPass},
					{Index: 1, Status: StepStatusPass},
				},
			},
			expected: ScenarioStatusPass,
		},
		{
			name: "one failed step fails the scenario",
			result: ScenarioResult{
				Steps: []StepResult{
					{Index: 0, Status: StepStatusPass},
					{Index: 1, Status: StepStatusFail},
					{Index: 2, Status: StepStatusPass},
				},
			},
			expected: ScenarioStatusFail,
		},
		{
			name: "recorded error fails the scenario even with passing steps",
			result: ScenarioResult{
				Steps: []StepResult{
					{Index: 0, Status: StepStatusPass},
				},
				Errors: []ErrorEntry{
					{Message: "Uncaught TypeError", Source: "page", Timestamp: time.Now()},
				},
			},
			expected: ScenarioStatusFail,
		},
		{
			name:     "no steps and no errors passes",
			result:   ScenarioResult{},
			expected: ScenarioStatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.ComputeStatus(); got != tt.expected {
				t.Errorf("ComputeStatus() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestTestRun_IsTerminal(t *testing.T) {
	for status, terminal := range map[RunStatus]bool{
		RunStatusPending:   false,
		RunStatusRunning:   false,
		RunStatusCompleted: true,
		RunStatusFailed:    true,
	} {
		run := TestRun{Status: status}
		if run.IsTerminal() != terminal {
			t.Errorf("IsTerminal() for %s = %v, want %v", status, run.IsTerminal(), terminal)
		}
	}
}
