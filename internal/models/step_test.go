package models

import (
	"testing"
	"time"
)

func TestStepSpec_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		spec     StepSpec
		expected Step
	}{
		{
			name: "flattened encoding",
			spec: StepSpec{
				Type:     "click",
				Selector: "#submit",
				TimeoutMs: 5000,
			},
			expected: Step{
				Kind:     StepKindClick,
				Selector: "#submit",
				Timeout:  5 * time.Second,
			},
		},
		{
			name: "nested config encoding",
			spec: StepSpec{
				Type: "fill",
				Config: &StepConfig{
					Selector: "input[name=email]",
					Value:    "user@example.com",
				},
			},
			expected: Step{
				Kind:     StepKindFill,
				Selector: "input[name=email]",
				Value:    "user@example.com",
			},
		},
		{
			name: "flattened fields win over nested config",
			spec: StepSpec{
				Type:     "navigate",
				URL:      "https://example.com/flat",
				TimeoutMs: 10000,
				Config: &StepConfig{
					URL:       "https://example.com/nested",
					TimeoutMs: 20000,
				},
			},
			expected: Step{
				Kind:    StepKindNavigate,
				URL:     "https://example.com/flat",
				Timeout: 10 * time.Second,
			},
		},
		{
			name: "nested fills gaps the flattened form leaves empty",
			spec: StepSpec{
				Type:     "verify",
				Selector: "h1",
				Config: &StepConfig{
					ExpectedText: "Welcome",
					TimeoutMs:    2000,
				},
			},
			expected: Step{
				Kind:         StepKindVerify,
				Selector:     "h1",
				ExpectedText: "Welcome",
				Timeout:      2 * time.Second,
			},
		},
		{
			name: "kind is lowercased and trimmed",
			spec: StepSpec{
				Type: "  Hover ",
				Selector: ".menu",
			},
			expected: Step{
				Kind:     StepKindHover,
				Selector: ".menu",
			},
		},
		{
			name: "unknown kind survives normalization",
			spec: StepSpec{
				Type: "swipe",
			},
			expected: Step{
				Kind: StepKind("swipe"),
			},
		},
		{
			name: "step name carried for per-step screenshot pairing",
			spec: StepSpec{
				Type: "screenshot",
				Name: "after-login",
			},
			expected: Step{
				Kind: StepKindScreenshot,
				Name: "after-login",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Normalize()
			if got != tt.expected {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestStepKind_IsKnown(t *testing.T) {
	for _, kind := range KnownStepKinds {
		if !kind.IsKnown() {
			t.Errorf("expected %s to be known", kind)
		}
	}
	if StepKind("swipe").IsKnown() {
		t.Error("expected swipe to be unknown")
	}
}

func TestNormalizeSteps_PreservesOrder(t *testing.T) {
	specs := []StepSpec{
		{Type: "navigate", URL: "https://example.com"},
		{Type: "click", Selector: "#a"},
		{Type: "verify", Selector: "#b"},
	}

	steps := NormalizeSteps(specs)
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Kind != StepKindNavigate || steps[1].Kind != StepKindClick || steps[2].Kind != StepKindVerify {
		t.Errorf("step order not preserved: %+v", steps)
	}
}
