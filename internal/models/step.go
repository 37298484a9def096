package models

import (
	"strings"
	"time"
)

// StepKind identifies the browser action a step performs
type StepKind string

const (
	StepKindNavigate   StepKind = "navigate"
	StepKindClick      StepKind = "click"
	StepKindFill       StepKind = "fill"
	StepKindSelect     StepKind = "select"
	StepKindHover      StepKind = "hover"
	StepKindVerify     StepKind = "verify"
	StepKindWait       StepKind = "wait"
	StepKindScreenshot StepKind = "screenshot"
)

// KnownStepKinds lists every step kind the interpreter understands.
// Unknown kinds are logged and skipped at execution time, never rejected at load time.
var KnownStepKinds = []StepKind{
	StepKindNavigate,
	StepKindClick,
	StepKindFill,
	StepKindSelect,
	StepKindHover,
	StepKindVerify,
	StepKindWait,
	StepKindScreenshot,
}

// IsKnown reports whether the kind is one the interpreter can execute
func (k StepKind) IsKnown() bool {
	for _, known := range KnownStepKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Step is the normalized internal form of one scripted browser action.
// All execution logic operates on this shape only; the two wire encodings
// (flattened fields and nested config) are collapsed by StepSpec.Normalize.
type Step struct {
	Kind         StepKind      `json:"kind"`
	Selector     string        `json:"selector,omitempty"`
	URL          string        `json:"url,omitempty"`
	Value        string        `json:"value,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	ExpectedText string        `json:"expected_text,omitempty"`
	Name         string        `json:"name,omitempty"` // Optional label, used for per-step screenshot pairing
}

// StepConfig is the nested parameter block of the nested step encoding
type StepConfig struct {
	Selector     string `json:"selector,omitempty" yaml:"selector,omitempty"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
	Value        string `json:"value,omitempty" yaml:"value,omitempty"`
	TimeoutMs    int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ExpectedText string `json:"expected_text,omitempty" yaml:"expected_text,omitempty"`
}

// StepSpec is the wire form of a step. Two equivalent encodings exist:
// a flattened form carrying selector/url/value/timeout at the top level,
// and a nested form carrying them inside a "config" block. Both are
// accepted; flattened fields win when both are present.
type StepSpec struct {
	Type         string      `json:"type" yaml:"type"`
	Name         string      `json:"name,omitempty" yaml:"name,omitempty"`
	Selector     string      `json:"selector,omitempty" yaml:"selector,omitempty"`
	URL          string      `json:"url,omitempty" yaml:"url,omitempty"`
	Value        string      `json:"value,omitempty" yaml:"value,omitempty"`
	TimeoutMs    int         `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ExpectedText string      `json:"expected_text,omitempty" yaml:"expected_text,omitempty"`
	Config       *StepConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// Normalize collapses both step encodings into the single internal Step shape.
// Flattened fields take precedence over nested config fields.
func (s StepSpec) Normalize() Step {
	step := Step{
		Kind:         StepKind(strings.ToLower(strings.TrimSpace(s.Type))),
		Name:         s.Name,
		Selector:     s.Selector,
		URL:          s.URL,
		Value:        s.Value,
		ExpectedText: s.ExpectedText,
	}
	if s.TimeoutMs > 0 {
		step.Timeout = time.Duration(s.TimeoutMs) * time.Millisecond
	}

	if s.Config != nil {
		if step.Selector == "" {
			step.Selector = s.Config.Selector
		}
		if step.URL == "" {
			step.URL = s.Config.URL
		}
		if step.Value == "" {
			step.Value = s.Config.Value
		}
		if step.Timeout == 0 && s.Config.TimeoutMs > 0 {
			step.Timeout = time.Duration(s.Config.TimeoutMs) * time.Millisecond
		}
		if step.ExpectedText == "" {
			step.ExpectedText = s.Config.ExpectedText
		}
	}

	return step
}

// NormalizeSteps converts a list of wire-form steps into internal steps
func NormalizeSteps(specs []StepSpec) []Step {
	steps := make([]Step, 0, len(specs))
	for _, spec := range specs {
		steps = append(steps, spec.Normalize())
	}
	return steps
}
