package models

// Scenario is an ordered sequence of steps representing one test case.
// Immutable once loaded for a run.
type Scenario struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// ScenarioSpec is the wire form of a scenario, carrying steps in either encoding
type ScenarioSpec struct {
	ID    string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string     `json:"name" yaml:"name"`
	Steps []StepSpec `json:"steps" yaml:"steps"`
}

// Normalize converts the wire form into the internal Scenario shape
func (s ScenarioSpec) Normalize() Scenario {
	id := s.ID
	if id == "" {
		id = s.Name
	}
	return Scenario{
		ID:    id,
		Name:  s.Name,
		Steps: NormalizeSteps(s.Steps),
	}
}
