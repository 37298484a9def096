package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Suite is a named collection of scenarios executed together against one
// target URL. Suites are loaded from YAML definition files at startup and
// kept immutable in memory for the lifetime of the process.
type Suite struct {
	ID        string     `json:"id" badgerhold:"key"`
	Name      string     `json:"name"`
	TargetURL string     `json:"target_url"`
	Schedule  string     `json:"schedule,omitempty"` // Optional cron expression for scheduled runs
	Viewports []string   `json:"viewports,omitempty"` // Default viewport profiles when a run request omits them
	Scenarios []Scenario `json:"scenarios"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SuiteDefinition is the YAML wire form of a suite definition file
type SuiteDefinition struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	TargetURL string         `yaml:"target_url"`
	Schedule  string         `yaml:"schedule,omitempty"`
	Viewports []string       `yaml:"viewports,omitempty"`
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// ParseSuiteDefinition decodes one YAML suite definition and normalizes it
func ParseSuiteDefinition(data []byte) (*Suite, error) {
	var def SuiteDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse suite definition: %w", err)
	}

	if def.ID == "" {
		return nil, fmt.Errorf("suite definition missing id")
	}
	if len(def.Scenarios) == 0 {
		return nil, fmt.Errorf("suite %s has no scenarios", def.ID)
	}

	suite := &Suite{
		ID:        def.ID,
		Name:      def.Name,
		TargetURL: def.TargetURL,
		Schedule:  def.Schedule,
		Viewports: def.Viewports,
		Scenarios: make([]Scenario, 0, len(def.Scenarios)),
		UpdatedAt: time.Now(),
	}
	if suite.Name == "" {
		suite.Name = def.ID
	}
	for _, spec := range def.Scenarios {
		suite.Scenarios = append(suite.Scenarios, spec.Normalize())
	}

	return suite, nil
}
