package models

import (
	"testing"
	"time"
)

func TestParseSuiteDefinition(t *testing.T) {
	data := []byte(`
id: checkout
name: Checkout Flow
target_url: https://shop.example.com
viewports: [mobile, desktop]
scenarios:
  - name: guest-checkout
    steps:
      - type: navigate
        url: https://shop.example.com/cart
      - type: click
        selector: "#checkout"
        timeout: 5000
      - type: verify
        config:
          selector: h1
          expected_text: Checkout
`)

	suite, err := ParseSuiteDefinition(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if suite.ID != "checkout" || suite.Name != "Checkout Flow" {
		t.Errorf("suite identity wrong: %+v", suite)
	}
	if suite.TargetURL != "https://shop.example.com" {
		t.Errorf("target URL wrong: %s", suite.TargetURL)
	}
	if len(suite.Viewports) != 2 {
		t.Errorf("expected 2 default viewports, got %d", len(suite.Viewports))
	}
	if len(suite.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(suite.Scenarios))
	}

	scenario := suite.Scenarios[0]
	if len(scenario.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(scenario.Steps))
	}
	if scenario.Steps[1].Kind != StepKindClick || scenario.Steps[1].Timeout != 5*time.Second {
		t.Errorf("flattened step wrong: %+v", scenario.Steps[1])
	}
	if scenario.Steps[2].Kind != StepKindVerify || scenario.Steps[2].ExpectedText != "Checkout" {
		t.Errorf("nested config step wrong: %+v", scenario.Steps[2])
	}
}

func TestParseSuiteDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing id", data: "name: No ID\nscenarios:\n  - name: a\n    steps: []\n"},
		{name: "no scenarios", data: "id: empty\n"},
		{name: "malformed yaml", data: "id: [broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSuiteDefinition([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseSuiteDefinition_NameDefaultsToID(t *testing.T) {
	suite, err := ParseSuiteDefinition([]byte("id: smoke\nscenarios:\n  - name: home\n    steps:\n      - type: navigate\n        url: https://example.com\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suite.Name != "smoke" {
		t.Errorf("expected name to default to id, got %s", suite.Name)
	}
}
