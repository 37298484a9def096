package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/models"
	"golang.org/x/time/rate"
)

type stubProvider struct {
	response string
	calls    int
}

func (p *stubProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	p.calls++
	return p.response, nil
}

func (p *stubProvider) Name() string { return "stub" }

func failedResult() *models.ScenarioResult {
	return &models.ScenarioResult{
		ID:           "res-1",
		ScenarioName: "Login flow",
		Viewport:     models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		Status:       models.ScenarioStatusFail,
		Duration:     3200 * time.Millisecond,
		Steps: []models.StepResult{
			{Index: 0, Kind: models.StepKindNavigate, Status: models.StepStatusPass, Message: "navigated to https://example.com"},
			{Index: 1, Kind: models.StepKindClick, Status: models.StepStatusFail, Error: "element #submit not visible after 10s"},
		},
		Errors: []models.ErrorEntry{
			{Message: "TypeError: x is undefined", Source: "page"},
		},
		ConsoleLogs: []models.ConsoleEntry{
			{Type: "log", Message: "app booted"},
			{Type: "error", Message: "failed to fetch /api/session"},
		},
	}
}

func TestNewService_DisabledByDefault(t *testing.T) {
	config := common.NewDefaultConfig()
	service := NewService(config, arbor.NewLogger())

	if service.Enabled() {
		t.Error("default config should disable analysis")
	}
	if _, err := service.AnalyzeScenario(context.Background(), failedResult()); err == nil {
		t.Error("disabled service must return an error")
	}
}

func TestNewService_MissingKeyDisables(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Analysis.Provider = common.AnalysisProviderClaude
	config.Claude.APIKey = ""

	service := NewService(config, arbor.NewLogger())
	if service.Enabled() {
		t.Error("claude provider without API key should be disabled")
	}
}

func TestNewService_ClaudeEnabled(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Analysis.Provider = common.AnalysisProviderClaude
	config.Claude.APIKey = "sk-test"

	service := NewService(config, arbor.NewLogger())
	if !service.Enabled() {
		t.Fatal("claude provider with API key should be enabled")
	}
}

func TestAnalyzeScenario_UsesProvider(t *testing.T) {
	stub := &stubProvider{response: "  The submit button never became visible.  "}
	service := &Service{
		provider: stub,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		timeout:  time.Minute,
		logger:   arbor.NewLogger(),
	}

	analysis, err := service.AnalyzeScenario(context.Background(), failedResult())
	if err != nil {
		t.Fatal(err)
	}
	if analysis != "The submit button never became visible." {
		t.Errorf("expected trimmed provider response, got %q", analysis)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", stub.calls)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(failedResult())

	for _, want := range []string{
		"Scenario: Login flow",
		"Viewport: desktop (1920x1080)",
		"Status: fail",
		"element #submit not visible",
		"TypeError: x is undefined",
		"failed to fetch /api/session",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	if strings.Contains(prompt, "app booted") {
		t.Error("plain console logs should not be included")
	}
}
