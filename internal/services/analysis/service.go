// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/models"
	"golang.org/x/time/rate"
)

const systemPrompt = `You are a senior QA engineer reviewing an automated browser test failure.
Given the scenario outcome below, explain the most likely root cause in two or three sentences,
then suggest one concrete next step. Be specific about selectors and timing where the data allows it.`

// provider generates one completion for a prompt. Implementations wrap a
// single vendor SDK.
type provider interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Service produces AI-written failure analyses for completed scenarios.
// A service without a configured provider is permanently disabled and
// returns an error from AnalyzeScenario.
type Service struct {
	provider provider
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewService builds the analysis service for the configured provider.
// Provider "none" or a missing API key yields a disabled service, never an
// error: analysis is enrichment, not a startup requirement.
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	service := &Service{logger: logger}

	switch config.Analysis.Provider {
	case common.AnalysisProviderClaude:
		if config.Claude.APIKey == "" {
			logger.Warn().Msg("Claude analysis enabled but no API key configured, analysis disabled")
			return service
		}
		service.provider = newClaudeProvider(&config.Claude, logger)
		service.limiter = newLimiter(config.Claude.RateLimit, time.Second)
		service.timeout = parseTimeout(config.Claude.Timeout, 2*time.Minute)

	case common.AnalysisProviderGemini:
		if config.Gemini.APIKey == "" {
			logger.Warn().Msg("Gemini analysis enabled but no API key configured, analysis disabled")
			return service
		}
		geminiProvider, err := newGeminiProvider(&config.Gemini, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client initialization failed, analysis disabled")
			return service
		}
		service.provider = geminiProvider
		service.limiter = newLimiter(config.Gemini.RateLimit, 4*time.Second)
		service.timeout = parseTimeout(config.Gemini.Timeout, 2*time.Minute)

	case common.AnalysisProviderNone, "":
		logger.Debug().Msg("Post-scenario analysis disabled")

	default:
		logger.Warn().
			Str("provider", string(config.Analysis.Provider)).
			Msg("Unknown analysis provider, analysis disabled")
	}

	if service.provider != nil {
		logger.Info().
			Str("provider", service.provider.Name()).
			Msg("Scenario analysis service initialized")
	}
	return service
}

// Enabled reports whether a provider is configured
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// AnalyzeScenario generates a short failure analysis for the result
func (s *Service) AnalyzeScenario(ctx context.Context, result *models.ScenarioResult) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no analysis provider configured")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait cancelled: %w", err)
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	analysis, err := s.provider.Generate(timeoutCtx, systemPrompt, buildPrompt(result))
	if err != nil {
		return "", fmt.Errorf("%s analysis failed: %w", s.provider.Name(), err)
	}

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Str("result_id", result.ID).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Scenario analysis generated")

	return strings.TrimSpace(analysis), nil
}

// buildPrompt renders the scenario outcome as analysis input. Console noise
// is capped so a chatty page cannot blow out the request.
func buildPrompt(result *models.ScenarioResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", result.ScenarioName)
	fmt.Fprintf(&b, "Viewport: %s (%s)\n", result.Viewport.Name, result.Viewport.Size())
	fmt.Fprintf(&b, "Status: %s\n", result.Status)
	fmt.Fprintf(&b, "Duration: %s\n\n", result.Duration.Round(time.Millisecond))

	b.WriteString("Steps:\n")
	for _, step := range result.Steps {
		fmt.Fprintf(&b, "  %d. [%s] %s", step.Index+1, step.Status, step.Kind)
		if step.Message != "" {
			fmt.Fprintf(&b, " - %s", step.Message)
		}
		if step.Error != "" {
			fmt.Fprintf(&b, " (error: %s)", step.Error)
		}
		b.WriteString("\n")
	}

	if len(result.Errors) > 0 {
		b.WriteString("\nRecorded errors:\n")
		for _, entry := range result.Errors {
			fmt.Fprintf(&b, "  [%s] %s\n", entry.Source, entry.Message)
		}
	}

	consoleErrors := 0
	for _, entry := range result.ConsoleLogs {
		if entry.Type != "error" && entry.Type != "warning" {
			continue
		}
		if consoleErrors == 0 {
			b.WriteString("\nConsole output:\n")
		}
		consoleErrors++
		if consoleErrors > 20 {
			b.WriteString("  ... (truncated)\n")
			break
		}
		fmt.Fprintf(&b, "  [%s] %s\n", entry.Type, entry.Message)
	}

	return b.String()
}

func newLimiter(interval string, fallback time.Duration) *rate.Limiter {
	duration, err := time.ParseDuration(interval)
	if err != nil || duration <= 0 {
		duration = fallback
	}
	return rate.NewLimiter(rate.Every(duration), 1)
}

func parseTimeout(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}
