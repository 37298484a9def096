package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
)

const defaultClaudeModel = "claude-haiku-3-5-20241022"

// claudeProvider generates analyses with the Anthropic Messages API
type claudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    arbor.ILogger
}

func newClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) *claudeProvider {
	model := config.Model
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	logger.Debug().
		Str("model", model).
		Int("max_tokens", maxTokens).
		Msg("Claude analysis provider initialized")

	return &claudeProvider{
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (p *claudeProvider) Name() string {
	return "claude"
}

func (p *claudeProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return response.String(), nil
}
