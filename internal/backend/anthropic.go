package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ayerma/assistant/internal/invoke"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic generates through the Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic returns a Messages API generator. Endpoint overrides the base URL.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("backend %s: API key is required (ANTHROPIC_API_KEY)", ProviderAnthropic)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.Token)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(orDefault(cfg.Model, DefaultAnthropicModel)),
		maxTokens: int64(orDefault(cfg.MaxTokens, DefaultMaxTokens)),
	}, nil
}

// Generate sends the system prompt as a system block and returns the
// concatenated text content.
func (a *Anthropic) Generate(ctx context.Context, system, user string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("anthropic: %w (no text blocks)", invoke.ErrNoCompletion)
	}
	return sb.String(), nil
}
