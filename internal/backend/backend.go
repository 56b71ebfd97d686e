// Package backend implements the generation backends: an OpenAI-compatible
// chat completions endpoint, the Copilot CLI, Anthropic and Gemini.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ayerma/assistant/internal/invoke"
	"github.com/ayerma/assistant/internal/logging"
)

// Provider names accepted by New.
const (
	ProviderModels    = "models"
	ProviderCopilot   = "copilot"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Defaults for the models provider.
const (
	DefaultModelsEndpoint = "https://models.inference.ai.azure.com"
	DefaultModelsModel    = "gpt-4o-mini"
	DefaultCopilotCommand = "copilot"
	DefaultCopilotTimeout = 5 * time.Minute
	DefaultTemperature    = 0.2
	DefaultMaxTokens      = 4096
)

// Config selects and configures one backend.
type Config struct {
	Provider string
	Endpoint string
	Token    string
	Model    string

	CopilotCommand string
	CopilotToken   string

	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the generator named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (invoke.Generator, error) {
	logger = logging.OrDiscard(logger)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderModels:
		if cfg.Token == "" {
			return nil, fmt.Errorf("backend %s: token is required (MODELS_TOKEN)", ProviderModels)
		}
		return NewModels(cfg), nil
	case ProviderCopilot:
		return NewCopilot(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg)
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown generation provider %q (want %s, %s, %s or %s)",
			cfg.Provider, ProviderModels, ProviderCopilot, ProviderAnthropic, ProviderGemini)
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
