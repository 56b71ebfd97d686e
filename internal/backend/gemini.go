package backend

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/ayerma/assistant/internal/invoke"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates through the Gemini API and asks for application/json.
type Gemini struct {
	cli         *genai.Client
	model       string
	temperature float32
}

// NewGemini returns a Gemini generator. Endpoint overrides the base URL.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("backend %s: API key is required (GEMINI_API_KEY)", ProviderGemini)
	}
	cc := &genai.ClientConfig{APIKey: cfg.Token, Backend: genai.BackendGeminiAPI}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{
		cli:         cli,
		model:       orDefault(cfg.Model, DefaultGeminiModel),
		temperature: float32(orDefault(cfg.Temperature, DefaultTemperature)),
	}, nil
}

// Generate sends user as content and system as the system instruction.
func (g *Gemini) Generate(ctx context.Context, system, user string) (string, error) {
	temp := g.temperature
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: user}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			ResponseMIMEType:  "application/json",
			Temperature:       &temp,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w (no candidates)", invoke.ErrNoCompletion)
	}
	return text, nil
}
