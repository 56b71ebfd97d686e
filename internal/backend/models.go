package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayerma/assistant/internal/invoke"
)

// HTTPError is a non-2xx answer from an HTTP backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("models API returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Models calls a Chat Completions compatible endpoint (GitHub Models,
// Azure AI Inference and similar).
type Models struct {
	Endpoint    string
	Token       string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewModels returns a chat completions client, filling defaults.
func NewModels(cfg Config) *Models {
	return &Models{
		Endpoint:    strings.TrimSuffix(orDefault(cfg.Endpoint, DefaultModelsEndpoint), "/"),
		Token:       cfg.Token,
		Model:       orDefault(cfg.Model, DefaultModelsModel),
		Temperature: orDefault(cfg.Temperature, DefaultTemperature),
		HTTPClient:  &http.Client{Timeout: orDefault(cfg.Timeout, 2*time.Minute)},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate posts one system and one user message and asks for a JSON object.
func (m *Models) Generate(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: m.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    m.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Azure AI Inference style auth.
	req.Header.Set("api-key", m.Token)

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("models request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("models: %w (missing choices[0].message.content)", invoke.ErrNoCompletion)
	}
	return *parsed.Choices[0].Message.Content, nil
}
