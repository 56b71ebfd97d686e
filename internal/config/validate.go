package config

import (
	"errors"
	"fmt"
	"strings"
)

func missing(key string) error {
	if env := EnvName(key); env != "" {
		return fmt.Errorf("%w: %s (%s)", ErrMissing, key, env)
	}
	return fmt.Errorf("%w: %s", ErrMissing, key)
}

func require(errs []error, key, value string) []error {
	if strings.TrimSpace(value) == "" {
		return append(errs, missing(key))
	}
	return errs
}

// ValidateJira checks the settings needed to talk to the tracker.
func (c *Config) ValidateJira() error {
	var errs []error
	errs = require(errs, "jira.base_url", c.Jira.BaseURL)
	errs = require(errs, "jira.api_token", c.Jira.APIToken)
	return errors.Join(errs...)
}

// ValidateGeneration checks the credentials of the selected backend and the
// transient-failure signature, which must not be blank.
func (c *Config) ValidateGeneration() error {
	g := c.Generation
	errs := require(nil, "generation.signature", g.Signature)
	switch g.Provider {
	case "models":
		errs = require(errs, "generation.token", g.Token)
	case "anthropic":
		errs = require(errs, "generation.anthropic_api_key", g.AnthropicKey)
	case "gemini":
		errs = require(errs, "generation.gemini_api_key", g.GeminiKey)
	case "copilot":
		errs = require(errs, "generation.copilot_command", g.CopilotCommand)
	default:
		errs = append(errs, fmt.Errorf("unknown generation.provider %q (models, copilot, anthropic, gemini)", g.Provider))
	}
	return errors.Join(errs...)
}

// ValidateGitHub checks the settings needed for repository dispatch.
func (c *Config) ValidateGitHub() error {
	var errs []error
	errs = require(errs, "github.owner", c.GitHub.Owner)
	errs = require(errs, "github.repo", c.GitHub.Repo)
	errs = require(errs, "github.token", c.GitHub.Token)
	return errors.Join(errs...)
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "****"
		}
	}
	mask(&c.Jira.APIToken)
	mask(&c.Generation.Token)
	mask(&c.Generation.CopilotToken)
	mask(&c.Generation.AnthropicKey)
	mask(&c.Generation.GeminiKey)
	mask(&c.Webhook.Secret)
	mask(&c.GitHub.Token)
	return c
}
