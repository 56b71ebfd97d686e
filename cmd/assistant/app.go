package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/ayerma/assistant/internal/backend"
	"github.com/ayerma/assistant/internal/config"
	"github.com/ayerma/assistant/internal/hierarchy"
	"github.com/ayerma/assistant/internal/invoke"
	"github.com/ayerma/assistant/internal/jira"
	"github.com/ayerma/assistant/internal/pipeline"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/ui"
)

// newTracker builds the Jira client stack: REST client, read cache, and the
// dry-run wrapper when writes are disabled.
func newTracker(c *config.Config) (tracker.Client, error) {
	if err := c.ValidateJira(); err != nil {
		return nil, err
	}
	jc := jira.NewClient(c.Jira.BaseURL, c.Jira.Email, c.Jira.APIToken)
	jc.RichText = c.Jira.RichText

	cached, err := tracker.NewCachingClient(jc, c.Jira.CacheSize)
	if err != nil {
		return nil, err
	}
	if c.Run.DryRun {
		return tracker.NewDryRun(cached, logger), nil
	}
	return cached, nil
}

// generationConfig maps the configured provider onto backend settings.
func generationConfig(g config.Generation) backend.Config {
	bc := backend.Config{
		Provider:       g.Provider,
		Endpoint:       g.Endpoint,
		Token:          g.Token,
		Model:          g.Model,
		CopilotCommand: g.CopilotCommand,
		CopilotToken:   g.CopilotToken,
		Temperature:    g.Temperature,
		MaxTokens:      g.MaxTokens,
		Timeout:        g.Timeout,
	}
	switch g.Provider {
	case backend.ProviderAnthropic:
		bc.Token = g.AnthropicKey
	case backend.ProviderGemini:
		bc.Token = g.GeminiKey
	}
	return bc
}

func newResolver(t tracker.Client, c *config.Config) *hierarchy.Resolver {
	return hierarchy.New(t, hierarchy.Options{
		TopKind:  c.Hierarchy.TopKind,
		MaxDepth: c.Hierarchy.MaxDepth,
		Logger:   logger,
	})
}

// newRunner wires everything a role run needs. withBackend is false for
// commands that only apply saved output.
func newRunner(ctx context.Context, withBackend bool) (*pipeline.Runner, error) {
	t, err := newTracker(cfg)
	if err != nil {
		return nil, err
	}
	r := &pipeline.Runner{
		Tracker:  t,
		Resolver: newResolver(t, cfg),
		Config:   cfg,
		Logger:   logger,
	}
	if withBackend {
		if err := cfg.ValidateGeneration(); err != nil {
			return nil, err
		}
		gen, err := backend.New(ctx, generationConfig(cfg.Generation), logger)
		if err != nil {
			return nil, err
		}
		r.Invoker = invoke.New(gen, invoke.Options{
			MaxAttempts: cfg.Generation.MaxAttempts,
			BackoffUnit: cfg.Generation.BackoffUnit,
			Classifier:  invoke.SignatureClassifier(cfg.Generation.Signature),
			Logger:      logger,
		})
	}
	if confirmFlag {
		if !ui.IsInteractive() {
			return nil, errors.New("--confirm needs an interactive terminal")
		}
		r.Confirm = confirmApply
	}
	return r, nil
}

// confirmApply shows the generated output and asks before it is written.
func confirmApply(ctx context.Context, role, key string, output []byte) (bool, error) {
	preview := ui.TruncateSimple(string(output), 2000)
	ok := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("%s output for %s", role, key)).
				Description(preview),
			huh.NewConfirm().
				Title("Write this to Jira?").
				Affirmative("Apply").
				Negative("Cancel").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

// issueArg turns a key or browse URL argument into an issue key.
func issueArg(arg string) (string, error) {
	key := jira.ExtractKey(arg)
	if key == "" {
		return "", fmt.Errorf("%q is not a Jira issue key or browse URL", arg)
	}
	return key, nil
}
