package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ayerma/assistant/internal/invoke"
)

// Copilot shells out to the GitHub Copilot CLI in non-interactive mode.
type Copilot struct {
	Command string
	Token   string
	Timeout time.Duration
	logger  *slog.Logger
}

// NewCopilot returns a CLI-backed generator.
func NewCopilot(cfg Config, logger *slog.Logger) *Copilot {
	return &Copilot{
		Command: orDefault(cfg.CopilotCommand, DefaultCopilotCommand),
		Token:   cfg.CopilotToken,
		Timeout: orDefault(cfg.Timeout, DefaultCopilotTimeout),
		logger:  logger,
	}
}

// Generate runs `<command> --allow-all-tools -p <system + user>` and returns
// its combined output.
func (c *Copilot) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Command, "--allow-all-tools", "-p", system+"\n\n"+user)
	cmd.Env = os.Environ()
	if c.Token != "" {
		cmd.Env = append(cmd.Env, "COPILOT_GITHUB_TOKEN="+c.Token)
	} else {
		c.logger.Warn("no Copilot token configured; relying on the CLI's own login")
	}

	c.logger.Info("executing CLI command", "command", c.Command+` --allow-all-tools -p "<prompt>"`)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("copilot CLI timed out after %s", c.Timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("copilot CLI failed with exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return "", fmt.Errorf("run %q (is the Copilot CLI installed and on PATH? set generation.provider=models to use the API): %w", c.Command, err)
	}

	result := strings.TrimSpace(string(out))
	if result == "" {
		return "", fmt.Errorf("copilot CLI: %w (empty output)", invoke.ErrNoCompletion)
	}
	return result, nil
}
