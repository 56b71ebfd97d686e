// Package pipeline runs one role end to end: build the prompt, call the
// generation backend, save its output and apply that output to the tracker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayerma/assistant/internal/config"
	"github.com/ayerma/assistant/internal/hierarchy"
	"github.com/ayerma/assistant/internal/invoke"
	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/materialize"
	"github.com/ayerma/assistant/internal/prompt"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/workitem"
)

// ErrUnknownRole is returned for a role name not in the registry.
var ErrUnknownRole = errors.New("unknown role")

// Invoker is the retrying generation call.
type Invoker interface {
	Invoke(ctx context.Context, a invoke.Attempt) (string, error)
}

// Runner carries the collaborators every role needs.
type Runner struct {
	Tracker  tracker.Client
	Invoker  Invoker
	Resolver *hierarchy.Resolver
	Config   *config.Config
	Logger   *slog.Logger
	// Confirm, when set, is asked before output is applied to the tracker.
	Confirm func(ctx context.Context, role, key string, output []byte) (bool, error)
}

// Options are per-run switches.
type Options struct {
	// PromptOnly writes the prompt file and stops.
	PromptOnly bool
	// Summary and Description, when Summary is set, replace the tracker read
	// for roles that only need the issue text.
	Summary     string
	Description string
	// RepoPath is appended to the implementation prompt.
	RepoPath string
}

// Result describes what a run did.
type Result struct {
	Role       string              `json:"role"`
	Key        string              `json:"key"`
	PromptPath string              `json:"prompt_path,omitempty"`
	OutputPath string              `json:"output_path,omitempty"`
	PromptOnly bool                `json:"prompt_only,omitempty"`
	Declined   bool                `json:"declined,omitempty"`
	Report     *materialize.Report `json:"report,omitempty"`
}

// Role describes one assistant persona.
type Role struct {
	Name string
	// Requirements appends the shared technical requirements to the system prompt.
	Requirements bool
	paths        func(config.Roles) config.RolePaths
	user         func(ctx context.Context, r *Runner, key string, opts Options) (string, error)
	apply        func(ctx context.Context, r *Runner, key string, output []byte) (*materialize.Report, error)
}

var registry = map[string]*Role{}

func register(role *Role) { registry[role.Name] = role }

// Lookup returns the named role.
func Lookup(name string) (*Role, error) {
	role, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (one of %s)", ErrUnknownRole, name, strings.Join(Names(), ", "))
	}
	return role, nil
}

// Names lists registered roles in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Paths returns the files the role reads and writes under cfg.
func (role *Role) Paths(cfg *config.Config) config.RolePaths {
	return role.paths(cfg.Roles)
}

func (r *Runner) logger() *slog.Logger { return logging.OrDiscard(r.Logger) }

// Prompt builds the system and user prompts for role and key.
func (r *Runner) Prompt(ctx context.Context, role *Role, key string, opts Options) (system, user string, err error) {
	paths := role.Paths(r.Config)
	requirements := ""
	if role.Requirements {
		requirements = r.Config.Roles.Requirements
	}
	system, err = prompt.LoadSystem(paths.Instructions, requirements, r.logger())
	if err != nil {
		return "", "", err
	}
	user, err = role.user(ctx, r, key, opts)
	if err != nil {
		return "", "", fmt.Errorf("build %s prompt for %s: %w", role.Name, key, err)
	}
	return system, user, nil
}

// Run executes role against key.
func (r *Runner) Run(ctx context.Context, roleName, key string, opts Options) (*Result, error) {
	role, err := Lookup(roleName)
	if err != nil {
		return nil, err
	}
	log := r.logger().With("role", role.Name, "key", key)
	paths := role.Paths(r.Config)
	res := &Result{Role: role.Name, Key: key}

	system, user, err := r.Prompt(ctx, role, key, opts)
	if err != nil {
		return nil, err
	}
	combined := prompt.Combine(system, user)
	if paths.Prompt != "" {
		if err := writeFile(paths.Prompt, []byte(combined)); err != nil {
			return nil, err
		}
		res.PromptPath = paths.Prompt
		log.Info("wrote prompt", "path", paths.Prompt, "chars", len(combined))
	}
	if opts.PromptOnly {
		res.PromptOnly = true
		return res, nil
	}

	log.Info("calling generation backend")
	raw, err := r.Invoker.Invoke(ctx, invoke.Attempt{System: system, User: user})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", role.Name, key, err)
	}
	log.Debug("generation output", "output", raw)

	output, err := workitem.Pretty([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", role.Name, key, err)
	}
	if paths.Output != "" {
		if err := writeFile(paths.Output, output); err != nil {
			return nil, err
		}
		res.OutputPath = paths.Output
		log.Info("wrote output", "path", paths.Output)
	}

	return r.applyOutput(ctx, role, key, output, res)
}

// Apply reads a saved output file and applies it, without generation.
func (r *Runner) Apply(ctx context.Context, roleName, key, outputPath string) (*Result, error) {
	role, err := Lookup(roleName)
	if err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = role.Paths(r.Config).Output
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return r.applyOutput(ctx, role, key, data, &Result{Role: role.Name, Key: key, OutputPath: outputPath})
}

func (r *Runner) applyOutput(ctx context.Context, role *Role, key string, output []byte, res *Result) (*Result, error) {
	if r.Confirm != nil {
		ok, err := r.Confirm(ctx, role.Name, key, output)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Declined = true
			return res, nil
		}
	}
	report, err := role.apply(ctx, r, key, output)
	res.Report = report
	if err != nil {
		return res, fmt.Errorf("apply %s output to %s: %w", role.Name, key, err)
	}
	return res, nil
}

// AttachPullRequest comments the pull request from a saved implementation
// output on key.
func (r *Runner) AttachPullRequest(ctx context.Context, key, outputPath string) error {
	if outputPath == "" {
		outputPath = r.Config.Roles.Tech.Output
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	var out workitem.TechResult
	if err := workitem.Decode(data, &out); err != nil {
		return err
	}
	if err := materialize.AttachPullRequest(ctx, r.Tracker, key, &out); err != nil {
		return err
	}
	r.logger().Info("attached pull request", "key", key, "url", out.PullRequestURL.String())
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
