// Package config builds the process configuration once at startup from
// defaults, an optional config file, .env files, environment variables and
// command-line overrides. No other package reads the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file base name looked up in the working directory.
const FileName = "assistant"

// Role names.
const (
	RoleBA             = "ba"
	RoleTech           = "tech"
	RoleContentSpitter = "content-spitter"
	RoleContentCreator = "content-creator"
	RoleTroubleshooter = "troubleshooter"
)

// ErrMissing is wrapped by every validation error about an unset key.
var ErrMissing = errors.New("missing required setting")

// Config is the full process configuration.
type Config struct {
	Jira       Jira       `mapstructure:"jira" toml:"jira"`
	Generation Generation `mapstructure:"generation" toml:"generation"`
	Hierarchy  Hierarchy  `mapstructure:"hierarchy" toml:"hierarchy"`
	Roles      Roles      `mapstructure:"roles" toml:"roles"`
	Run        Run        `mapstructure:"run" toml:"run"`
	Webhook    Webhook    `mapstructure:"webhook" toml:"webhook"`
	GitHub     GitHub     `mapstructure:"github" toml:"github"`
	Telemetry  Telemetry  `mapstructure:"telemetry" toml:"telemetry"`
	Log        Log        `mapstructure:"log" toml:"log"`
}

// Jira holds tracker access and issue naming.
type Jira struct {
	BaseURL       string `mapstructure:"base_url" toml:"base_url"`
	Email         string `mapstructure:"email" toml:"email"`
	APIToken      string `mapstructure:"api_token" toml:"api_token"`
	StoryKind     string `mapstructure:"story_kind" toml:"story_kind"`
	TaskKind      string `mapstructure:"task_kind" toml:"task_kind"`
	QuestionKind  string `mapstructure:"question_kind" toml:"question_kind"`
	LinkType      string `mapstructure:"link_type" toml:"link_type"`
	BlockLinkType string `mapstructure:"block_link_type" toml:"block_link_type"`
	RichText      bool   `mapstructure:"rich_text" toml:"rich_text"`
	CacheSize     int    `mapstructure:"cache_size" toml:"cache_size"`
}

// Generation selects and tunes the model backend.
type Generation struct {
	Provider       string        `mapstructure:"provider" toml:"provider"`
	UseModelsAPI   bool          `mapstructure:"use_models_api" toml:"use_models_api"`
	Endpoint       string        `mapstructure:"endpoint" toml:"endpoint"`
	Token          string        `mapstructure:"token" toml:"token"`
	Model          string        `mapstructure:"model" toml:"model"`
	CopilotCommand string        `mapstructure:"copilot_command" toml:"copilot_command"`
	CopilotToken   string        `mapstructure:"copilot_token" toml:"copilot_token"`
	AnthropicKey   string        `mapstructure:"anthropic_api_key" toml:"anthropic_api_key"`
	GeminiKey      string        `mapstructure:"gemini_api_key" toml:"gemini_api_key"`
	Temperature    float64       `mapstructure:"temperature" toml:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens" toml:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout" toml:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts" toml:"max_attempts"`
	BackoffUnit    time.Duration `mapstructure:"backoff_unit" toml:"backoff_unit"`
	Signature      string        `mapstructure:"signature" toml:"signature"`
}

// Hierarchy bounds the ancestor walk.
type Hierarchy struct {
	TopKind  string `mapstructure:"top_kind" toml:"top_kind"`
	MaxDepth int    `mapstructure:"max_depth" toml:"max_depth"`
}

// RolePaths are the files one role reads and writes.
type RolePaths struct {
	Instructions string `mapstructure:"instructions" toml:"instructions"`
	Output       string `mapstructure:"output" toml:"output"`
	Prompt       string `mapstructure:"prompt" toml:"prompt"`
}

// Roles holds per-role paths and the shared requirements file.
type Roles struct {
	Requirements   string    `mapstructure:"requirements" toml:"requirements"`
	BA             RolePaths `mapstructure:"ba" toml:"ba"`
	Tech           RolePaths `mapstructure:"tech" toml:"tech"`
	ContentSpitter RolePaths `mapstructure:"content_spitter" toml:"content_spitter"`
	ContentCreator RolePaths `mapstructure:"content_creator" toml:"content_creator"`
	Troubleshooter RolePaths `mapstructure:"troubleshooter" toml:"troubleshooter"`
}

// Role returns the paths for a role name.
func (r Roles) Role(name string) (RolePaths, bool) {
	switch name {
	case RoleBA:
		return r.BA, true
	case RoleTech:
		return r.Tech, true
	case RoleContentSpitter:
		return r.ContentSpitter, true
	case RoleContentCreator:
		return r.ContentCreator, true
	case RoleTroubleshooter:
		return r.Troubleshooter, true
	}
	return RolePaths{}, false
}

// Run carries per-invocation switches.
type Run struct {
	PromptOnly  bool   `mapstructure:"prompt_only" toml:"prompt_only"`
	FromOutput  bool   `mapstructure:"from_output" toml:"from_output"`
	Summary     string `mapstructure:"summary" toml:"summary"`
	Description string `mapstructure:"description" toml:"description"`
	RepoPath    string `mapstructure:"repo_path" toml:"repo_path"`
	DryRun      bool   `mapstructure:"dry_run" toml:"dry_run"`
}

// Webhook configures the receiver.
type Webhook struct {
	Port   int    `mapstructure:"port" toml:"port"`
	Path   string `mapstructure:"path" toml:"path"`
	Secret string `mapstructure:"secret" toml:"secret"`
}

// GitHub configures repository dispatch.
type GitHub struct {
	APIURL string `mapstructure:"api_url" toml:"api_url"`
	Owner  string `mapstructure:"owner" toml:"owner"`
	Repo   string `mapstructure:"repo" toml:"repo"`
	Token  string `mapstructure:"token" toml:"token"`
	Event  string `mapstructure:"event" toml:"event"`
}

// Telemetry toggles OpenTelemetry export.
type Telemetry struct {
	Enabled  bool   `mapstructure:"enabled" toml:"enabled"`
	Endpoint string `mapstructure:"endpoint" toml:"endpoint"`
}

// Log selects log level and format.
type Log struct {
	Level string `mapstructure:"level" toml:"level"`
	JSON  bool   `mapstructure:"json" toml:"json"`
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"jira.base_url":        "JIRA_BASE_URL",
	"jira.email":           "JIRA_EMAIL",
	"jira.api_token":       "JIRA_API_TOKEN",
	"jira.story_kind":      "JIRA_STORY_ISSUE_TYPE",
	"jira.task_kind":       "JIRA_TASK_ISSUE_TYPE",
	"jira.question_kind":   "JIRA_QUESTION_ISSUE_TYPE",
	"jira.link_type":       "JIRA_LINK_TYPE",
	"jira.block_link_type": "JIRA_BLOCK_LINK_TYPE",
	"jira.rich_text":       "JIRA_RICH_TEXT",

	"generation.provider":          "GENERATION_PROVIDER",
	"generation.use_models_api":    "USE_MODELS_API",
	"generation.endpoint":          "MODELS_ENDPOINT",
	"generation.token":             "MODELS_TOKEN",
	"generation.model":             "MODELS_MODEL",
	"generation.copilot_command":   "COPILOT_CLI_COMMAND",
	"generation.copilot_token":     "COPILOT_GITHUB_TOKEN",
	"generation.anthropic_api_key": "ANTHROPIC_API_KEY",
	"generation.gemini_api_key":    "GEMINI_API_KEY",
	"generation.max_attempts":      "GENERATION_MAX_ATTEMPTS",

	"roles.requirements":                 "TECHNICAL_REQUIREMENTS_PATH",
	"roles.ba.instructions":              "BA_INSTRUCTIONS_PATH",
	"roles.ba.output":                    "BA_OUTPUT_PATH",
	"roles.ba.prompt":                    "BA_PROMPT_OUTPUT_PATH",
	"roles.tech.instructions":            "DEV_INSTRUCTIONS_PATH",
	"roles.tech.output":                  "TECH_OUTPUT_PATH",
	"roles.tech.prompt":                  "TECH_PROMPT_OUTPUT_PATH",
	"roles.content_spitter.instructions": "CONTENT_SPITTER_INSTRUCTIONS_PATH",
	"roles.content_spitter.output":       "CONTENT_SPITTER_OUTPUT_PATH",
	"roles.content_spitter.prompt":       "CONTENT_SPITTER_PROMPT_OUTPUT_PATH",
	"roles.content_creator.instructions": "CONTENT_CREATOR_INSTRUCTIONS_PATH",
	"roles.content_creator.output":       "CONTENT_CREATOR_OUTPUT_PATH",
	"roles.content_creator.prompt":       "CONTENT_CREATOR_PROMPT_OUTPUT_PATH",
	"roles.troubleshooter.instructions":  "TROUBLESHOOTER_INSTRUCTIONS_PATH",
	"roles.troubleshooter.output":        "TROUBLESHOOTER_OUTPUT_PATH",
	"roles.troubleshooter.prompt":        "TROUBLESHOOTER_PROMPT_OUTPUT_PATH",

	"run.prompt_only": "OUTPUT_PROMPT_ONLY",
	"run.summary":     "JIRA_ISSUE_SUMMARY",
	"run.description": "JIRA_ISSUE_DESCRIPTION",
	"run.repo_path":   "TARGET_REPO_PATH",

	"webhook.port":   "PORT",
	"webhook.secret": "JIRA_WEBHOOK_SECRET",

	"github.owner": "GITHUB_OWNER",
	"github.repo":  "GITHUB_REPO",
	"github.token": "GITHUB_TOKEN",
	"github.event": "GITHUB_DISPATCH_EVENT",

	"telemetry.enabled":  "ASSISTANT_TELEMETRY",
	"telemetry.endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",

	"log.level": "ASSISTANT_LOG_LEVEL",
}

// EnvName returns the environment variable bound to key, or "".
func EnvName(key string) string {
	return envKeys[key]
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config path; empty searches for assistant.* in Dir.
	ConfigFile string
	// Dir is the directory searched for the config file and .env. Default ".".
	Dir string
	// EnvFile is an explicit dotenv file that must exist.
	EnvFile string
	// Overrides win over every other source, keyed like "run.dry_run".
	Overrides map[string]any
}

// Load assembles the configuration. A missing default config file or .env is
// fine; an explicit one that cannot be read is an error.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		_ = godotenv.Load(dir + "/.env")
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// USE_MODELS_API=false selects the CLI backend unless a provider was named.
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "models"
		if !cfg.Generation.UseModelsAPI {
			cfg.Generation.Provider = "copilot"
		}
	}
	cfg.Jira.BaseURL = strings.TrimSuffix(cfg.Jira.BaseURL, "/")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("jira.story_kind", d.Jira.StoryKind)
	v.SetDefault("jira.task_kind", d.Jira.TaskKind)
	v.SetDefault("jira.question_kind", d.Jira.QuestionKind)
	v.SetDefault("jira.link_type", d.Jira.LinkType)
	v.SetDefault("jira.block_link_type", d.Jira.BlockLinkType)
	v.SetDefault("jira.cache_size", d.Jira.CacheSize)

	v.SetDefault("generation.use_models_api", d.Generation.UseModelsAPI)
	v.SetDefault("generation.endpoint", d.Generation.Endpoint)
	v.SetDefault("generation.model", d.Generation.Model)
	v.SetDefault("generation.copilot_command", d.Generation.CopilotCommand)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.timeout", d.Generation.Timeout)
	v.SetDefault("generation.max_attempts", d.Generation.MaxAttempts)
	v.SetDefault("generation.backoff_unit", d.Generation.BackoffUnit)
	v.SetDefault("generation.signature", d.Generation.Signature)

	v.SetDefault("hierarchy.top_kind", d.Hierarchy.TopKind)
	v.SetDefault("hierarchy.max_depth", d.Hierarchy.MaxDepth)

	v.SetDefault("roles.requirements", d.Roles.Requirements)
	for name, paths := range map[string]RolePaths{
		"ba":              d.Roles.BA,
		"tech":            d.Roles.Tech,
		"content_spitter": d.Roles.ContentSpitter,
		"content_creator": d.Roles.ContentCreator,
		"troubleshooter":  d.Roles.Troubleshooter,
	} {
		v.SetDefault("roles."+name+".instructions", paths.Instructions)
		v.SetDefault("roles."+name+".output", paths.Output)
		v.SetDefault("roles."+name+".prompt", paths.Prompt)
	}

	v.SetDefault("webhook.port", d.Webhook.Port)
	v.SetDefault("webhook.path", d.Webhook.Path)
	v.SetDefault("github.api_url", d.GitHub.APIURL)
	v.SetDefault("github.event", d.GitHub.Event)
	v.SetDefault("log.level", d.Log.Level)
}

// Default returns the built-in configuration.
func Default() Config {
	role := func(instructions, stem string) RolePaths {
		return RolePaths{
			Instructions: "instructions/platform/roles/" + instructions,
			Output:       stem + "-output.json",
			Prompt:       stem + "-prompt.txt",
		}
	}
	return Config{
		Jira: Jira{
			StoryKind:     "Story",
			TaskKind:      "Task",
			QuestionKind:  "Sub-task",
			LinkType:      "Relates",
			BlockLinkType: "Blocks",
			CacheSize:     256,
		},
		Generation: Generation{
			Provider:       "models",
			UseModelsAPI:   true,
			Endpoint:       "https://models.inference.ai.azure.com",
			Model:          "gpt-4o-mini",
			CopilotCommand: "copilot",
			Temperature:    0.2,
			MaxTokens:      4096,
			Timeout:        5 * time.Minute,
			MaxAttempts:    3,
			BackoffUnit:    2 * time.Second,
			Signature:      "no completion",
		},
		Hierarchy: Hierarchy{TopKind: "Epic", MaxDepth: 10},
		Roles: Roles{
			Requirements:   "instructions/platform/technical/technical-requirements.md",
			BA:             role("ba-role.md", "ba"),
			Tech:           role("dev-role.md", "tech"),
			ContentSpitter: role("content-spitter-role.md", "content-spitter"),
			ContentCreator: role("content-creator-role.md", "content-creator"),
			Troubleshooter: role("troubleshooter-role.md", "troubleshooter"),
		},
		Webhook: Webhook{Port: 8080, Path: "/jira-webhook"},
		GitHub:  GitHub{APIURL: "https://api.github.com", Event: "jira_issue_updated"},
		Log:     Log{Level: "info"},
	}
}
