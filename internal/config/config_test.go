package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every bound variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envKeys {
		if old, ok := os.LookupEnv(env); ok {
			_ = os.Unsetenv(env)
			t.Cleanup(func() { _ = os.Setenv(env, old) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jira.StoryKind != "Story" || cfg.Jira.QuestionKind != "Sub-task" || cfg.Jira.LinkType != "Relates" {
		t.Errorf("jira defaults = %+v", cfg.Jira)
	}
	if cfg.Generation.Provider != "models" || cfg.Generation.MaxAttempts != 3 || cfg.Generation.BackoffUnit != 2*time.Second {
		t.Errorf("generation defaults = %+v", cfg.Generation)
	}
	if cfg.Hierarchy.TopKind != "Epic" || cfg.Hierarchy.MaxDepth != 10 {
		t.Errorf("hierarchy defaults = %+v", cfg.Hierarchy)
	}
	if cfg.Roles.Tech.Instructions != "instructions/platform/roles/dev-role.md" {
		t.Errorf("tech instructions = %q", cfg.Roles.Tech.Instructions)
	}
	if cfg.Webhook.Port != 8080 || cfg.GitHub.Event != "jira_issue_updated" {
		t.Errorf("webhook/github defaults = %+v %+v", cfg.Webhook, cfg.GitHub)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := `[jira]
base_url = "https://file.example/"
link_type = "Cloners"

[generation]
model = "from-file"
`
	if err := os.WriteFile(filepath.Join(dir, "assistant.toml"), []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MODELS_MODEL=from-dotenv\nPORT=9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("MODELS_MODEL")
		_ = os.Unsetenv("PORT")
	})
	t.Setenv("JIRA_LINK_TYPE", "Duplicate")

	cfg, err := Load(Options{Dir: dir, Overrides: map[string]any{"run.dry_run": true}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jira.BaseURL != "https://file.example" {
		t.Errorf("base_url = %q", cfg.Jira.BaseURL)
	}
	if cfg.Jira.LinkType != "Duplicate" {
		t.Errorf("env should beat file, link_type = %q", cfg.Jira.LinkType)
	}
	if cfg.Generation.Model != "from-dotenv" {
		t.Errorf("model = %q", cfg.Generation.Model)
	}
	if cfg.Webhook.Port != 9090 {
		t.Errorf("port = %d", cfg.Webhook.Port)
	}
	if !cfg.Run.DryRun {
		t.Error("override not applied")
	}
}

func TestLoadUseModelsAPIFalse(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_MODELS_API", "false")
	cfg, err := Load(Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Provider != "copilot" {
		t.Errorf("provider = %q, want copilot", cfg.Generation.Provider)
	}

	t.Setenv("GENERATION_PROVIDER", "gemini")
	cfg, err = Load(Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", cfg.Generation.Provider)
	}
}

func TestLoadExplicitFilesMustExist(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if _, err := Load(Options{Dir: dir, ConfigFile: filepath.Join(dir, "nope.yaml")}); err == nil {
		t.Error("expected error for missing config file")
	}
	if _, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, "nope.env")}); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateJira()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("ValidateJira = %v, want ErrMissing", err)
	}
	if !strings.Contains(err.Error(), "jira.base_url (JIRA_BASE_URL)") {
		t.Errorf("error should name the key and variable: %v", err)
	}

	cfg.Jira.BaseURL, cfg.Jira.APIToken = "https://x", "t"
	if err := cfg.ValidateJira(); err != nil {
		t.Errorf("ValidateJira = %v", err)
	}

	if err := cfg.ValidateGeneration(); !errors.Is(err, ErrMissing) {
		t.Errorf("ValidateGeneration = %v, want ErrMissing", err)
	}
	cfg.Generation.Provider = "copilot"
	if err := cfg.ValidateGeneration(); err != nil {
		t.Errorf("copilot needs only a command: %v", err)
	}
	cfg.Generation.Signature = "  "
	if err := cfg.ValidateGeneration(); !errors.Is(err, ErrMissing) || !strings.Contains(err.Error(), "generation.signature") {
		t.Errorf("blank signature: ValidateGeneration = %v, want ErrMissing naming generation.signature", err)
	}
	cfg.Generation.Signature = "no completion"
	cfg.Generation.Provider = "bogus"
	if err := cfg.ValidateGeneration(); err == nil {
		t.Error("expected unknown provider error")
	}

	if err := cfg.ValidateGitHub(); !errors.Is(err, ErrMissing) {
		t.Errorf("ValidateGitHub = %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Jira.APIToken = "secret"
	r := cfg.Redacted()
	if r.Jira.APIToken != "****" || r.GitHub.Token != "" {
		t.Errorf("redacted = %+v %+v", r.Jira, r.GitHub)
	}
	if cfg.Jira.APIToken != "secret" {
		t.Error("Redacted modified the receiver")
	}
}

func TestStarterFileRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "assistant.toml")
	if err := WriteStarterFile(path); err != nil {
		t.Fatalf("WriteStarterFile: %v", err)
	}
	if err := WriteStarterFile(path); !errors.Is(err, ErrExists) {
		t.Errorf("second write = %v, want ErrExists", err)
	}
	cfg, err := Load(Options{ConfigFile: path, Dir: dir})
	if err != nil {
		t.Fatalf("Load starter: %v", err)
	}
	if cfg.Generation.Timeout != 5*time.Minute || cfg.Roles.BA.Output != "ba-output.json" {
		t.Errorf("starter did not round-trip: %+v", cfg.Generation)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, Default()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[jira]") {
		t.Errorf("encoded config lacks [jira] table:\n%s", buf.String())
	}
}
