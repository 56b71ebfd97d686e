// Command assistant drives the Jira role assistants: it builds prompts from
// issues, calls a generation backend, and writes the results back to Jira.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayerma/assistant/internal/config"
	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

var (
	configFile  string
	envFile     string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
	dryRunFlag  bool
	confirmFlag bool

	cfg       *config.Config
	logger    = logging.Discard()
	providers *telemetry.Providers

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./assistant.toml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load (default: ./.env if present)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Read from Jira but log writes instead of sending them")
	rootCmd.PersistentFlags().BoolVar(&confirmFlag, "confirm", false, "Ask before writing generated output to Jira")

	rootCmd.AddGroup(&cobra.Group{ID: "roles", Title: "Running Roles:"})
	rootCmd.AddGroup(&cobra.Group{ID: "integrations", Title: "Integrations:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Utilities:"})
}

var rootCmd = &cobra.Command{
	Use:           "assistant",
	Short:         "assistant - Jira role assistants backed by a language model",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isNoConfigCommand(cmd) {
			return nil
		}
		overrides := map[string]any{}
		if dryRunFlag {
			overrides["run.dry_run"] = true
		}
		loaded, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile, Overrides: overrides})
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(logging.Options{
			Level:   cfg.Log.Level,
			JSON:    cfg.Log.JSON,
			Verbose: verboseFlag,
			Quiet:   quietFlag,
		})
		slog.SetDefault(logger)

		providers, err = telemetry.Init(cmd.Context(), telemetry.Options{
			Enabled:      cfg.Telemetry.Enabled,
			OTLPEndpoint: cfg.Telemetry.Endpoint,
			Version:      Version,
		})
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if providers == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	},
}

// isNoConfigCommand reports whether cmd works without loading configuration.
func isNoConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == adfCmd || c == configInitCmd {
			return true
		}
	}
	return cmd.Name() == "help" || cmd.Name() == "roles"
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		if jsonOutput {
			outputJSONError(err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		rootCancel()
		os.Exit(1)
	}
}
