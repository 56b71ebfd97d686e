package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ayerma/assistant/internal/pipeline"
)

const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:     "watch ROLE ISSUE",
	GroupID: "roles",
	Short:   "Apply a role's output file to Jira each time it is saved",
	Long: `Watch the role's output file and apply it to ISSUE whenever it changes.
Useful when the output is produced by an agent outside this tool.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueArg(args[1])
		if err != nil {
			return err
		}
		role, err := pipeline.Lookup(args[0])
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("from")
		if path == "" {
			path = role.Paths(cfg).Output
		}
		r, err := newRunner(cmd.Context(), false)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		// Watch the directory so editors that replace the file are seen.
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		target, _ := filepath.Abs(path)
		fmt.Fprintf(os.Stderr, "Watching %s for %s output... (Press Ctrl+C to exit)\n", path, role.Name)

		ctx := cmd.Context()
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				name, _ := filepath.Abs(event.Name)
				if name == target && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					debounce = time.After(watchDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "error", err)
			case <-debounce:
				debounce = nil
				res, err := r.Apply(ctx, role.Name, key, path)
				if rerr := report(cmd, res, err); rerr != nil {
					logger.Error("apply failed", "role", role.Name, "key", key, "error", rerr)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("from", "", "Output file (default: the role's configured output)")
	rootCmd.AddCommand(watchCmd)
}
