package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayerma/assistant/internal/github"
	"github.com/ayerma/assistant/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "integrations",
	Short:   "Receive Jira webhooks and dispatch the GitHub workflow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateGitHub(); err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Webhook.Port = port
		}

		gh := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
		if cfg.GitHub.APIURL != "" {
			gh = gh.WithBaseURL(cfg.GitHub.APIURL)
		}
		srv := webhook.NewServer(webhook.ServerConfig{
			Dispatcher: gh,
			Secret:     cfg.Webhook.Secret,
			EventType:  cfg.GitHub.Event,
			Path:       cfg.Webhook.Path,
			Logger:     logger,
		})
		if cfg.Webhook.Secret == "" {
			logger.Warn("webhook secret not set; accepting unauthenticated deliveries")
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			err := srv.Start(fmt.Sprintf(":%d", cfg.Webhook.Port))
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("shutting down webhook server")
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Listen port (default: webhook.port)")
	rootCmd.AddCommand(serveCmd)
}
