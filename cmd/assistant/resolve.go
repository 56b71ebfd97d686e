package main

import (
	"github.com/spf13/cobra"
)

type chainJSON struct {
	Start         string   `json:"start"`
	Top           string   `json:"top"`
	TopKind       string   `json:"top_kind"`
	Authoritative bool     `json:"authoritative"`
	Stop          string   `json:"stop"`
	Fetches       int      `json:"fetches"`
	Keys          []string `json:"keys"`
}

var resolveCmd = &cobra.Command{
	Use:     "resolve ISSUE",
	GroupID: "roles",
	Short:   "Walk an issue's parents up to the top-level issue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueArg(args[0])
		if err != nil {
			return err
		}
		t, err := newTracker(cfg)
		if err != nil {
			return err
		}
		chain, err := newResolver(t, cfg).Resolve(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !jsonOutput {
			printer(cmd.OutOrStdout()).Chain(chain)
			return nil
		}
		out := chainJSON{
			Start:         chain.Start().Key,
			Top:           chain.Top().Key,
			TopKind:       chain.Top().Kind,
			Authoritative: chain.Authoritative(),
			Stop:          string(chain.Stop),
			Fetches:       chain.Fetches,
		}
		for _, tk := range chain.Tickets {
			out.Keys = append(out.Keys, tk.Key)
		}
		return outputJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
