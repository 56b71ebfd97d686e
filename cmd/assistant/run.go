package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayerma/assistant/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:     "run ROLE ISSUE",
	GroupID: "roles",
	Short:   "Generate a role's output for an issue and apply it to Jira",
	Long: `Build the prompt for ROLE from ISSUE, call the generation backend,
save the output, and write the result back to Jira.

Roles: ` + strings.Join(pipeline.Names(), ", ") + `

ISSUE may be a key (APP-123) or a browse URL.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueArg(args[1])
		if err != nil {
			return err
		}
		promptOnly, _ := cmd.Flags().GetBool("prompt-only")
		fromOutput, _ := cmd.Flags().GetBool("from-output")
		opts := pipeline.Options{
			PromptOnly:  promptOnly || cfg.Run.PromptOnly,
			Summary:     flagOr(cmd, "summary", cfg.Run.Summary),
			Description: flagOr(cmd, "description", cfg.Run.Description),
			RepoPath:    flagOr(cmd, "repo", cfg.Run.RepoPath),
		}

		ctx := cmd.Context()
		if fromOutput || cfg.Run.FromOutput {
			r, err := newRunner(ctx, false)
			if err != nil {
				return err
			}
			res, err := r.Apply(ctx, args[0], key, "")
			return report(cmd, res, err)
		}

		r, err := newRunner(ctx, !opts.PromptOnly)
		if err != nil {
			return err
		}
		res, err := r.Run(ctx, args[0], key, opts)
		return report(cmd, res, err)
	},
}

var applyCmd = &cobra.Command{
	Use:     "apply ROLE ISSUE",
	GroupID: "roles",
	Short:   "Apply a saved role output to Jira without generating",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueArg(args[1])
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		r, err := newRunner(cmd.Context(), false)
		if err != nil {
			return err
		}
		res, err := r.Apply(cmd.Context(), args[0], key, from)
		return report(cmd, res, err)
	},
}

var attachPRCmd = &cobra.Command{
	Use:     "attach-pr ISSUE",
	GroupID: "roles",
	Short:   "Comment the pull request from the implementation output on an issue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueArg(args[0])
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		r, err := newRunner(cmd.Context(), false)
		if err != nil {
			return err
		}
		if err := r.AttachPullRequest(cmd.Context(), key, from); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]string{"key": key, "status": "attached"})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pull request attached to %s\n", key)
		return nil
	},
}

var rolesCmd = &cobra.Command{
	Use:     "roles",
	GroupID: "roles",
	Short:   "List the available roles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := pipeline.Names()
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), names)
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("prompt-only", false, "Write the prompt file and stop")
	runCmd.Flags().Bool("from-output", false, "Apply the saved output file instead of generating")
	runCmd.Flags().String("summary", "", "Use this summary instead of reading the issue")
	runCmd.Flags().String("description", "", "Description to pair with --summary")
	runCmd.Flags().String("repo", "", "Repository path for the implementation prompt")

	applyCmd.Flags().String("from", "", "Output file (default: the role's configured output)")
	attachPRCmd.Flags().String("from", "", "Implementation output file (default: the tech role's output)")

	rootCmd.AddCommand(runCmd, applyCmd, attachPRCmd, rolesCmd)
}

// flagOr returns the named string flag when it was set, else def.
func flagOr(cmd *cobra.Command, name, def string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return def
}

// report prints a run result, then returns err or the batch failures.
func report(cmd *cobra.Command, res *pipeline.Result, err error) error {
	if res != nil {
		if jsonOutput {
			if jerr := outputJSON(cmd.OutOrStdout(), res); jerr != nil {
				return jerr
			}
		} else {
			printer(cmd.OutOrStdout()).Result(res)
		}
	}
	if err != nil {
		return err
	}
	if res != nil && res.Report != nil {
		if n := res.Report.Failed(); n > 0 {
			return fmt.Errorf("%d of %d writes failed", n, n+res.Report.Created())
		}
	}
	return nil
}
