package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayerma/assistant/internal/adf"
)

var adfCmd = &cobra.Command{
	Use:     "adf",
	GroupID: "setup",
	Short:   "Convert between Atlassian Document Format and text",
}

var adfToTextCmd = &cobra.Command{
	Use:   "to-text [FILE]",
	Short: "Print the text of an ADF document (stdin when FILE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		doc := adf.Parse(data)
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			fmt.Fprintln(cmd.OutOrStdout(), adf.ToPlainText(doc))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), adf.ToLines(doc))
		return nil
	},
}

var adfFromTextCmd = &cobra.Command{
	Use:   "from-text [FILE]",
	Short: "Wrap text as an ADF document (stdin when FILE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		doc := adf.FromText(string(data))
		if md, _ := cmd.Flags().GetBool("markdown"); md {
			doc = adf.FromMarkdown(string(data))
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}

func init() {
	adfToTextCmd.Flags().Bool("plain", false, "Join text nodes without list and line structure")
	adfFromTextCmd.Flags().Bool("markdown", false, "Treat the input as Markdown")
	adfCmd.AddCommand(adfToTextCmd, adfFromTextCmd)
	rootCmd.AddCommand(adfCmd)
}
