package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"text2sql/internal/render"
)

var (
	contextFormat string
	showStatus    bool
)

var contextCmd = &cobra.Command{
	Use:   "context <question>",
	Short: "Print the prompt context for a question without calling the LLM",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextFormat, "format", "f", "text", "Output format: text, markdown, json")
	contextCmd.Flags().BoolVar(&showStatus, "status", true, "Print a per-table status table to stderr")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if !slices.Contains(render.Formats, contextFormat) {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s", contextFormat, strings.Join(render.Formats, ", "))
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	pc, err := a.service.PromptInfo(ctx, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}

	if err := render.Context(cmd.OutOrStdout(), pc, contextFormat); err != nil {
		return err
	}
	if showStatus {
		render.StatusTable(cmd.ErrOrStderr(), pc)
	}
	return nil
}
