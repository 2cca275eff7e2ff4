package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sqlOnly bool

var sqlCmd = &cobra.Command{
	Use:   "sql <question>",
	Short: "Generate SQL for a natural-language question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSQL,
}

func init() {
	sqlCmd.Flags().BoolVar(&sqlOnly, "sql-only", false, "Print only the generated SQL")
	rootCmd.AddCommand(sqlCmd)
}

func runSQL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")
	res, err := a.service.Run(ctx, question, nil)
	if err != nil {
		return err
	}

	if sqlOnly {
		fmt.Fprintln(cmd.OutOrStdout(), res.SQL)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), res.String())
	for table, msg := range res.Errors {
		logger.Warn("table skipped", "table", table, "error", msg)
	}
	return nil
}
