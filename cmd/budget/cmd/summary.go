package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the budget with its totals and balance",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	s, t := app.Controller.State()
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderSummary(app.Catalog, s, t))
	return nil
}
