package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/store/sqlstore"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the field changes recorded by budget-worker",
	Long: `List the most recent field changes from the audit database
(AUDIT_DB_PATH) filled by budget-worker from the change feed.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "number of changes to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, _, err := cli.LoadConfig(nil, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.AuditDBPath == "" {
		return fmt.Errorf("AUDIT_DB_PATH is empty")
	}

	db, err := sqlstore.OpenSQLite(cmd.Context(), cfg.AuditDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	changes, err := db.RecentChanges(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Aucune modification enregistrée")
		return nil
	}

	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			c.OccurredAt.Local().Format(time.DateTime),
			c.Op,
			c.Key,
			c.Value,
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
		Title:   "Historique des modifications",
		Headers: []string{"Date", "Opération", "Champ", "Valeur"},
		Rows:    rows,
	}))
	return nil
}
