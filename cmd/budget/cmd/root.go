// Package cmd provides the commands of the budget binary.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
)

var (
	flagConfig  string
	flagBackend string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "budget",
	Short: "Monthly budget tracker",
	Long: `budget tracks a monthly budget: an income, a target budget and a
grid of six rows by four spending categories.

Run "budget serve" for the web page, or edit the same data from the
terminal with the other commands.

Example:
  budget set income 2400
  budget set amount 1 housing 750
  budget summary`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flags win over the config file by going through the environment.
		if flagConfig != "" {
			if err := os.Setenv("BUDGET_CONFIG_FILE", flagConfig); err != nil {
				return err
			}
		}
		if flagBackend != "" {
			if err := os.Setenv("DATA_BACKEND", flagBackend); err != nil {
				return err
			}
		}
		if flagDebug {
			return os.Setenv("LOG_LEVEL", "debug")
		}
		return nil
	},
	RunE: runSummary,
}

// Execute runs the root command. It is called by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default $XDG_CONFIG_HOME/budget/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "", "data backend: "+strings.Join(backend.GetBackendTypeStrings(), ", "))
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// openApp loads the configuration and wires the budget. Logs go to logOut
// so they never mix with command output.
func openApp(ctx context.Context, logOut io.Writer) (*cli.App, error) {
	cfg, logger, err := cli.LoadConfig((*config.Config).Validate, logOut)
	if err != nil {
		return nil, err
	}
	app, err := cli.Bootstrap(ctx, cfg, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("start budget: %w", err)
	}
	return app, nil
}
