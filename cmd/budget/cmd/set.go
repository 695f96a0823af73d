package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"budget/internal/controller"
	"budget/internal/core"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the income, the target budget or a grid cell",
	Long: `Change one field and print the new balance.

Rows are numbered 1 to 6. Columns are given by key (housing, transport,
leisure, savings with the default catalog) or by index 0 to 3.

Example:
  budget set income 2400
  budget set target 1800
  budget set amount 1 housing 750
  budget set label 1 housing "Charges"`,
}

var setIncomeCmd = &cobra.Command{
	Use:   "income <amount>",
	Short: "Set the monthly income",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSet(cmd, controller.Event{Field: controller.FieldIncome}, args[0])
	},
}

var setTargetCmd = &cobra.Command{
	Use:   "target <amount>",
	Short: "Set the target budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSet(cmd, controller.Event{Field: controller.FieldTargetBudget}, args[0])
	},
}

var setAmountCmd = &cobra.Command{
	Use:   "amount <row> <column> <amount>",
	Short: "Set the amount of a grid cell",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCell(cmd, controller.FieldAmount, args)
	},
}

var setLabelCmd = &cobra.Command{
	Use:   "label <row> <column> <label>",
	Short: "Set the label of a grid cell",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCell(cmd, controller.FieldLabel, args)
	},
}

func init() {
	setCmd.AddCommand(setIncomeCmd, setTargetCmd, setAmountCmd, setLabelCmd)
	rootCmd.AddCommand(setCmd)
}

func runSetCell(cmd *cobra.Command, field controller.FieldKind, args []string) error {
	row, err := strconv.Atoi(args[0])
	if err != nil || row < 1 || row > core.NumRows {
		return fmt.Errorf("row must be between 1 and %d, got %q", core.NumRows, args[0])
	}
	ev := controller.Event{Field: field, Row: row - 1}

	app, err := openApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	if ev.Col, err = app.Catalog.ColumnIndex(args[1]); err != nil {
		return err
	}
	return applyChange(cmd.Context(), app.Controller, ev, args[2], cmd.OutOrStdout())
}

func runSet(cmd *cobra.Command, ev controller.Event, value string) error {
	app, err := openApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()
	return applyChange(cmd.Context(), app.Controller, ev, value, cmd.OutOrStdout())
}

// applyChange replays what the page does for one edit: amounts are typed
// then committed on blur, labels are committed on change.
func applyChange(ctx context.Context, ctrl *controller.Controller, ev controller.Event, value string, out io.Writer) error {
	if ev.Field == controller.FieldLabel {
		ev.Kind = controller.EventChange
	} else {
		ev.Kind, ev.Value = controller.EventInput, value
		typed, err := ctrl.Handle(ctx, ev)
		if err != nil {
			return err
		}
		if typed.HasDisplay {
			value = typed.Display
		}
		ev.Kind = controller.EventBlur
	}
	ev.Value = value

	outcome, err := ctrl.Handle(ctx, ev)
	if err != nil {
		return err
	}
	printNotices(out, outcome.Notices)
	fmt.Fprintf(out, "%s\n", outcome.Display)
	fmt.Fprintf(out, "Solde restant : %s\n", outcome.Totals.Balance.Display())
	return nil
}

func printNotices(out io.Writer, notices []controller.Notify) {
	for _, n := range notices {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
	}
}
