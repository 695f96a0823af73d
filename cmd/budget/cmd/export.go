package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/report"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the budget summary as PDF or XLSX",
	Long: `Write the budget summary, with its chart, to a file.

Example:
  budget export --format pdf
  budget export --format xlsx --out juin.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "pdf", "output format: pdf or xlsx")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "output file (default budget.<format>)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(flagExportFormat)
	if err != nil {
		return err
	}
	exporter, err := report.ExporterFor(format)
	if err != nil {
		return err
	}
	path := flagExportOut
	if path == "" {
		path = report.Filename(exporter)
	}

	app, err := openApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	// Render fully before touching the file so a failure leaves no stub.
	var buf bytes.Buffer
	if err := app.Controller.Export(cmd.Context(), format, &buf); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Export écrit dans %s (%d octets)\n", path, buf.Len())
	return nil
}
