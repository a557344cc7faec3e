package main

import (
	"fmt"
	"os"

	"AUTOFILL/internal/processor"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <format-id> <workbook.xlsx>",
	Short: "Check that a workbook can receive a format's values",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		format, err := cat.Get(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		report, err := processor.InspectTemplate(f, format)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sheets: %v\n", report.Sheets)
		for _, c := range report.PrefilledCells {
			fmt.Fprintf(out, "warning: %s already has a value\n", c)
		}
		if !report.OK() {
			return report
		}
		fmt.Fprintln(out, "ok")
		return nil
	},
}
