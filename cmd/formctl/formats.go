package main

import (
	"fmt"
	"text/tabwriter"

	"AUTOFILL/internal/formstate"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Work with the format catalog",
}

var formatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the formats in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSHEETS\tSTEPS")
		for _, f := range cat.List() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", f.ID, f.Name, len(f.Sheets), len(formstate.BuildWizardSteps(&f)))
		}
		return w.Flush()
	},
}

var formatsShowCmd = &cobra.Command{
	Use:   "show <format-id>",
	Short: "Print the wizard steps of one format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		format, err := cat.Get(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", format.Name, format.ID)
		for _, step := range formstate.BuildWizardSteps(format) {
			optional := ""
			if step.IsOptional {
				optional = " [optional]"
			}
			fmt.Fprintf(out, "%2d. %s/%s %s%s\n", step.StepNumber, format.Sheets[step.SheetIndex].Name, step.Section.ID, step.Title, optional)
			for _, field := range step.Section.Fields {
				req := ""
				if field.Required {
					req = " *"
				}
				fmt.Fprintf(out, "      %-12s %-8s %s%s\n", field.ID, field.Type, field.Label, req)
			}
		}
		return nil
	},
}

func init() {
	formatsCmd.AddCommand(formatsListCmd, formatsShowCmd)
}
