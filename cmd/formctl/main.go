// Command formctl fills form templates from the command line, without the
// HTTP wizard.
package main

import (
	"fmt"
	"os"

	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	catalogPath string
	logLevel    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "formctl",
	Short:         "Inspect form catalogs and fill spreadsheet templates",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(false, logLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "formats/catalog.yaml", "path to the format catalog")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.AddCommand(formatsCmd, fillCmd, inspectCmd)
}

func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", zap.String("path", catalogPath), zap.Int("formats", cat.Len()))
	return cat, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
