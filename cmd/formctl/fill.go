package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/services"
	"AUTOFILL/internal/spreadsheet"
	"AUTOFILL/internal/storage"
	"AUTOFILL/internal/validation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// valuesFile is the YAML input of fill. Values are keyed by section id,
// then field id.
type valuesFile struct {
	Format string                    `yaml:"format"`
	Values map[string]map[string]any `yaml:"values"`
}

var fillOpts struct {
	format     string
	values     string
	template   string
	out        string
	libraryDir string
	force      bool
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a template with the values of a YAML file",
	Args:  cobra.NoArgs,
	RunE:  runFill,
}

func init() {
	f := fillCmd.Flags()
	f.StringVar(&fillOpts.format, "format", "", "format id, overrides the one in the values file")
	f.StringVar(&fillOpts.values, "values", "", "YAML file with the field values")
	f.StringVar(&fillOpts.template, "template", "", "template workbook; a blank one is built when empty")
	f.StringVar(&fillOpts.out, "out", "", "output file (default outputs/<format>-<millis>.xlsx)")
	f.StringVar(&fillOpts.libraryDir, "library", "", "directory of a file-backed signature library")
	f.BoolVar(&fillOpts.force, "force", false, "write the file even when required fields are missing")
	_ = fillCmd.MarkFlagRequired("values")
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	raw, err := os.ReadFile(fillOpts.values)
	if err != nil {
		return fmt.Errorf("failed to read values: %w", err)
	}
	var vf valuesFile
	if err := yaml.Unmarshal(raw, &vf); err != nil {
		return fmt.Errorf("failed to parse values: %w", err)
	}
	formatID := vf.Format
	if fillOpts.format != "" {
		formatID = fillOpts.format
	}
	if formatID == "" {
		return errors.New("no format given")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	format, err := cat.Get(formatID)
	if err != nil {
		return err
	}

	var persister formstate.Persister
	if fillOpts.libraryDir != "" {
		persister = &services.FileLibraryPersister{Dir: fillOpts.libraryDir}
	}
	lib, err := formstate.NewLibrary(ctx, persister, logger)
	if err != nil {
		return err
	}

	store := formstate.NewStore(lib, formstate.WithLogger(logger))
	store.SelectFormat(format)
	if err := applyValues(store, format, vf.Values); err != nil {
		return err
	}

	if missing := store.MissingRequiredFields(); len(missing) > 0 {
		for _, m := range missing {
			fmt.Fprintf(cmd.ErrOrStderr(), "missing: %s/%s (%s)\n", m.SectionID, m.FieldID, m.Label)
		}
		if !fillOpts.force {
			return fmt.Errorf("%d required fields missing", len(missing))
		}
	}
	if res := validation.Default().ValidateAll(format, store.CurrentFormData(), store.WizardSteps()); !res.Valid {
		if !fillOpts.force {
			return errors.New(res.Message)
		}
		logger.Warn("validation failed", zap.String("message", res.Message))
	}

	var src io.Reader
	if fillOpts.template != "" {
		tf, err := os.Open(fillOpts.template)
		if err != nil {
			return fmt.Errorf("failed to open template: %w", err)
		}
		defer tf.Close()
		src = tf
	}

	signatures := make(map[string]models.Signature)
	for _, sig := range lib.Signatures() {
		signatures[sig.ID] = sig
	}
	buf, err := spreadsheet.NewGenerator(logger).Fill(ctx, src, format, store.CurrentFormData(), signatures)
	if err != nil {
		return err
	}

	out := fillOpts.out
	if out == "" {
		out = filepath.Join("outputs", path.Base(storage.GenerateDocumentObjectName(format.Name, time.Now())))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// applyValues writes every value to the first section with a matching id.
func applyValues(store *formstate.Store, format *models.ExcelFormat, values map[string]map[string]any) error {
	for sectionID, fields := range values {
		si, ci, ok := findSection(format, sectionID)
		if !ok {
			return fmt.Errorf("unknown section %q", sectionID)
		}
		for fieldID, v := range fields {
			if err := store.TryUpdateFieldValue(si, ci, fieldID, v); err != nil {
				return fmt.Errorf("failed to set %s/%s: %w", sectionID, fieldID, err)
			}
		}
	}
	return nil
}

func findSection(format *models.ExcelFormat, sectionID string) (int, int, bool) {
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			if section.ID == sectionID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
