// Package processor inspects template workbooks before they are accepted.
package processor

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"AUTOFILL/internal/models"

	"github.com/xuri/excelize/v2"
)

// TemplateReport describes how well a workbook matches a format.
type TemplateReport struct {
	Sheets        []string `json:"sheets"`
	MissingSheets []string `json:"missing_sheets,omitempty"`
	InvalidCells  []string `json:"invalid_cells,omitempty"`
	// PrefilledCells already hold a value that a field would overwrite.
	PrefilledCells []string `json:"prefilled_cells,omitempty"`
}

// OK is false when the workbook cannot receive the format's values.
// Prefilled cells are only a warning.
func (r *TemplateReport) OK() bool {
	return len(r.MissingSheets) == 0 && len(r.InvalidCells) == 0
}

func (r *TemplateReport) Error() string {
	return fmt.Sprintf("template does not match format: missing sheets %v, invalid cells %v", r.MissingSheets, r.InvalidCells)
}

// InspectTemplate opens the workbook and checks every sheet and cell the
// format refers to.
func InspectTemplate(r io.Reader, format *models.ExcelFormat) (*TemplateReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	report := &TemplateReport{Sheets: f.GetSheetList()}
	if format == nil {
		return report, nil
	}

	for _, sheet := range format.Sheets {
		if !slices.Contains(report.Sheets, sheet.Name) {
			report.MissingSheets = append(report.MissingSheets, sheet.Name)
			continue
		}
		for _, section := range sheet.Sections {
			for _, field := range section.Fields {
				for _, cell := range fieldCells(field) {
					label := sheet.Name + "!" + cell
					if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
						report.InvalidCells = append(report.InvalidCells, label)
						continue
					}
					if field.Type == models.FieldRadio {
						continue
					}
					if v, err := f.GetCellValue(sheet.Name, cell); err == nil && v != "" {
						report.PrefilledCells = append(report.PrefilledCells, label)
					}
				}
			}
		}
	}
	return report, nil
}

// fieldCells lists the cells a field may write to: its own reference and,
// for radios, one cell per option.
func fieldCells(field models.Field) []string {
	var cells []string
	if field.CellRef != "" {
		cells = append(cells, field.CellRef)
	}
	if field.Type != models.FieldRadio || field.Validation == nil || field.Validation.Pattern == "" {
		return cells
	}
	var byOption map[string]string
	if err := json.Unmarshal([]byte(field.Validation.Pattern), &byOption); err != nil {
		return cells
	}
	for _, opt := range field.Options {
		if c, ok := byOption[opt]; ok && !slices.Contains(cells, c) {
			cells = append(cells, c)
		}
	}
	return cells
}
