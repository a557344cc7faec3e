package formstate

import (
	"fmt"
	"time"

	"AUTOFILL/internal/models"
)

// IsNonEmpty decides FieldData.Completed. Only nil and the empty string are
// missing; zero, false and empty slices count as answers.
func IsNonEmpty(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}

// NewFormData returns an empty FormData mirroring the sheet/section shape of
// format. Field lists start empty and are materialized lazily on update.
func NewFormData(format *models.ExcelFormat, startedAt time.Time) *models.FormData {
	if format == nil {
		return nil
	}
	data := &models.FormData{
		FormatID: format.ID,
		Sheets:   make([]models.SheetData, len(format.Sheets)),
	}
	total := 0
	for i, sheet := range format.Sheets {
		sections := make([]models.SectionData, len(sheet.Sections))
		for j, section := range sheet.Sections {
			sections[j] = models.SectionData{SectionID: section.ID, Fields: []models.FieldData{}}
		}
		data.Sheets[i] = models.SheetData{SheetName: sheet.Name, Sections: sections}
		total += len(sheet.Sections)
	}
	data.Metadata = models.FormMetadata{StartedAt: startedAt, TotalSteps: total}
	return data
}

// BuildWizardSteps flattens the format into one step per section in
// document order.
func BuildWizardSteps(format *models.ExcelFormat) []models.WizardStep {
	if format == nil {
		return nil
	}
	var steps []models.WizardStep
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			steps = append(steps, models.WizardStep{
				StepNumber:   i*100 + j,
				Title:        fmt.Sprintf("%s - %s", sheet.Name, section.Title),
				Section:      section,
				SheetIndex:   i,
				SectionIndex: j,
				IsOptional:   section.Type.Optional(),
			})
		}
	}
	return steps
}

// withFieldValue returns a copy of data where the field entry at the given
// coordinates holds value. Only the FormData header, the sheet slice, the
// touched sheet's section slice and the touched field slice are copied;
// everything else is shared with data.
func withFieldValue(data *models.FormData, sheetIndex, sectionIndex int, fieldID string, value any) (*models.FormData, error) {
	if data == nil {
		return nil, ErrNoForm
	}
	if _, ok := data.SectionAt(sheetIndex, sectionIndex); !ok {
		return nil, ErrInvalidIndex
	}

	next := *data
	next.Sheets = append([]models.SheetData(nil), data.Sheets...)

	sheet := next.Sheets[sheetIndex]
	sheet.Sections = append([]models.SectionData(nil), sheet.Sections...)

	section := sheet.Sections[sectionIndex]
	entry := models.FieldData{FieldID: fieldID, Value: value, Completed: IsNonEmpty(value)}

	fields := make([]models.FieldData, len(section.Fields), len(section.Fields)+1)
	copy(fields, section.Fields)
	replaced := false
	for k := range fields {
		if fields[k].FieldID == fieldID {
			fields[k] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		fields = append(fields, entry)
	}

	section.Fields = fields
	sheet.Sections[sectionIndex] = section
	next.Sheets[sheetIndex] = sheet
	return &next, nil
}
