package formstate

import "AUTOFILL/internal/models"

// MissingField names a required template field without a completed value.
type MissingField struct {
	SheetIndex   int    `json:"sheet_index"`
	SectionIndex int    `json:"section_index"`
	SectionID    string `json:"section_id"`
	FieldID      string `json:"field_id"`
	Label        string `json:"label"`
}

// IsComplete reports whether every materialized FieldData entry is
// completed. Fields that were never touched have no entry and are not
// inspected; use MissingRequired for those.
func IsComplete(data *models.FormData) bool {
	if data == nil {
		return false
	}
	for _, sheet := range data.Sheets {
		for _, section := range sheet.Sections {
			for _, field := range section.Fields {
				if !field.Completed {
					return false
				}
			}
		}
	}
	return true
}

// MissingRequired lists required fields of format that have no completed
// entry in data. Sections are paired by position.
func MissingRequired(format *models.ExcelFormat, data *models.FormData) []MissingField {
	if format == nil {
		return nil
	}
	var missing []MissingField
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			sectionData, _ := data.SectionAt(i, j)
			for _, field := range section.Fields {
				if !field.Required {
					continue
				}
				if entry, ok := sectionData.Field(field.ID); ok && entry.Completed {
					continue
				}
				missing = append(missing, MissingField{
					SheetIndex:   i,
					SectionIndex: j,
					SectionID:    section.ID,
					FieldID:      field.ID,
					Label:        field.Label,
				})
			}
		}
	}
	return missing
}

// sectionComplete is true when the section has at least one answer and none
// of its required fields is missing.
func sectionComplete(section models.Section, data *models.SectionData) bool {
	if data == nil || len(data.Fields) == 0 {
		return false
	}
	for _, field := range section.Fields {
		if !field.Required {
			continue
		}
		if entry, ok := data.Field(field.ID); !ok || !entry.Completed {
			return false
		}
	}
	return true
}
