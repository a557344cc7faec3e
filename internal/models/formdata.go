package models

import "time"

// FormData holds the runtime values of one in-progress submission. Its
// sheets and sections line up positionally with the selected ExcelFormat.
type FormData struct {
	FormatID string       `json:"format_id"`
	Sheets   []SheetData  `json:"sheets"`
	Metadata FormMetadata `json:"metadata"`
}

type FormMetadata struct {
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CurrentStep int        `json:"current_step"`
	TotalSteps  int        `json:"total_steps"`
}

type SheetData struct {
	SheetName string        `json:"sheet_name"`
	Sections  []SectionData `json:"sections"`
}

type SectionData struct {
	SectionID string      `json:"section_id"`
	Fields    []FieldData `json:"fields"`
}

// Field returns the entry for fieldID, if one has been materialized.
func (s *SectionData) Field(fieldID string) (FieldData, bool) {
	if s == nil {
		return FieldData{}, false
	}
	for _, f := range s.Fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return FieldData{}, false
}

// Value returns the stored value for fieldID or nil.
func (s *SectionData) Value(fieldID string) any {
	f, _ := s.Field(fieldID)
	return f.Value
}

type FieldData struct {
	FieldID   string `json:"field_id"`
	Value     any    `json:"value"`
	Completed bool   `json:"completed"`
}

// SectionAt returns the section data at the given coordinates.
func (d *FormData) SectionAt(sheetIndex, sectionIndex int) (*SectionData, bool) {
	if d == nil || sheetIndex < 0 || sheetIndex >= len(d.Sheets) {
		return nil, false
	}
	sections := d.Sheets[sheetIndex].Sections
	if sectionIndex < 0 || sectionIndex >= len(sections) {
		return nil, false
	}
	return &sections[sectionIndex], true
}

// WizardStep is derived from its section; it is never edited on its own.
type WizardStep struct {
	StepNumber   int     `json:"step_number"`
	Title        string  `json:"title"`
	Section      Section `json:"section"`
	SheetIndex   int     `json:"sheet_index"`
	SectionIndex int     `json:"section_index"`
	IsCompleted  bool    `json:"is_completed"`
	IsOptional   bool    `json:"is_optional"`
}
