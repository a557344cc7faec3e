package models

// ExcelFormat describes a spreadsheet-derived form. It is loaded once from the
// catalog and never mutated while a session is editing against it.
type ExcelFormat struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	FilePath    string           `json:"file_path" yaml:"file_path"`
	FileType    string           `json:"file_type" yaml:"file_type"` // xlsx or xls
	Sheets      []SheetStructure `json:"sheets" yaml:"sheets"`
	Thumbnail   string           `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
}

// SheetStructure orders its sections; that order is the wizard step order.
type SheetStructure struct {
	Name        string    `json:"name" yaml:"name"`
	Sections    []Section `json:"sections" yaml:"sections"`
	MergedCells []string  `json:"merged_cells,omitempty" yaml:"merged_cells,omitempty"`
}

type SectionType string

const (
	SectionHeader       SectionType = "header"
	SectionBasicInfo    SectionType = "basic_info"
	SectionChecklist    SectionType = "checklist"
	SectionTable        SectionType = "table"
	SectionSignatures   SectionType = "signatures"
	SectionObservations SectionType = "observations"
	SectionRiskMatrix   SectionType = "risk_matrix"
	SectionWorkerList   SectionType = "worker_list"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case SectionHeader, SectionBasicInfo, SectionChecklist, SectionTable,
		SectionSignatures, SectionObservations, SectionRiskMatrix, SectionWorkerList:
		return true
	}
	return false
}

// Optional sections can be skipped in the wizard.
func (t SectionType) Optional() bool {
	return t == SectionObservations || t == SectionHeader
}

type Section struct {
	ID       string      `json:"id" yaml:"id"`
	Type     SectionType `json:"type" yaml:"type"`
	Title    string      `json:"title" yaml:"title"`
	Fields   []Field     `json:"fields" yaml:"fields"`
	StartRow int         `json:"start_row" yaml:"start_row"`
	EndRow   int         `json:"end_row" yaml:"end_row"`
	StartCol int         `json:"start_col" yaml:"start_col"`
	EndCol   int         `json:"end_col" yaml:"end_col"`
}

// FieldByID returns the field definition with the given id.
func (s *Section) FieldByID(id string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

type FieldType string

const (
	FieldText      FieldType = "text"
	FieldDate      FieldType = "date"
	FieldTime      FieldType = "time"
	FieldNumber    FieldType = "number"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldSignature FieldType = "signature"
	FieldTextarea  FieldType = "textarea"
	FieldSelect    FieldType = "select"
	FieldFile      FieldType = "file"
)

// Field is static template metadata, not a runtime value.
type Field struct {
	ID         string           `json:"id" yaml:"id"`
	Label      string           `json:"label" yaml:"label"`
	Type       FieldType        `json:"type" yaml:"type"`
	CellRef    string           `json:"cell_ref" yaml:"cell_ref"` // e.g. "B5"
	Row        int              `json:"row" yaml:"row"`
	Col        int              `json:"col" yaml:"col"`
	Required   bool             `json:"required" yaml:"required"`
	Options    []string         `json:"options,omitempty" yaml:"options,omitempty"`
	Validation *FieldValidation `json:"validation,omitempty" yaml:"validation,omitempty"`
	Colspan    int              `json:"colspan,omitempty" yaml:"colspan,omitempty"`
	Rowspan    int              `json:"rowspan,omitempty" yaml:"rowspan,omitempty"`
	Group      string           `json:"group,omitempty" yaml:"group,omitempty"`
}

type FieldValidation struct {
	Pattern    string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength  int    `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength  int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Min        *int   `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *int   `json:"max,omitempty" yaml:"max,omitempty"`
	MergedRows int    `json:"merged_rows,omitempty" yaml:"merged_rows,omitempty"`
	MergedCols int    `json:"merged_cols,omitempty" yaml:"merged_cols,omitempty"`
	ApplyToAll bool   `json:"apply_to_all,omitempty" yaml:"apply_to_all,omitempty"`
}

// SectionAt returns the section at the given coordinates.
func (f *ExcelFormat) SectionAt(sheetIndex, sectionIndex int) (*Section, bool) {
	if f == nil || sheetIndex < 0 || sheetIndex >= len(f.Sheets) {
		return nil, false
	}
	sections := f.Sheets[sheetIndex].Sections
	if sectionIndex < 0 || sectionIndex >= len(sections) {
		return nil, false
	}
	return &sections[sectionIndex], true
}
