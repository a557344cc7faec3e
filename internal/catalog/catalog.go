// Package catalog loads the form templates offered to users.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"AUTOFILL/internal/models"

	"gopkg.in/yaml.v3"
)

var ErrFormatNotFound = errors.New("format not found")

type file struct {
	Formats []models.ExcelFormat `yaml:"formats"`
}

// Catalog is an immutable, ordered set of formats.
type Catalog struct {
	formats []models.ExcelFormat
	byID    map[string]int
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f.Formats...)
}

// New validates formats and builds a catalog keeping their order.
func New(formats ...models.ExcelFormat) (*Catalog, error) {
	c := &Catalog{
		formats: make([]models.ExcelFormat, 0, len(formats)),
		byID:    make(map[string]int, len(formats)),
	}
	for _, f := range formats {
		if err := validate(f); err != nil {
			return nil, err
		}
		if _, dup := c.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate format id %q", f.ID)
		}
		if f.FileType == "" {
			f.FileType = "xlsx"
		}
		c.byID[f.ID] = len(c.formats)
		c.formats = append(c.formats, f)
	}
	return c, nil
}

func validate(f models.ExcelFormat) error {
	if f.ID == "" {
		return errors.New("format without id")
	}
	for _, sheet := range f.Sheets {
		sectionIDs := make(map[string]bool, len(sheet.Sections))
		for _, section := range sheet.Sections {
			if section.ID == "" {
				return fmt.Errorf("format %s: section without id in sheet %q", f.ID, sheet.Name)
			}
			if sectionIDs[section.ID] {
				return fmt.Errorf("format %s: duplicate section id %q in sheet %q", f.ID, section.ID, sheet.Name)
			}
			sectionIDs[section.ID] = true
			if !section.Type.Valid() {
				return fmt.Errorf("format %s: section %s has unknown type %q", f.ID, section.ID, section.Type)
			}
			fieldIDs := make(map[string]bool, len(section.Fields))
			for _, field := range section.Fields {
				if fieldIDs[field.ID] {
					return fmt.Errorf("format %s: duplicate field id %q in section %s", f.ID, field.ID, section.ID)
				}
				fieldIDs[field.ID] = true
			}
		}
	}
	return nil
}

// Get returns a pointer into the catalog; callers must not modify it.
func (c *Catalog) Get(id string) (*models.ExcelFormat, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, id)
	}
	return &c.formats[i], nil
}

func (c *Catalog) List() []models.ExcelFormat {
	return slices.Clone(c.formats)
}

func (c *Catalog) Len() int {
	return len(c.formats)
}
