// Package preset fills recurring values into a form by matching field labels
// against a preset's keys. Matching by label rather than field id keeps a
// preset usable across formats whose ids differ.
package preset

import (
	"strings"

	"AUTOFILL/internal/models"
)

// Rule maps a lower-case label substring to a preset data key.
type Rule struct {
	MatchSubstring string `json:"match_substring" yaml:"match_substring"`
	PresetKey      string `json:"preset_key" yaml:"preset_key"`
}

// DefaultRules are tested in order; the first rule that matches a label and
// has a value in the preset wins.
var DefaultRules = []Rule{
	{MatchSubstring: "realizado por", PresetKey: models.PresetKeyRealizadoPor},
	{MatchSubstring: "cargo", PresetKey: models.PresetKeyCargo},
	{MatchSubstring: "lugar", PresetKey: models.PresetKeyLugarZonaTrabajo},
}

// Assignment is one field write produced by a match.
type Assignment struct {
	SheetIndex   int
	SectionIndex int
	FieldID      string
	Value        string
}

type Matcher struct {
	rules []Rule
}

// NewMatcher builds a matcher over rules, or DefaultRules when none are given.
func NewMatcher(rules ...Rule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		sub := strings.ToLower(strings.TrimSpace(r.MatchSubstring))
		if sub == "" || r.PresetKey == "" {
			continue
		}
		normalized = append(normalized, Rule{MatchSubstring: sub, PresetKey: r.PresetKey})
	}
	return &Matcher{rules: normalized}
}

func (m *Matcher) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}

// Match scans every field of format and returns the writes the preset
// implies. Coordinates come from the format, not from any FormData.
func (m *Matcher) Match(format *models.ExcelFormat, p models.UserPreset) []Assignment {
	if format == nil {
		return nil
	}
	var out []Assignment
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			for _, field := range section.Fields {
				if value, ok := m.valueFor(field.Label, p.Data); ok {
					out = append(out, Assignment{
						SheetIndex:   i,
						SectionIndex: j,
						FieldID:      field.ID,
						Value:        value,
					})
				}
			}
		}
	}
	return out
}

// Apply runs Match and hands each assignment to update. It returns how many
// writes update accepted.
func (m *Matcher) Apply(format *models.ExcelFormat, p models.UserPreset, update func(sheetIndex, sectionIndex int, fieldID string, value any) bool) int {
	n := 0
	for _, a := range m.Match(format, p) {
		if update(a.SheetIndex, a.SectionIndex, a.FieldID, a.Value) {
			n++
		}
	}
	return n
}

func (m *Matcher) valueFor(label string, data models.PresetData) (string, bool) {
	lower := strings.ToLower(label)
	for _, r := range m.rules {
		if !strings.Contains(lower, r.MatchSubstring) {
			continue
		}
		if v := data[r.PresetKey]; v != "" {
			return v, true
		}
	}
	return "", false
}
