package validation

import (
	"fmt"
	"strings"

	"AUTOFILL/internal/models"
)

// Rule checks one section's data. data is never nil when a rule runs.
type Rule func(section models.Section, data *models.SectionData) Result

var radioAnswers = []string{"SI", "NO", "N/A"}

// Optional accepts anything.
func Optional() Rule {
	return func(models.Section, *models.SectionData) Result { return Valid() }
}

// AllFields requires every field of the section, except those whose id
// starts with one of skipPrefixes.
func AllFields(skipPrefixes ...string) Rule {
	return func(section models.Section, data *models.SectionData) Result {
		for _, f := range section.Fields {
			if hasAnyPrefix(f.ID, skipPrefixes) {
				continue
			}
			if isEmpty(data.Value(f.ID)) {
				return Invalid(fmt.Sprintf("Complete el campo %q.", f.Label))
			}
		}
		return Valid()
	}
}

// RequiredFields requires only the fields marked required.
func RequiredFields() Rule {
	return func(section models.Section, data *models.SectionData) Result {
		for _, f := range section.Fields {
			if !f.Required {
				continue
			}
			if !filled(f, data.Value(f.ID)) {
				return Invalid(fmt.Sprintf("Complete el campo %q.", f.Label))
			}
		}
		return Valid()
	}
}

// AllRadios requires every radio field to hold SI, NO or N/A. An empty
// message names the first missing item.
func AllRadios(message string) Rule {
	return func(section models.Section, data *models.SectionData) Result {
		for _, f := range section.Fields {
			if f.Type != models.FieldRadio {
				continue
			}
			v, _ := data.Value(f.ID).(string)
			if isRadioAnswer(v) {
				continue
			}
			if message != "" {
				return Invalid(message)
			}
			return Invalid(fmt.Sprintf("Debe marcar todos los ítems. Falta: %q.", f.Label))
		}
		return Valid()
	}
}

// Field requires a single field by id.
func Field(fieldID, message string) Rule {
	return func(_ models.Section, data *models.SectionData) Result {
		if isEmpty(data.Value(fieldID)) {
			return Invalid(message)
		}
		return Valid()
	}
}

// AnyOf passes when at least one of the listed field ids is filled.
func AnyOf(message string, fieldIDs ...string) Rule {
	return func(_ models.Section, data *models.SectionData) Result {
		for _, id := range fieldIDs {
			if !isEmpty(data.Value(id)) {
				return Valid()
			}
		}
		return Invalid(message)
	}
}

// AnyChecked passes when one field of the section is checked or has text.
func AnyChecked(message string) Rule {
	return func(section models.Section, data *models.SectionData) Result {
		for _, f := range section.Fields {
			if filled(f, data.Value(f.ID)) {
				return Valid()
			}
		}
		return Invalid(message)
	}
}

// All runs rules in order and returns the first failure.
func All(rules ...Rule) Rule {
	return func(section models.Section, data *models.SectionData) Result {
		for _, r := range rules {
			if res := r(section, data); !res.Valid {
				return res
			}
		}
		return Valid()
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

// filled treats checkboxes as checked only for true, "true", "X" or 1.
func filled(f models.Field, v any) bool {
	if f.Type != models.FieldCheckbox {
		return !isEmpty(v)
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "X"
	case int:
		return t == 1
	case float64:
		return t == 1
	}
	return false
}

func isRadioAnswer(v string) bool {
	for _, a := range radioAnswers {
		if v == a {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
