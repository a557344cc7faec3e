package autofill

import (
	"strings"
	"unicode"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	FieldInspectorNombre = "inspector_nombre"
	FieldInspectorCargo  = "inspector_cargo"
	FieldInspectorFecha  = "inspector_fecha"
)

// ReviewerRoles is the allow-list of job titles that may review a form.
var ReviewerRoles = []string{"supervisor", "coordinador", "asistente técnico", "asistente tecnico"}

// ReviewerInfo fills the "reviewed and approved by" block.
type ReviewerInfo struct{}

// Defaults only stamps the date; the reviewer is picked with Select.
func (ReviewerInfo) Defaults(c Context) []Default {
	return []Default{{FieldID: FieldInspectorFecha, Value: ColombiaDate(c.Now)}}
}

// Candidates returns active workers whose title contains one of the
// reviewer roles, ignoring case and accents.
func (ReviewerInfo) Candidates(snap roster.Snapshot) []models.Worker {
	roles := make([]string, len(ReviewerRoles))
	for i, r := range ReviewerRoles {
		roles[i] = fold(r)
	}
	var out []models.Worker
	for _, w := range snap.Workers {
		if !w.IsActive {
			continue
		}
		cargo := fold(w.Cargo)
		for _, r := range roles {
			if strings.Contains(cargo, r) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// Select returns the writes for choosing w as reviewer. A nil worker clears
// both fields.
func (ReviewerInfo) Select(w *models.Worker) []Default {
	if w == nil {
		return []Default{
			{FieldID: FieldInspectorNombre, Value: ""},
			{FieldID: FieldInspectorCargo, Value: ""},
		}
	}
	return []Default{
		{FieldID: FieldInspectorNombre, Value: w.Nombre},
		{FieldID: FieldInspectorCargo, Value: w.Cargo},
	}
}

// Preselect finds the candidate whose name equals the stored
// inspector_nombre. The link is by name, so renaming a worker breaks it.
func (ReviewerInfo) Preselect(section *models.SectionData, candidates []models.Worker) (string, bool) {
	name, _ := section.Value(FieldInspectorNombre).(string)
	if name == "" {
		return "", false
	}
	for _, w := range candidates {
		if w.Nombre == name {
			return w.ID, true
		}
	}
	return "", false
}

// fold lower-cases s and strips combining marks.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
