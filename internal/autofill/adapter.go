// Package autofill derives default field values for a section from the
// roster and the identified user. Adapters are pure: they compute values and
// the caller decides when to write them through the form store.
package autofill

import (
	"time"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
)

// Context is everything an adapter may read.
type Context struct {
	Roster  roster.Snapshot
	User    *models.User
	Section *models.SectionData
	Now     time.Time
}

// Default is one field value proposed by an adapter. Adapters return them in
// write order.
type Default struct {
	FieldID string
	Value   any
}

type Adapter interface {
	Defaults(c Context) []Default
}

// FieldWriter is the subset of the form store adapters write through.
type FieldWriter interface {
	UpdateFieldValue(sheetIndex, sectionIndex int, fieldID string, value any)
}

// Registry binds adapters to sections. Keys are tried from most to least
// specific: "<formatID>/<sectionID>", then the section id, then the section
// type.
type Registry struct {
	byKey  map[string]Adapter
	byType map[models.SectionType]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]Adapter),
		byType: make(map[models.SectionType]Adapter),
	}
}

// DefaultRegistry wires the adapters used by the bundled formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("elaboro_info", PreparerInfo{})
	r.Register("reviso_aprobo", ReviewerInfo{})
	r.Register("inspeccion-herramientas/basic_info", ToolChecklistInfo{})
	r.Register("ats/basic_info", CrewInfo{})
	r.Register("ats/reviso_aprobo", ATSReviewerInfo{})
	r.Register("inspeccion-vehiculo/basic_info", VehicleInfo{})
	r.Register("inspeccion-grua/basic_info", CraneInfo{})
	r.RegisterType(models.SectionWorkerList, WorkerList{})
	return r
}

func (r *Registry) Register(key string, a Adapter) {
	r.byKey[key] = a
}

func (r *Registry) RegisterType(t models.SectionType, a Adapter) {
	r.byType[t] = a
}

func (r *Registry) Lookup(formatID string, section models.Section) (Adapter, bool) {
	if a, ok := r.byKey[formatID+"/"+section.ID]; ok {
		return a, true
	}
	if a, ok := r.byKey[section.ID]; ok {
		return a, true
	}
	a, ok := r.byType[section.Type]
	return a, ok
}

// Apply computes the defaults for the section and writes them through w.
// It returns the number of values written; zero when no adapter is bound.
func (r *Registry) Apply(w FieldWriter, formatID string, sheetIndex, sectionIndex int, section models.Section, c Context) int {
	a, ok := r.Lookup(formatID, section)
	if !ok {
		return 0
	}
	defaults := a.Defaults(c)
	for _, d := range defaults {
		w.UpdateFieldValue(sheetIndex, sectionIndex, d.FieldID, d.Value)
	}
	return len(defaults)
}

// FieldChanged runs the follow-up of the section's adapter after fieldID was
// set to value, and returns the number of values written.
func (r *Registry) FieldChanged(w FieldWriter, formatID string, sheetIndex, sectionIndex int, section models.Section, fieldID string, value any, c Context) int {
	a, ok := r.Lookup(formatID, section)
	if !ok {
		return 0
	}
	f, ok := a.(FollowUp)
	if !ok {
		return 0
	}
	derived := f.FieldChanged(fieldID, value, c)
	for _, d := range derived {
		w.UpdateFieldValue(sheetIndex, sectionIndex, d.FieldID, d.Value)
	}
	return len(derived)
}

// Displayer is implemented by adapters whose fields show live roster values
// until the user stores one.
type Displayer interface {
	Display(c Context) map[string]string
}

// Display returns the live values of the section's adapter, or nil when it
// has none.
func (r *Registry) Display(formatID string, section models.Section, c Context) map[string]string {
	a, ok := r.Lookup(formatID, section)
	if !ok {
		return nil
	}
	d, ok := a.(Displayer)
	if !ok {
		return nil
	}
	return d.Display(c)
}
