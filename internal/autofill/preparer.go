package autofill

import (
	"fmt"

	"AUTOFILL/internal/formstate"
)

const (
	FieldElaboroNombre = "elaboro_nombre"
	FieldElaboroCargo  = "elaboro_cargo"
	FieldElaboroFecha  = "elaboro_fecha"
)

// PreparerInfo fills the "elaborated by" block from the identified user.
type PreparerInfo struct{}

func (PreparerInfo) Defaults(c Context) []Default {
	out := []Default{{FieldID: FieldElaboroFecha, Value: ColombiaDate(c.Now)}}
	if c.User == nil {
		return out
	}
	out = append(out, Default{FieldID: FieldElaboroNombre, Value: c.User.Nombre})
	if w, ok := c.Roster.WorkerByID(c.User.ID); ok {
		out = append(out, Default{FieldID: FieldElaboroCargo, Value: w.Cargo})
	}
	return out
}

// PreparerDisplay is the value shown for a preparer field: the stored value,
// else a live roster lookup, else "".
func PreparerDisplay(fieldID string, c Context) string {
	if v := c.Section.Value(fieldID); formstate.IsNonEmpty(v) {
		return fmt.Sprint(v)
	}
	if c.User == nil {
		return ""
	}
	switch fieldID {
	case FieldElaboroNombre:
		return c.User.Nombre
	case FieldElaboroCargo:
		if w, ok := c.Roster.WorkerByID(c.User.ID); ok {
			return w.Cargo
		}
	}
	return ""
}

// Display returns what the preparer fields show right now.
func (PreparerInfo) Display(c Context) map[string]string {
	return map[string]string{
		FieldElaboroNombre: PreparerDisplay(FieldElaboroNombre, c),
		FieldElaboroCargo:  PreparerDisplay(FieldElaboroCargo, c),
	}
}
