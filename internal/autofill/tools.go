package autofill

// Field ids of the tool inspection header.
const (
	FieldToolRealizadoPor = "basic_A5"
	FieldToolCargo        = "basic_A6"
	FieldToolFecha        = "basic_F6"
)

// ToolChecklistInfo fills the header of the tool inspection checklist. The
// worker is matched by name, not id, and must be active.
type ToolChecklistInfo struct{}

func (ToolChecklistInfo) Defaults(c Context) []Default {
	out := []Default{{FieldID: FieldToolFecha, Value: ColombiaISODate(c.Now)}}
	if c.User == nil {
		return out
	}
	out = append(out, Default{FieldID: FieldToolRealizadoPor, Value: c.User.Nombre})
	if w, ok := c.Roster.WorkerByName(c.User.Nombre); ok && w.Cargo != "" {
		out = append(out, Default{FieldID: FieldToolCargo, Value: w.Cargo})
	}
	return out
}
