package autofill

import (
	"fmt"
	"strings"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
)

// WorkerSlots is how many workers a worker list section holds.
const WorkerSlots = 4

// WorkerField is the id of one column of a worker slot, numbered from 1:
// WorkerField(2, "cargo") is "trabajador2_cargo".
func WorkerField(slot int, column string) string {
	return fmt.Sprintf("trabajador%d_%s", slot, column)
}

// WorkerList fills the crew table of a form. Nothing is written on mount;
// slots are filled from a crew or one worker at a time.
type WorkerList struct{}

func (WorkerList) Defaults(Context) []Default { return nil }

// SelectWorker returns the writes for putting w in slot (1-based). The
// signature is left alone when none can be resolved. A nil worker blanks
// the whole slot.
func (WorkerList) SelectWorker(slot int, w *models.Worker, signatures []models.Signature) []Default {
	if w == nil {
		return []Default{
			{FieldID: WorkerField(slot, "nombre"), Value: ""},
			{FieldID: WorkerField(slot, "cargo"), Value: ""},
			{FieldID: WorkerField(slot, "cedula"), Value: ""},
			{FieldID: WorkerField(slot, "firma"), Value: ""},
		}
	}
	out := []Default{
		{FieldID: WorkerField(slot, "nombre"), Value: w.Nombre},
		{FieldID: WorkerField(slot, "cargo"), Value: w.Cargo},
		{FieldID: WorkerField(slot, "cedula"), Value: w.Cedula},
	}
	if id, ok := ResolveSignature(*w, signatures); ok {
		out = append(out, Default{FieldID: WorkerField(slot, "firma"), Value: id})
	}
	return out
}

// SelectCrew fills the slots with the crew's active workers in roster
// order. An empty crew id, or a crew with no active workers, blanks every
// slot.
func (l WorkerList) SelectCrew(snap roster.Snapshot, cuadrillaID string, signatures []models.Signature) []Default {
	var members []models.Worker
	if cuadrillaID != "" {
		for _, w := range snap.WorkersByCuadrilla(cuadrillaID) {
			if w.IsActive {
				members = append(members, w)
			}
		}
	}
	var out []Default
	if len(members) == 0 {
		for slot := 1; slot <= WorkerSlots; slot++ {
			out = append(out, l.SelectWorker(slot, nil, signatures)...)
		}
		return out
	}
	for i, w := range members {
		if i == WorkerSlots {
			break
		}
		out = append(out, l.SelectWorker(i+1, &w, signatures)...)
	}
	return out
}

// ResolveSignature finds the stored signature of w: the one linked by id
// when it still exists, else one whose name matches the worker's, ignoring
// case.
func ResolveSignature(w models.Worker, signatures []models.Signature) (string, bool) {
	if w.SignatureID != "" {
		for _, s := range signatures {
			if s.ID == w.SignatureID {
				return s.ID, true
			}
		}
	}
	for _, s := range signatures {
		if strings.EqualFold(s.Name, w.Nombre) {
			return s.ID, true
		}
	}
	return "", false
}
