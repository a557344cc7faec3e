package autofill

import (
	"slices"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
)

// Validation patterns that narrow a signature field to some workers.
const (
	PatternSupervisorOnly = "supervisor_only"
	PatternConductorOnly  = "conductor_only"
)

const FieldFirmaInspector = "firma_inspector"

// SupervisorCargos are the exact titles offered by supervisor_only fields.
var SupervisorCargos = []string{"Supervisor", "Coordinador de zona", "Asistente técnico"}

// SignatureOptions returns the signatures a field offers. Restricted fields
// only list signatures linked to active workers of the matching titles;
// every other field lists the whole library.
func SignatureOptions(field models.Field, snap roster.Snapshot, signatures []models.Signature) []models.Signature {
	if field.Validation == nil {
		return signatures
	}
	var keep func(models.Worker) bool
	switch field.Validation.Pattern {
	case PatternSupervisorOnly:
		keep = func(w models.Worker) bool { return slices.Contains(SupervisorCargos, w.Cargo) }
	case PatternConductorOnly:
		keep = func(w models.Worker) bool { return w.Cargo == "Conductor" }
	default:
		return signatures
	}
	allowed := make(map[string]bool)
	for _, w := range snap.ActiveWorkers() {
		if w.SignatureID != "" && keep(w) {
			allowed[w.SignatureID] = true
		}
	}
	out := []models.Signature{}
	for _, s := range signatures {
		if allowed[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// FollowUp is implemented by adapters that derive more values when the user
// edits one of their fields.
type FollowUp interface {
	FieldChanged(fieldID string, value any, c Context) []Default
}

// ATSReviewerInfo is the ATS reviewer block: the inspector signs, and the
// title follows the worker who owns the chosen signature.
type ATSReviewerInfo struct {
	ReviewerInfo
}

func (ATSReviewerInfo) FieldChanged(fieldID string, value any, c Context) []Default {
	if fieldID != FieldFirmaInspector {
		return nil
	}
	id, _ := value.(string)
	cargo, ok := CargoForSignature(c.Roster, id)
	if !ok {
		return nil
	}
	return []Default{{FieldID: FieldInspectorCargo, Value: cargo}}
}

// CargoForSignature returns the title of the worker linked to signatureID.
func CargoForSignature(snap roster.Snapshot, signatureID string) (string, bool) {
	if signatureID == "" {
		return "", false
	}
	for _, w := range snap.Workers {
		if w.SignatureID == signatureID {
			return w.Cargo, true
		}
	}
	return "", false
}
