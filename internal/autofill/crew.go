package autofill

import (
	"strings"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
)

const (
	FieldEquipoElabora = "equipo_elabora"

	// CrewLeadCargo is the job title whose crew is filled in automatically.
	CrewLeadCargo = "Técnico electricista"
)

// CrewInfo fills the team that prepares an ATS with the members of the
// user's crew, joined by " - ". Only electricians get it; everyone else
// picks the crew by hand.
type CrewInfo struct{}

func (CrewInfo) Defaults(c Context) []Default {
	if c.User == nil {
		return nil
	}
	w, ok := c.Roster.WorkerByID(c.User.ID)
	if !ok || w.Cargo != CrewLeadCargo || w.CuadrillaID == "" {
		return nil
	}
	names, ok := CrewMembers(c, w.CuadrillaID)
	if !ok {
		return nil
	}
	return []Default{{FieldID: FieldEquipoElabora, Value: names}}
}

func (CrewInfo) Candidates(snap roster.Snapshot) []models.Cuadrilla {
	var out []models.Cuadrilla
	for _, cq := range snap.Cuadrillas {
		if cq.IsActive {
			out = append(out, cq)
		}
	}
	return out
}

// Select returns the write for a crew picked by hand. An empty id, or an
// unknown or inactive crew, blanks the team.
func (CrewInfo) Select(c Context, cuadrillaID string) []Default {
	names, _ := CrewMembers(c, cuadrillaID)
	return []Default{{FieldID: FieldEquipoElabora, Value: names}}
}

// CrewMembers returns the names of the active crew's members. Unknown
// worker ids are skipped.
func CrewMembers(c Context, cuadrillaID string) (string, bool) {
	for _, cq := range c.Roster.Cuadrillas {
		if cq.ID != cuadrillaID || !cq.IsActive {
			continue
		}
		names := make([]string, 0, len(cq.WorkerIDs))
		for _, id := range cq.WorkerIDs {
			if w, ok := c.Roster.WorkerByID(id); ok {
				names = append(names, w.Nombre)
			}
		}
		return strings.Join(names, " - "), true
	}
	return "", false
}
