package roster

import "AUTOFILL/internal/models"

// Snapshot is an immutable view of the roster. Loads replace it wholesale.
type Snapshot struct {
	Workers    []models.Worker    `json:"workers"`
	Cuadrillas []models.Cuadrilla `json:"cuadrillas"`
	Camionetas []models.Camioneta `json:"camionetas"`
	Gruas      []models.Grua      `json:"gruas"`
	Zonas      []models.Zona      `json:"zonas"`
	Users      []models.User      `json:"users"`
}

func (s Snapshot) WorkerByID(id string) (models.Worker, bool) {
	for _, w := range s.Workers {
		if w.ID == id {
			return w, true
		}
	}
	return models.Worker{}, false
}

// WorkerByName matches the exact display name of an active worker.
func (s Snapshot) WorkerByName(name string) (models.Worker, bool) {
	for _, w := range s.Workers {
		if w.IsActive && w.Nombre == name {
			return w, true
		}
	}
	return models.Worker{}, false
}

func (s Snapshot) UserByID(id string) (models.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s Snapshot) ActiveWorkers() []models.Worker {
	var out []models.Worker
	for _, w := range s.Workers {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out
}

func (s Snapshot) WorkersByCuadrilla(cuadrillaID string) []models.Worker {
	var out []models.Worker
	for _, w := range s.Workers {
		if w.CuadrillaID == cuadrillaID {
			out = append(out, w)
		}
	}
	return out
}
