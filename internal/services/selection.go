package services

import (
	"fmt"

	"AUTOFILL/internal/autofill"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
)

// sectionOf resolves a section of the session's selected format.
func (m *SessionManager) sectionOf(s *Session, sheetIndex, sectionIndex int) (*models.ExcelFormat, *models.Section, error) {
	format := s.Store.SelectedFormat()
	if format == nil {
		return nil, nil, formstate.ErrNoForm
	}
	section, ok := format.SectionAt(sheetIndex, sectionIndex)
	if !ok {
		return nil, nil, formstate.ErrInvalidIndex
	}
	return format, section, nil
}

func (m *SessionManager) write(s *Session, sheetIndex, sectionIndex int, ds []autofill.Default) error {
	for _, d := range ds {
		if err := s.Store.TryUpdateFieldValue(sheetIndex, sectionIndex, d.FieldID, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// UpdateField stores one value, then lets the section's adapter derive the
// fields that follow from it.
func (m *SessionManager) UpdateField(id string, sheetIndex, sectionIndex int, fieldID string, value any) (*models.SectionData, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.Store.TryUpdateFieldValue(sheetIndex, sectionIndex, fieldID, value); err != nil {
		return nil, err
	}
	if format, section, err := m.sectionOf(s, sheetIndex, sectionIndex); err == nil {
		m.adapters.FieldChanged(s.Store, format.ID, sheetIndex, sectionIndex, *section, fieldID, value, m.autofillContext(s, sheetIndex, sectionIndex))
	}
	data, _ := s.Store.CurrentFormData().SectionAt(sheetIndex, sectionIndex)
	return data, nil
}

// Display returns the live values shown for a section, nil when its adapter
// has none.
func (m *SessionManager) Display(s *Session, sheetIndex, sectionIndex int) map[string]string {
	format, section, err := m.sectionOf(s, sheetIndex, sectionIndex)
	if err != nil {
		return nil
	}
	return m.adapters.Display(format.ID, *section, m.autofillContext(s, sheetIndex, sectionIndex))
}

// Vehicles lists the active pickups and the one already in the section.
func (m *SessionManager) Vehicles(id string, sheetIndex, sectionIndex int) ([]models.Camioneta, string, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	candidates := autofill.VehicleInfo{}.Candidates(m.roster.Current())
	var selected string
	if data := s.Store.CurrentFormData(); data != nil {
		section, _ := data.SectionAt(sheetIndex, sectionIndex)
		selected, _ = autofill.VehicleInfo{}.Preselect(section, candidates)
	}
	return candidates, selected, nil
}

// SelectVehicle writes the pickup's details. An empty vehicleID clears them.
func (m *SessionManager) SelectVehicle(id string, sheetIndex, sectionIndex int, vehicleID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	var chosen *models.Camioneta
	if vehicleID != "" {
		for _, v := range (autofill.VehicleInfo{}).Candidates(m.roster.Current()) {
			if v.ID == vehicleID {
				chosen = &v
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("%w: vehicle %s", formstate.ErrNotFound, vehicleID)
		}
	}
	return m.write(s, sheetIndex, sectionIndex, autofill.VehicleInfo{}.Select(chosen))
}

func (m *SessionManager) Cranes(id string, sheetIndex, sectionIndex int) ([]models.Grua, string, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	candidates := autofill.CraneInfo{}.Candidates(m.roster.Current())
	var selected string
	if data := s.Store.CurrentFormData(); data != nil {
		section, _ := data.SectionAt(sheetIndex, sectionIndex)
		selected, _ = autofill.CraneInfo{}.Preselect(section, candidates)
	}
	return candidates, selected, nil
}

func (m *SessionManager) SelectCrane(id string, sheetIndex, sectionIndex int, craneID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	var chosen *models.Grua
	if craneID != "" {
		for _, g := range (autofill.CraneInfo{}).Candidates(m.roster.Current()) {
			if g.ID == craneID {
				chosen = &g
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("%w: crane %s", formstate.ErrNotFound, craneID)
		}
	}
	return m.write(s, sheetIndex, sectionIndex, autofill.CraneInfo{}.Select(chosen))
}

func (m *SessionManager) Crews() []models.Cuadrilla {
	return autofill.CrewInfo{}.Candidates(m.roster.Current())
}

// SelectCrew fills a section from a crew. Worker lists get one slot per
// member; any other section gets the members' names in the team field. An
// empty crewID clears.
func (m *SessionManager) SelectCrew(id string, sheetIndex, sectionIndex int, crewID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	_, section, err := m.sectionOf(s, sheetIndex, sectionIndex)
	if err != nil {
		return err
	}
	snap := m.roster.Current()
	if crewID != "" {
		found := false
		for _, cq := range (autofill.CrewInfo{}).Candidates(snap) {
			if cq.ID == crewID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: crew %s", formstate.ErrNotFound, crewID)
		}
	}
	var writes []autofill.Default
	if section.Type == models.SectionWorkerList {
		writes = autofill.WorkerList{}.SelectCrew(snap, crewID, m.library.Signatures())
	} else {
		writes = autofill.CrewInfo{}.Select(m.autofillContext(s, sheetIndex, sectionIndex), crewID)
	}
	return m.write(s, sheetIndex, sectionIndex, writes)
}

// SelectWorker puts one active worker in a slot of a worker list, numbered
// from 1. An empty workerID clears the slot.
func (m *SessionManager) SelectWorker(id string, sheetIndex, sectionIndex, slot int, workerID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if slot < 1 || slot > autofill.WorkerSlots {
		return fmt.Errorf("%w: worker slot %d", formstate.ErrInvalidIndex, slot)
	}
	if _, _, err := m.sectionOf(s, sheetIndex, sectionIndex); err != nil {
		return err
	}
	var chosen *models.Worker
	if workerID != "" {
		w, ok := m.roster.Current().WorkerByID(workerID)
		if !ok || !w.IsActive {
			return fmt.Errorf("%w: worker %s", formstate.ErrNotFound, workerID)
		}
		chosen = &w
	}
	return m.write(s, sheetIndex, sectionIndex, autofill.WorkerList{}.SelectWorker(slot, chosen, m.library.Signatures()))
}

// SignatureOptions lists the signatures a signature field offers.
func (m *SessionManager) SignatureOptions(id string, sheetIndex, sectionIndex int, fieldID string) ([]models.Signature, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	_, section, err := m.sectionOf(s, sheetIndex, sectionIndex)
	if err != nil {
		return nil, err
	}
	for _, f := range section.Fields {
		if f.ID == fieldID {
			return autofill.SignatureOptions(f, m.roster.Current(), m.library.Signatures()), nil
		}
	}
	return nil, fmt.Errorf("%w: field %s", formstate.ErrNotFound, fieldID)
}
