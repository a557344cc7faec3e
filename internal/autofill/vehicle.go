package autofill

import (
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
)

// Field ids of the vehicle inspection header.
const (
	FieldVehicleRealizadoPor = "basic_A5"
	FieldVehicleCargo        = "basic_A6"
	FieldVehicleFecha        = "basic_F6"

	FieldVehicleMarca  = "basic_A7"
	FieldVehicleLinea  = "basic_D7"
	FieldVehiclePlaca  = "basic_F7"
	FieldVehicleModelo = "basic_J7"
)

// Field ids of the crane inspection header.
const (
	FieldCraneRealizadoPor = "basic_A6"
	FieldCraneCargo        = "basic_A7"
	FieldCraneFecha        = "basic_P7"

	FieldCranePlaca  = "basic_H7"
	FieldCraneMarca  = "basic_I6"
	FieldCraneModelo = "basic_I7"
	FieldCraneLinea  = "basic_P6"
)

// VehicleInfo fills the header of the pickup inspection. The inspector comes
// from the identified user; the pickup is picked with Select.
type VehicleInfo struct{}

func (VehicleInfo) Defaults(c Context) []Default {
	return userBlock(c, FieldVehicleRealizadoPor, FieldVehicleCargo, FieldVehicleFecha)
}

func (VehicleInfo) Candidates(snap roster.Snapshot) []models.Camioneta {
	var out []models.Camioneta
	for _, v := range snap.Camionetas {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out
}

// Select returns the writes for choosing v. A nil pickup blanks the four
// vehicle fields.
func (VehicleInfo) Select(v *models.Camioneta) []Default {
	if v == nil {
		v = &models.Camioneta{}
	}
	return []Default{
		{FieldID: FieldVehicleMarca, Value: v.Marca},
		{FieldID: FieldVehicleLinea, Value: v.Linea},
		{FieldID: FieldVehiclePlaca, Value: v.Placa},
		{FieldID: FieldVehicleModelo, Value: v.Modelo},
	}
}

// Preselect finds the candidate whose plate is already stored.
func (VehicleInfo) Preselect(section *models.SectionData, candidates []models.Camioneta) (string, bool) {
	placa, _ := section.Value(FieldVehiclePlaca).(string)
	if placa == "" {
		return "", false
	}
	for _, v := range candidates {
		if v.Placa == placa {
			return v.ID, true
		}
	}
	return "", false
}

// CraneInfo fills the header of the crane inspection.
type CraneInfo struct{}

func (CraneInfo) Defaults(c Context) []Default {
	return userBlock(c, FieldCraneRealizadoPor, FieldCraneCargo, FieldCraneFecha)
}

func (CraneInfo) Candidates(snap roster.Snapshot) []models.Grua {
	var out []models.Grua
	for _, g := range snap.Gruas {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out
}

// Select returns the writes for choosing g. A nil crane blanks them.
func (CraneInfo) Select(g *models.Grua) []Default {
	if g == nil {
		g = &models.Grua{}
	}
	return []Default{
		{FieldID: FieldCranePlaca, Value: g.Placa},
		{FieldID: FieldCraneMarca, Value: g.Marca},
		{FieldID: FieldCraneModelo, Value: g.Modelo},
		{FieldID: FieldCraneLinea, Value: g.Linea},
	}
}

func (CraneInfo) Preselect(section *models.SectionData, candidates []models.Grua) (string, bool) {
	placa, _ := section.Value(FieldCranePlaca).(string)
	if placa == "" {
		return "", false
	}
	for _, g := range candidates {
		if g.Placa == placa {
			return g.ID, true
		}
	}
	return "", false
}

// userBlock writes the ISO date, then the user's name and title. The title
// comes from the roster entry with the user's id, else the one with the
// user's name.
func userBlock(c Context, nombreField, cargoField, fechaField string) []Default {
	out := []Default{{FieldID: fechaField, Value: ColombiaISODate(c.Now)}}
	if c.User == nil {
		return out
	}
	out = append(out, Default{FieldID: nombreField, Value: c.User.Nombre})
	w, ok := c.Roster.WorkerByID(c.User.ID)
	if !ok {
		w, ok = c.Roster.WorkerByName(c.User.Nombre)
	}
	if ok && w.Cargo != "" {
		out = append(out, Default{FieldID: cargoField, Value: w.Cargo})
	}
	return out
}
