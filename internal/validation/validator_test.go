package validation

import (
	"testing"

	"AUTOFILL/internal/models"

	"github.com/stretchr/testify/assert"
)

func section(id string, typ models.SectionType, fields ...models.Field) models.Section {
	return models.Section{ID: id, Type: typ, Fields: fields}
}

func data(kv ...any) *models.SectionData {
	d := &models.SectionData{}
	for i := 0; i+1 < len(kv); i += 2 {
		d.Fields = append(d.Fields, models.FieldData{FieldID: kv[i].(string), Value: kv[i+1], Completed: true})
	}
	return d
}

func TestValidateStep_MissingData(t *testing.T) {
	res := Default().ValidateStep("ats", section("basic_info", models.SectionBasicInfo), nil)
	assert.False(t, res.Valid)
	assert.Equal(t, "Datos del paso no encontrados.", res.Message)
}

func TestValidateStep_AllFieldsTrimsStrings(t *testing.T) {
	s := section("basic_info", models.SectionBasicInfo,
		models.Field{ID: "a", Label: "Empresa"},
		models.Field{ID: "b", Label: "Lugar"},
	)
	v := Default()

	res := v.ValidateStep("ats", s, data("a", "ACME", "b", "   "))
	assert.False(t, res.Valid)
	assert.Equal(t, `Complete el campo "Lugar".`, res.Message)

	assert.True(t, v.ValidateStep("ats", s, data("a", "ACME", "b", "Norte")).Valid)
}

func TestValidateStep_VehicleSkipsObservationFields(t *testing.T) {
	s := section("basic_info", models.SectionBasicInfo,
		models.Field{ID: "placa", Label: "Placa"},
		models.Field{ID: "obs_general", Label: "Obs", Type: models.FieldTextarea},
	)
	assert.True(t, Default().ValidateStep("inspeccion-vehiculo", s, data("placa", "ABC123")).Valid)
}

func TestValidateStep_Radios(t *testing.T) {
	s := section("checklist", models.SectionChecklist,
		models.Field{ID: "r1", Label: "Frenos", Type: models.FieldRadio},
		models.Field{ID: "r2", Label: "Luces", Type: models.FieldRadio},
		models.Field{ID: "note", Label: "Nota", Type: models.FieldText},
	)
	v := Default()

	assert.True(t, v.ValidateStep("inspeccion-herramientas", s, data("r1", "SI", "r2", "N/A")).Valid)

	res := v.ValidateStep("inspeccion-herramientas", s, data("r1", "SI", "r2", "tal vez"))
	assert.Equal(t, Invalid("Debe marcar todos los ítems."), res)

	// unregistered formats fall back to the section type and name the item
	res = v.ValidateStep("otro", s, data("r1", "NO"))
	assert.Equal(t, `Debe marcar todos los ítems. Falta: "Luces".`, res.Message)
}

func TestValidateStep_Checkboxes(t *testing.T) {
	s := section("epp", models.SectionChecklist,
		models.Field{ID: "casco", Type: models.FieldCheckbox},
		models.Field{ID: "otro", Type: models.FieldText},
	)
	v := Default()

	assert.False(t, v.ValidateStep("permiso-trabajo", s, data("casco", false)).Valid)
	assert.False(t, v.ValidateStep("permiso-trabajo", s, data("casco", "no")).Valid)
	for _, checked := range []any{true, "true", "X", 1, float64(1)} {
		assert.True(t, v.ValidateStep("permiso-trabajo", s, data("casco", checked)).Valid, "%v", checked)
	}
	assert.True(t, v.ValidateStep("permiso-trabajo", s, data("otro", "arnés")).Valid)
}

func TestValidateStep_WorkersNeedOne(t *testing.T) {
	s := section("trabajadores", models.SectionWorkerList)
	v := Default()

	assert.False(t, v.ValidateStep("permiso-trabajo", s, data("trabajador1_nombre", "")).Valid)
	assert.True(t, v.ValidateStep("permiso-trabajo", s, data("trabajador3_nombre", "Ana")).Valid)
}

func TestValidateStep_EmptySliceIsEmpty(t *testing.T) {
	s := section("herramientas", models.SectionTable)
	v := Default()

	assert.False(t, v.ValidateStep("ats", s, data("herramientas", []any{})).Valid)
	assert.True(t, v.ValidateStep("ats", s, data("herramientas", []any{"taladro"})).Valid)
}

func TestValidateStep_TypeFallbacks(t *testing.T) {
	v := New()
	assert.True(t, v.ValidateStep("x", section("obs", models.SectionObservations,
		models.Field{ID: "o", Required: true}), data()).Valid)

	s := section("info", models.SectionBasicInfo,
		models.Field{ID: "req", Label: "Req", Required: true},
		models.Field{ID: "opt", Label: "Opt"},
	)
	assert.False(t, v.ValidateStep("x", s, data("opt", "a")).Valid)
	assert.True(t, v.ValidateStep("x", s, data("req", 0)).Valid)
}

func TestValidateAll_PrefixesStep(t *testing.T) {
	format := &models.ExcelFormat{ID: "ats", Sheets: []models.SheetStructure{{
		Name: "ATS",
		Sections: []models.Section{
			section("basic_info", models.SectionBasicInfo, models.Field{ID: "a", Label: "A"}),
			section("reviso_aprobo", models.SectionSignatures, models.Field{ID: "inspector_nombre", Label: "Inspector"}),
		},
	}}}
	steps := []models.WizardStep{
		{Section: format.Sheets[0].Sections[0], SheetIndex: 0, SectionIndex: 0},
		{Section: format.Sheets[0].Sections[1], SheetIndex: 0, SectionIndex: 1},
	}
	fd := &models.FormData{Sheets: []models.SheetData{{Sections: []models.SectionData{*data("a", "x"), *data()}}}}

	res := Default().ValidateAll(format, fd, steps)
	assert.Equal(t, "Paso 2: Debe seleccionar un inspector.", res.Message)

	fd.Sheets[0].Sections[1] = *data("inspector_nombre", "Luis")
	assert.True(t, Default().ValidateAll(format, fd, steps).Valid)

	assert.False(t, Default().ValidateAll(format, nil, steps).Valid)
}

func TestAllSignaturesSelected(t *testing.T) {
	format := &models.ExcelFormat{Sheets: []models.SheetStructure{{Sections: []models.Section{
		section("workers", models.SectionWorkerList, models.Field{ID: "w_firma", Type: models.FieldSignature}),
		section("firmas", models.SectionSignatures,
			models.Field{ID: "firma_a", Type: models.FieldSignature},
			models.Field{ID: "nombre", Type: models.FieldText},
		),
	}}}}
	fd := &models.FormData{Sheets: []models.SheetData{{Sections: []models.SectionData{*data(), *data()}}}}

	assert.False(t, AllSignaturesSelected(format, fd))

	fd.Sheets[0].Sections[1] = *data("firma_a", "sig-1")
	assert.True(t, AllSignaturesSelected(format, fd))

	assert.False(t, AllSignaturesSelected(format, &models.FormData{}))
}
