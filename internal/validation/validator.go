// Package validation decides whether a wizard step may be left and whether a
// whole form may be submitted.
package validation

import (
	"fmt"

	"AUTOFILL/internal/models"
)

type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func Valid() Result { return Result{Valid: true} }

func Invalid(message string) Result { return Result{Message: message} }

// Validator holds per-section rules keyed by "<formatID>/<sectionID>".
// Sections without a rule fall back to their type: optional types pass,
// checklists need every radio, the rest need their required fields.
type Validator struct {
	rules map[string]Rule
}

func New() *Validator {
	return &Validator{rules: make(map[string]Rule)}
}

func (v *Validator) Register(formatID, sectionID string, r Rule) {
	v.rules[formatID+"/"+sectionID] = r
}

// Default returns a validator with the rules of the bundled formats.
func Default() *Validator {
	v := New()

	v.Register("inspeccion-vehiculo", "basic_info", AllFields("obs_"))
	v.Register("inspeccion-vehiculo", "checklist", AllRadios(""))
	v.Register("inspeccion-vehiculo", "observations", Optional())

	v.Register("permiso-trabajo", "fecha_diligenciamiento", AllFields())
	for _, id := range []string{"riesgo_otro_descripcion", "lugar_zona", "lugar_zona_trabajo", "evaluacion_riesgos", "cuadrilla_select"} {
		v.Register("permiso-trabajo", id, Optional())
	}
	v.Register("permiso-trabajo", "trabajadores", AnyOf("Debe haber al menos un trabajador seleccionado.",
		"trabajador1_nombre", "trabajador2_nombre", "trabajador3_nombre", "trabajador4_nombre"))
	v.Register("permiso-trabajo", "actividad_altura", AllFields())
	v.Register("permiso-trabajo", "periodo_validez", Field("turno_select", "Debe seleccionar un turno."))
	v.Register("permiso-trabajo", "preparacion_area", AllRadios("Debe marcar todos los ítems de preparación del área."))
	v.Register("permiso-trabajo", "sistema_acceso", AnyChecked("Debe marcar uno de los sistemas de acceso o escribir en Otro."))
	v.Register("permiso-trabajo", "epp", AnyChecked("Debe marcar al menos un elemento de EPP o especificar en Otro(s)."))
	v.Register("permiso-trabajo", "herramientas_observaciones", Field("herramientas", "Herramientas a utilizar es obligatorio."))
	v.Register("permiso-trabajo", "firmas_autorizacion", All(
		Field("firma_inspector", "Debe seleccionar la firma del Inspector."),
		Field("firma_plan_emergencia", "Debe seleccionar la firma de Activa Plan de Emergencia."),
	))

	v.Register("inspeccion-herramientas", "basic_info", AllFields())
	v.Register("inspeccion-herramientas", "checklist", AllRadios("Debe marcar todos los ítems."))
	v.Register("inspeccion-herramientas", "observations", Optional())

	v.Register("ats", "basic_info", AllFields())
	v.Register("ats", "herramientas", Field("herramientas", "Debe seleccionar al menos una herramienta."))
	v.Register("ats", "elaboro_info", AllFields())
	v.Register("ats", "reviso_aprobo", Field("inspector_nombre", "Debe seleccionar un inspector."))

	v.Register("inspeccion-grua", "basic_info", AllFields())
	for _, id := range []string{"checklist", "checklist_left", "checklist_right"} {
		v.Register("inspeccion-grua", id, AllRadios("Debe marcar todos los ítems."))
	}
	return v
}

// ValidateStep checks one section before the wizard moves past it.
func (v *Validator) ValidateStep(formatID string, section models.Section, data *models.SectionData) Result {
	if data == nil {
		return Invalid("Datos del paso no encontrados.")
	}
	if r, ok := v.rules[formatID+"/"+section.ID]; ok {
		return r(section, data)
	}
	switch {
	case section.Type.Optional():
		return Valid()
	case section.Type == models.SectionChecklist:
		return AllRadios("")(section, data)
	default:
		return RequiredFields()(section, data)
	}
}

// ValidateAll walks the wizard steps in order and reports the first failing
// one, prefixed with its 1-based position.
func (v *Validator) ValidateAll(format *models.ExcelFormat, data *models.FormData, steps []models.WizardStep) Result {
	if format == nil || data == nil {
		return Invalid("No hay formulario cargado.")
	}
	for i, step := range steps {
		sectionData, _ := data.SectionAt(step.SheetIndex, step.SectionIndex)
		if res := v.ValidateStep(format.ID, step.Section, sectionData); !res.Valid {
			return Invalid(fmt.Sprintf("Paso %d: %s", i+1, res.Message))
		}
	}
	return Valid()
}

// AllSignaturesSelected reports whether every signature field of every
// signatures section has a value. Worker lists are not considered.
func AllSignaturesSelected(format *models.ExcelFormat, data *models.FormData) bool {
	if format == nil {
		return true
	}
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			if section.Type != models.SectionSignatures {
				continue
			}
			sectionData, ok := data.SectionAt(i, j)
			if !ok {
				return false
			}
			for _, f := range section.Fields {
				if f.Type == models.FieldSignature && isEmpty(sectionData.Value(f.ID)) {
					return false
				}
			}
		}
	}
	return true
}
