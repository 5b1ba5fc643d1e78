package allocation

import "strings"

// Campos de clasificación de la orden.
const (
	FieldBusinessUnit     = "business_unit"
	FieldBusinessCategory = "business_category"
	FieldProject          = "project"
	FieldClient           = "client"
	FieldBrand            = "brand"
	FieldMedium           = "medium"
	FieldProgram          = "program_name"
)

// dependents campos que deben volver a elegirse cuando cambia el campo del que dependen.
var dependents = map[string][]string{
	FieldBusinessUnit: {FieldBusinessCategory, FieldProject},
	FieldClient:       {FieldBrand},
	FieldMedium:       {FieldProgram},
}

// projectUnits unidades de negocio que se clasifican por proyecto y no por categoría.
var projectUnits = map[string]bool{
	"proyectos":  true,
	"experience": true,
}

// FieldsToReset devuelve los campos dependientes a limpiar al cambiar field de oldValue a newValue.
// Si el valor no cambia no hay nada que limpiar.
func FieldsToReset(field, oldValue, newValue string) []string {
	if strings.TrimSpace(oldValue) == strings.TrimSpace(newValue) {
		return nil
	}
	deps := dependents[field]
	if len(deps) == 0 {
		return nil
	}
	return append([]string(nil), deps...)
}

// Applicable qué campo de clasificación aplica para una unidad de negocio.
type Applicable struct {
	BusinessCategory bool
	Project          bool
}

// ApplicableFields indica si la unidad de negocio usa categoría de negocio o proyecto.
func ApplicableFields(businessUnit string) Applicable {
	unit := strings.ToLower(strings.TrimSpace(businessUnit))
	if unit == "" {
		return Applicable{}
	}
	if projectUnits[unit] {
		return Applicable{Project: true}
	}
	return Applicable{BusinessCategory: true}
}
