package schema

import "github.com/JonMunkholm/ploidy/internal/core"

// FieldType is the value kind a column must hold.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumeric FieldType = "numeric"
)

// FieldSpec describes one expected spreadsheet column.
type FieldSpec struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
}

// MorphokineticFieldSpecs defines the expected columns of a time-lapse
// embryo dataset, in template order. Times are hours post insemination.
var MorphokineticFieldSpecs = []FieldSpec{
	{Name: "Idade", Type: FieldText, Required: true, Description: "Idade da paciente"},
	{Name: "Estágio", Type: FieldText, Required: true, Description: "Estágio do embrião"},
	{Name: "Morfo", Type: FieldText, Required: true, Description: "Classificação morfológica"},
	{Name: "t2", Type: FieldNumeric, Required: true, Description: "Divisão em 2 células"},
	{Name: "t3", Type: FieldNumeric, Required: true, Description: "Divisão em 3 células"},
	{Name: "t4", Type: FieldNumeric, Required: true, Description: "Divisão em 4 células"},
	{Name: "t5", Type: FieldNumeric, Required: true, Description: "Divisão em 5 células"},
	{Name: "t8", Type: FieldNumeric, Required: true, Description: "Divisão em 8 células"},
	{Name: "tSC", Type: FieldNumeric, Required: true, Description: "Início da compactação"},
	{Name: "tSB", Type: FieldNumeric, Required: true, Description: "Início da blastulação"},
	{Name: "tB", Type: FieldNumeric, Required: true, Description: "Blastocisto completo"},
	{Name: "cc2 (t3-t2)", Type: FieldText, Required: true, Description: "Segundo ciclo celular"},
	{Name: "cc3 (t5-t3)", Type: FieldText, Required: true, Description: "Terceiro ciclo celular"},
	{Name: "t5-t2", Type: FieldText, Required: true},
	{Name: "s2 (t4-t3)", Type: FieldText, Required: true, Description: "Sincronia da segunda divisão"},
	{Name: "s3 (t8-t5)", Type: FieldText, Required: true, Description: "Sincronia da terceira divisão"},
	{Name: "tSC-t8", Type: FieldText, Required: true},
	{Name: "tB-tSB", Type: FieldText, Required: true},
}

// Morphokinetic returns the validation schema built from
// MorphokineticFieldSpecs with blank cells allowed.
func Morphokinetic() core.Schema {
	return FromFieldSpecs(MorphokineticFieldSpecs)
}

// FromFieldSpecs builds a core.Schema from column specs.
func FromFieldSpecs(specs []FieldSpec) core.Schema {
	var s core.Schema
	for _, f := range specs {
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
		if f.Type == FieldNumeric {
			s.Numeric = append(s.Numeric, f.Name)
		}
	}
	return s
}

// Headers returns the column names in template order.
func Headers(specs []FieldSpec) []string {
	out := make([]string, len(specs))
	for i, f := range specs {
		out[i] = f.Name
	}
	return out
}
