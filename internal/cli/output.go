package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// encode writes v as JSON or YAML. Text output is command specific.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("encode: unsupported format %q", format)
	}
}

type defectReport struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Row     int      `json:"row,omitempty" yaml:"row,omitempty"`
	Column  string   `json:"column,omitempty" yaml:"column,omitempty"`
	Value   string   `json:"value,omitempty" yaml:"value,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Message string   `json:"message" yaml:"message"`
}

type validationReport struct {
	File     string         `json:"file" yaml:"file"`
	Accepted bool           `json:"accepted" yaml:"accepted"`
	Stage    string         `json:"stage" yaml:"stage"`
	Rows     int            `json:"rows" yaml:"rows"`
	Defects  []defectReport `json:"defects" yaml:"defects"`
}

type summaryReport struct {
	Total            int     `json:"total" yaml:"total"`
	Euploid          int     `json:"euploid" yaml:"euploid"`
	Aneuploid        int     `json:"aneuploid" yaml:"aneuploid"`
	Unknown          int     `json:"unknown" yaml:"unknown"`
	MeanConfidence   float64 `json:"meanConfidence" yaml:"mean_confidence"`
	MedianConfidence float64 `json:"medianConfidence" yaml:"median_confidence"`
}

type resultReport struct {
	EmbryoID   string  `json:"embryoId" yaml:"embryo_id"`
	Status     string  `json:"ploidyStatus" yaml:"ploidy_status"`
	Confidence float64 `json:"confidenceScore" yaml:"confidence_score"`
}

type resultsReport struct {
	File    string         `json:"file" yaml:"file"`
	Output  string         `json:"output,omitempty" yaml:"output,omitempty"`
	Summary summaryReport  `json:"summary" yaml:"summary"`
	Results []resultReport `json:"results,omitempty" yaml:"results,omitempty"`
}
