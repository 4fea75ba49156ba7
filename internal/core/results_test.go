package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizePloidy(t *testing.T) {
	tests := []struct {
		in   string
		want PloidyStatus
	}{
		{"Euploide", Euploid},
		{"Euplóide", Euploid},
		{"euploid", Euploid},
		{" Aneuploide ", Aneuploid},
		{"ANEUPLOID", Aneuploid},
		{"mosaic", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePloidy(tt.in); got != tt.want {
				t.Errorf("NormalizePloidy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassification_UnmarshalJSON(t *testing.T) {
	body := `{"results":[
		{"embryoId": 7, "ploidyStatus": "Euploide", "confidenceScore": 91.5},
		{"embryoId": "E-12", "ploidyStatus": "Aneuploide", "confidenceScore": 64},
		{"embryoId": null, "ploidyStatus": "Euploide", "confidenceScore": 50}
	]}`

	var payload struct {
		Results []Classification `json:"results"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	wantIDs := []EmbryoID{"7", "E-12", ""}
	if len(payload.Results) != len(wantIDs) {
		t.Fatalf("len(results) = %d, want %d", len(payload.Results), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got := payload.Results[i].EmbryoID; got != want {
			t.Errorf("results[%d].EmbryoID = %q, want %q", i, got, want)
		}
	}
	if got := payload.Results[0].ConfidenceLabel(); got != "91.5%" {
		t.Errorf("ConfidenceLabel() = %q, want %q", got, "91.5%")
	}
}

func TestEmbryoID_RejectsObjects(t *testing.T) {
	var c Classification
	if err := json.Unmarshal([]byte(`{"embryoId": {"a": 1}}`), &c); err == nil {
		t.Error("expected error for object embryo id")
	}
}

func TestSummarize(t *testing.T) {
	items := []Classification{
		{EmbryoID: "1", PloidyStatus: "Euploide", ConfidenceScore: 90},
		{EmbryoID: "2", PloidyStatus: "Aneuploide", ConfidenceScore: 70},
		{EmbryoID: "3", PloidyStatus: "Euploide", ConfidenceScore: 81.333},
		{EmbryoID: "4", PloidyStatus: "??", ConfidenceScore: 10},
	}

	s := Summarize(items)
	if s.Total != 4 || s.Euploid != 2 || s.Aneuploid != 1 || s.Unknown != 1 {
		t.Errorf("counts = %+v, want total 4, 2 euploid, 1 aneuploid, 1 unknown", s)
	}
	if s.MeanConfidence != 62.83 {
		t.Errorf("MeanConfidence = %v, want 62.83", s.MeanConfidence)
	}
	if s.MedianConfidence != 75.67 {
		t.Errorf("MedianConfidence = %v, want 75.67", s.MedianConfidence)
	}
}

func TestNewResults_EmptyItems(t *testing.T) {
	r := NewResults("sub-1", "dados.xlsx", nil, time.Second)

	if r.Items == nil {
		t.Error("Items = nil, want empty slice so JSON renders []")
	}
	if r.Summary.Total != 0 || r.Summary.MeanConfidence != 0 {
		t.Errorf("Summary = %+v, want zero", r.Summary)
	}
}
