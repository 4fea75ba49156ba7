package core

import (
	"fmt"
	"reflect"
	"testing"
)

func makeRecords(rows, cols int) []Record {
	records := make([]Record, rows)
	for r := range records {
		rec := make(Record, cols)
		for c := range rec {
			rec[c] = Field{Label: fmt.Sprintf("c%d", c), Value: fmt.Sprintf("r%dc%d", r, c)}
		}
		records[r] = rec
	}
	return records
}

func TestBuildPreview(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		wantCols   int
		wantHidden int
		wantRows   int
		truncated  bool
	}{
		{"no records", 0, 0, 0, 0, 0, false},
		{"small dataset shown whole", 3, 4, 4, 0, 3, false},
		{"wide dataset capped", 2, 18, 8, 10, 2, false},
		{"long dataset capped", 12, 5, 5, 0, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPreview(makeRecords(tt.rows, tt.cols))

			if len(p.Columns) != tt.wantCols {
				t.Errorf("len(Columns) = %d, want %d", len(p.Columns), tt.wantCols)
			}
			if p.HiddenColumns != tt.wantHidden {
				t.Errorf("HiddenColumns = %d, want %d", p.HiddenColumns, tt.wantHidden)
			}
			if len(p.Rows) != tt.wantRows {
				t.Errorf("len(Rows) = %d, want %d", len(p.Rows), tt.wantRows)
			}
			if p.TotalRows != tt.rows {
				t.Errorf("TotalRows = %d, want %d", p.TotalRows, tt.rows)
			}
			if p.Truncated() != tt.truncated {
				t.Errorf("Truncated() = %v, want %v", p.Truncated(), tt.truncated)
			}
		})
	}
}

func TestBuildPreview_BlankValues(t *testing.T) {
	records := []Record{{{Label: "Idade", Value: "34"}, {Label: "Morfo", Value: ""}}}

	p := BuildPreview(records)
	want := [][]string{{"34", "-"}}
	if !reflect.DeepEqual(p.Rows, want) {
		t.Errorf("Rows = %v, want %v", p.Rows, want)
	}
}
