package core

// results_table.go reads and writes the flat results table used for exports.
//
// The table has one header row followed by one row per embryo:
//
//	Embryo ID | Ploidy Status | Confidence Score (%)
//
// The same layout is written to .xlsx by the xlsx package and to CSV here.
// A previously exported file can be read back with ResultsFromGrid or
// ReadResultsCSV to recompute its summary.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Results table headers
const (
	ColumnEmbryoID   = "Embryo ID"
	ColumnPloidy     = "Ploidy Status"
	ColumnConfidence = "Confidence Score (%)"
)

// Portuguese labels written by earlier exports, accepted when reading back.
var resultsColumnAliases = map[string][]string{
	ColumnEmbryoID:   {"Número do Embrião"},
	ColumnPloidy:     {"Previsão de Ploidia"},
	ColumnConfidence: {"Probabilidade de Euploidia (%)", "Probibilidade de Euploidia (%)"},
}

// ResultsFileBase is the export file name without extension.
const ResultsFileBase = "embryo_ploidy_results"

// ErrNotResultsTable is returned when a grid lacks the results headers.
var ErrNotResultsTable = errors.New("invalid spreadsheet: not a results table")

// ResultsHeader returns the export header row.
func ResultsHeader() []string {
	return []string{ColumnEmbryoID, ColumnPloidy, ColumnConfidence}
}

// ResultRow renders one classification as export cells.
func ResultRow(c Classification) []string {
	return []string{
		string(c.EmbryoID),
		c.PloidyStatus,
		strconv.FormatFloat(c.ConfidenceScore, 'f', -1, 64),
	}
}

// WriteResultsCSV writes items as CSV, prefixed with a UTF-8 BOM so that
// spreadsheet tools detect the encoding.
func WriteResultsCSV(w io.Writer, items []Classification) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range items {
		if err := cw.Write(ResultRow(c)); err != nil {
			return fmt.Errorf("write row %s: %w", c.EmbryoID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResultsCSV parses a results table written by WriteResultsCSV or saved
// from a spreadsheet tool.
func ReadResultsCSV(r io.Reader) ([]Classification, error) {
	cr := csv.NewReader(NewTextReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	return ResultsFromGrid(NewGrid(rows...))
}

// ResultsFromGrid reads classifications from a results table. Columns are
// located by header label, so extra or reordered columns are fine. Rows with
// no embryo ID and no status are skipped.
func ResultsFromGrid(g *Grid) ([]Classification, error) {
	header := g.Header()
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeLabel(h)] = i
	}

	col := func(label string) (int, bool) {
		for _, l := range append([]string{label}, resultsColumnAliases[label]...) {
			if i, ok := idx[normalizeLabel(l)]; ok {
				return i, true
			}
		}
		return 0, false
	}
	idCol, ok1 := col(ColumnEmbryoID)
	statusCol, ok2 := col(ColumnPloidy)
	confCol, ok3 := col(ColumnConfidence)
	if !ok1 || !ok2 || !ok3 {
		return nil, ErrNotResultsTable
	}

	items := []Classification{}
	for i, row := range g.DataRows() {
		id := strings.TrimSpace(row.At(idCol).Value())
		status := strings.TrimSpace(row.At(statusCol).Value())
		if id == "" && status == "" {
			continue
		}

		conf := 0.0
		if cell := row.At(confCol); !cell.IsBlank() {
			raw := strings.TrimSuffix(strings.TrimSpace(cell.Value()), "%")
			f, ok := ParseNumber(raw)
			if !ok {
				return nil, fmt.Errorf("%w: row %d: confidence %q is not a number", ErrInvalidSpreadsheet, i+2, cell.Value())
			}
			conf = f
		}

		items = append(items, Classification{
			EmbryoID:        EmbryoID(id),
			PloidyStatus:    status,
			ConfidenceScore: conf,
		})
	}
	return items, nil
}
