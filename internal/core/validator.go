package core

// validator.go decides whether a decoded spreadsheet is well-formed.
//
// Validation happens in two stages:
//  1. Header validation: every required label must be present
//  2. Row validation: empty-dataset checks, then per-cell checks
//
// A header failure stops validation; row checks never run against a grid
// with missing columns. Row defects accumulate across the whole dataset and
// are then cut to MaxDefects. Records are only built for a clean grid.
//
// The validator holds no state between calls and is safe for concurrent use.

import (
	"math"
	"strconv"
	"strings"
)

// Validator checks grids against a fixed schema.
type Validator struct {
	schema Schema
	msgs   Messages
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMessages sets the defect wording.
func WithMessages(m Messages) ValidatorOption {
	return func(v *Validator) { v.msgs = m }
}

// NewValidator creates a validator for schema. Defects default to Portuguese.
func NewValidator(schema Schema, opts ...ValidatorOption) *Validator {
	v := &Validator{
		schema: schema.WithBlankCells(schema.BlankCells),
		msgs:   PortugueseMessages,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Schema returns a copy of the validator's schema.
func (v *Validator) Schema() Schema {
	return v.schema.WithBlankCells(v.schema.BlankCells)
}

// Validate runs header and row validation and builds records for a clean grid.
// Malformed data is reported through Result.Defects; the only error is
// ErrNilGrid.
func (v *Validator) Validate(g *Grid) (*Result, error) {
	if g == nil {
		return nil, ErrNilGrid
	}

	res := &Result{Stage: StageIdle}
	if len(g.Rows) == 0 {
		res.Defects = []Defect{{Kind: DefectEmptyDataset, Message: v.msgs.EmptyFile}}
		return res, nil
	}

	header := g.Header()
	res.Header = header

	res.Defects = v.ValidateHeader(header)
	res.Stage = StageHeaderChecked
	if len(res.Defects) > 0 {
		return res, nil
	}

	rows := g.DataRows()
	res.Defects = v.ValidateRows(rows, header)
	res.Stage = StageRowsChecked
	if len(res.Defects) > 0 {
		return res, nil
	}

	res.Records = ToRecords(rows, header)
	return res, nil
}

// ValidateHeader returns a single structural defect listing every required
// label that has no match in header, or nil when all are present.
// Unrequired header labels are ignored.
func (v *Validator) ValidateHeader(header []string) []Defect {
	present := labelSet(header)

	var missing []string
	for _, req := range v.schema.Required {
		if !present[normalizeLabel(req)] {
			missing = append(missing, req)
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return []Defect{{
		Kind:    DefectStructural,
		Missing: missing,
		Message: v.msgs.missingColumns(missing),
	}}
}

// ValidateRows checks data rows against the schema.
// An empty row set yields exactly one defect and no further checks. Otherwise
// the all-blank check and the per-cell checks both run, and the combined list
// is cut to MaxDefects.
func (v *Validator) ValidateRows(rows []Row, header []string) []Defect {
	if len(rows) == 0 {
		return []Defect{{Kind: DefectEmptyDataset, Message: v.msgs.NoDataRows}}
	}

	var defects []Defect

	allBlank := true
	for _, row := range rows {
		if !row.IsBlank() {
			allBlank = false
			break
		}
	}
	if allBlank {
		defects = append(defects, Defect{Kind: DefectEmptyDataset, Message: v.msgs.AllRowsEmpty})
	}

	numeric := make([]bool, len(header))
	required := make([]bool, len(header))
	for i, label := range header {
		numeric[i] = v.schema.IsNumeric(label)
		required[i] = v.schema.IsRequired(label)
	}

	for idx, row := range rows {
		fileRow := idx + 2
		for col, label := range header {
			cell := row.At(col)
			if cell.IsBlank() {
				if required[col] && v.schema.BlankCells == BlankCellsRejected {
					defects = append(defects, Defect{
						Kind:    DefectBlankCell,
						Row:     fileRow,
						Column:  label,
						Message: v.msgs.blankCell(label, fileRow),
					})
				}
				continue
			}
			if numeric[col] && !isNumeric(cell) {
				defects = append(defects, Defect{
					Kind:    DefectCellType,
					Row:     fileRow,
					Column:  label,
					Value:   cell.Text,
					Message: v.msgs.notANumber(fileRow, label, cell.Text),
				})
			}
		}
	}

	if v.schema.BlankCells == BlankCellsRejected {
		defects = append(defects, v.partialRows(rows, required)...)
	}

	return truncateDefects(defects)
}

// partialRows flags rows that mix filled and blank required cells.
func (v *Validator) partialRows(rows []Row, required []bool) []Defect {
	var defects []Defect
	for idx, row := range rows {
		filled, blank := false, false
		for col, req := range required {
			if !req {
				continue
			}
			if row.At(col).IsBlank() {
				blank = true
			} else {
				filled = true
			}
		}
		if filled && blank {
			fileRow := idx + 2
			defects = append(defects, Defect{
				Kind:    DefectBlankCell,
				Row:     fileRow,
				Message: v.msgs.partialRow(fileRow),
			})
		}
	}
	return defects
}

// ToRecords zips each data row against header by position.
// Missing trailing cells become empty values; cells beyond the header are dropped.
func ToRecords(rows []Row, header []string) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(header))
		for col, label := range header {
			rec[col] = Field{Label: label, Value: row.At(col).Value()}
		}
		records[i] = rec
	}
	return records
}

// isNumeric reports whether a present cell holds a number.
func isNumeric(c Cell) bool {
	if c.Kind == CellNumber {
		return !math.IsNaN(c.Number) && !math.IsInf(c.Number, 0)
	}
	_, ok := ParseNumber(c.Text)
	return ok
}

// ParseNumber parses a finite decimal number the way a spreadsheet user
// writes it. Surrounding whitespace is ignored. Comma decimal separators,
// hexadecimal, NaN, infinities and values outside float64 range are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
