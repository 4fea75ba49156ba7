package core

// grid.go defines the tabular intake structure handed to the validator.
//
// A Grid is the decoded form of a spreadsheet: row 0 holds the header labels,
// every following row holds data. Rows may be ragged; a row shorter than the
// header simply has absent trailing cells.

import (
	"strconv"
	"strings"
)

// CellKind identifies what a spreadsheet cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// Cell is a single spreadsheet value.
// Text always carries the value as it appeared in the file, so that defect
// messages and records can reproduce it without coercion.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64 // Only meaningful when Kind is CellNumber
}

// EmptyCell returns an absent cell.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellString, Text: s} }

// NumberCell returns a numeric cell. Text is the shortest decimal form of n.
func NumberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Text: strconv.FormatFloat(n, 'f', -1, 64), Number: n}
}

// IsBlank reports whether the cell is absent or holds only whitespace.
func (c Cell) IsBlank() bool {
	return c.Kind == CellEmpty || strings.TrimSpace(c.Text) == ""
}

// Value returns the textual value of the cell, "" for absent cells.
func (c Cell) Value() string {
	if c.Kind == CellEmpty {
		return ""
	}
	return c.Text
}

// Row is an ordered sequence of cells.
type Row []Cell

// At returns the cell at position i, or an empty cell when the row is short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return EmptyCell()
	}
	return r[i]
}

// IsBlank reports whether every cell in the row is blank.
// A row with no cells at all is blank.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Grid is a decoded spreadsheet: Rows[0] is the header row.
type Grid struct {
	Rows []Row
}

// NewGrid builds a grid from string rows. Empty strings become absent cells.
// Mostly useful for tests and for CSV-like sources that carry no cell types.
func NewGrid(rows ...[]string) *Grid {
	g := &Grid{Rows: make([]Row, len(rows))}
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, s := range raw {
			if s == "" {
				row[j] = EmptyCell()
			} else {
				row[j] = TextCell(s)
			}
		}
		g.Rows[i] = row
	}
	return g
}

// Header returns the header labels, or nil if the grid has no rows.
func (g *Grid) Header() []string {
	if g == nil || len(g.Rows) == 0 {
		return nil
	}
	labels := make([]string, len(g.Rows[0]))
	for i, c := range g.Rows[0] {
		labels[i] = c.Value()
	}
	return labels
}

// DataRows returns every row after the header.
func (g *Grid) DataRows() []Row {
	if g == nil || len(g.Rows) < 2 {
		return nil
	}
	return g.Rows[1:]
}

// Field is one (label, value) pair of a record.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is one data row zipped against the header, in header order.
type Record []Field

// Labels returns the record's labels in order.
func (r Record) Labels() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Label
	}
	return out
}

// Values returns the record's values in order.
func (r Record) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}
