// Package xlsx reads and writes Excel workbooks with excelize.
//
// Only the first worksheet of an uploaded workbook is read. Cells are
// decoded from their stored (raw) values so number formats applied in the
// spreadsheet tool do not change what the validator sees.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// Decoder implements core.Decoder for .xlsx files.
type Decoder struct{}

// NewDecoder returns a workbook decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode reads the first worksheet of the workbook in r into a grid.
func (d *Decoder) Decode(r io.Reader) (*core.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	g := &core.Grid{Rows: make([]core.Row, len(rows))}
	for r, raw := range rows {
		row := make(core.Row, len(raw))
		for c, value := range raw {
			cell, err := decodeCell(f, sheet, c+1, r+1, value)
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		g.Rows[r] = row
	}
	return g, nil
}

// decodeCell types a raw cell value. String cells stay text even when they
// look numeric; untyped and numeric cells become numbers when they parse.
func decodeCell(f *excelize.File, sheet string, col, row int, value string) (core.Cell, error) {
	if value == "" {
		return core.EmptyCell(), nil
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return core.Cell{}, err
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return core.Cell{}, fmt.Errorf("cell %s: %w", name, err)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return core.TextCell(value), nil
	case excelize.CellTypeBool:
		if value == "1" {
			return core.TextCell("TRUE"), nil
		}
		return core.TextCell("FALSE"), nil
	}

	if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return core.NumberCell(n), nil
	}
	return core.TextCell(value), nil
}
