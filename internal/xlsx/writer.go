package xlsx

import (
	"bytes"
	"fmt"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	ResultsSheet  = "Resultados"
	TemplateSheet = "Dados"
)

// ContentType is the MIME type of .xlsx files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EncodeResults writes classifications as a one-sheet workbook with a bold
// header row and the confidence column formatted as a percentage number.
func EncodeResults(items []core.Classification) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := core.ResultsHeader()
	if err := writeHeader(f, ResultsSheet, header); err != nil {
		return nil, err
	}

	for i, c := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{string(c.EmbryoID), c.PloidyStatus, c.ConfidenceScore}
		if err := f.SetSheetRow(ResultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(items) > 0 {
		numFmt := `0.00"%"`
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return nil, fmt.Errorf("confidence style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(3, len(items)+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(ResultsSheet, "C2", last, style); err != nil {
			return nil, fmt.Errorf("apply confidence style: %w", err)
		}
	}

	if err := f.SetColWidth(ResultsSheet, "A", "C", 24); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

// Template returns an empty workbook whose first row holds the column names
// of specs, ready to be filled in by the lab.
func Template(specs []schema.FieldSpec) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, TemplateSheet, schema.Headers(specs)); err != nil {
		return nil, err
	}

	// Numeric columns get a number format so pasted times stay numbers.
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}
	for i, spec := range specs {
		if spec.Type != schema.FieldNumeric {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColStyle(TemplateSheet, col, numStyle); err != nil {
			return nil, fmt.Errorf("style column %s: %w", col, err)
		}
	}

	return f.WriteToBuffer()
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
