package xlsx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook builds an in-memory .xlsx whose first sheet holds rows.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecoder_TypedCells(t *testing.T) {
	data := workbook(t,
		[]interface{}{"Idade", "Morfo", "t2", "t3"},
		[]interface{}{34, "AA", 25.1, "36.5"},
		[]interface{}{35, "BB", nil, "abc"},
	)

	g, err := NewDecoder().Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, g.Rows, 3)

	assert.Equal(t, []string{"Idade", "Morfo", "t2", "t3"}, g.Header())

	row := g.Rows[1]
	assert.Equal(t, core.CellNumber, row.At(0).Kind)
	assert.Equal(t, "34", row.At(0).Text)
	assert.Equal(t, core.CellString, row.At(1).Kind)
	assert.Equal(t, core.CellNumber, row.At(2).Kind)
	assert.InDelta(t, 25.1, row.At(2).Number, 1e-9)
	assert.Equal(t, core.CellString, row.At(3).Kind, "numeric-looking text stays text")
	assert.Equal(t, "36.5", row.At(3).Text)

	assert.True(t, g.Rows[2].At(2).IsBlank())
	assert.Equal(t, "abc", g.Rows[2].At(3).Text)
}

func TestDecoder_OnlyFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(first, "A1", "primeira"))
	_, err := f.NewSheet("Outra")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Outra", "A1", "segunda"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	g, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"primeira"}, g.Header())
}

func TestDecoder_InvalidWorkbook(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader("Idade,Morfo\n34,AA\n"))
	assert.Error(t, err)
}

func TestDecoder_ValidatesEndToEnd(t *testing.T) {
	header := make([]interface{}, 0, len(schema.MorphokineticFieldSpecs))
	row := make([]interface{}, 0, len(schema.MorphokineticFieldSpecs))
	for i, spec := range schema.MorphokineticFieldSpecs {
		header = append(header, spec.Name)
		if spec.Type == schema.FieldNumeric {
			row = append(row, 20.0+float64(i))
		} else {
			row = append(row, "x")
		}
	}
	bad := append([]interface{}{}, row...)
	bad[4] = "abc" // t3

	g, err := NewDecoder().Decode(bytes.NewReader(workbook(t, header, row, bad)))
	require.NoError(t, err)

	res, err := core.NewValidator(schema.Morphokinetic()).Validate(g)
	require.NoError(t, err)
	require.Len(t, res.Defects, 1)
	assert.Equal(t, 3, res.Defects[0].Row)
	assert.Equal(t, "t3", res.Defects[0].Column)
	assert.Equal(t, "abc", res.Defects[0].Value)
}

func TestEncodeResults(t *testing.T) {
	items := []core.Classification{
		{EmbryoID: "1", PloidyStatus: "Euploide", ConfidenceScore: 91.5},
		{EmbryoID: "E-2", PloidyStatus: "Aneuploide", ConfidenceScore: 64},
	}

	buf, err := EncodeResults(items)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, ResultsSheet, f.GetSheetName(0))

	rows, err := f.GetRows(ResultsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.ResultsHeader(), rows[0])
	assert.Equal(t, []string{"E-2", "Aneuploide", "64"}, rows[2])

	styleID, err := f.GetCellStyle(ResultsSheet, "C2")
	require.NoError(t, err)
	assert.NotZero(t, styleID, "confidence cells carry a number format")
}

func TestEncodeResults_ReadBack(t *testing.T) {
	items := []core.Classification{
		{EmbryoID: "7", PloidyStatus: "Euploide", ConfidenceScore: 80.25},
	}

	buf, err := EncodeResults(items)
	require.NoError(t, err)

	g, err := NewDecoder().Decode(buf)
	require.NoError(t, err)

	got, err := core.ResultsFromGrid(g)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestTemplate(t *testing.T) {
	buf, err := Template(schema.MorphokineticFieldSpecs)
	require.NoError(t, err)

	g, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Len(t, g.Rows, 1)
	assert.Equal(t, schema.Headers(schema.MorphokineticFieldSpecs), g.Header())

	res, err := core.NewValidator(schema.Morphokinetic()).Validate(g)
	require.NoError(t, err)
	require.Len(t, res.Defects, 1, "template carries no data rows")
	assert.Equal(t, core.DefectEmptyDataset, res.Defects[0].Kind)
}
