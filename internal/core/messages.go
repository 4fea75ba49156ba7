package core

import (
	"fmt"
	"strings"
)

// Messages is the wording used for validation defects.
// Format strings take their arguments in the order documented per field.
type Messages struct {
	EmptyFile      string
	MissingColumns string // Prefix; missing labels are appended after ": "
	NoDataRows     string
	AllRowsEmpty   string
	NotANumber     string // row, column, value
	BlankCell      string // column, row
	PartialRow     string // row
}

// PortugueseMessages is the default catalog.
var PortugueseMessages = Messages{
	EmptyFile:      "O arquivo está vazio.",
	MissingColumns: "Faltando as colunas obrigatórias",
	NoDataRows:     "Nenhuma linha de dados encontrada no arquivo.",
	AllRowsEmpty:   "Todas as linhas de dados estão vazias.",
	NotANumber:     "Linha %d: %q deveria ser um número, recebido %q",
	BlankCell:      "A célula da coluna %q na linha %d está vazia.",
	PartialRow:     "A linha %d contém campos em branco. A planilha não pode conter valores em branco.",
}

// EnglishMessages is the alternative catalog.
var EnglishMessages = Messages{
	EmptyFile:      "The file is empty.",
	MissingColumns: "Missing required columns",
	NoDataRows:     "No data rows found in the file.",
	AllRowsEmpty:   "All data rows appear to be empty.",
	NotANumber:     "Row %d: %q should be a number, got %q",
	BlankCell:      "The cell in column %q on row %d is empty.",
	PartialRow:     "Row %d has blank fields. The spreadsheet cannot contain blank values.",
}

// MessagesFor returns the catalog for a locale tag such as "pt-BR" or "en".
// Unknown tags fall back to Portuguese.
func MessagesFor(locale string) Messages {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en-gb", "english":
		return EnglishMessages
	default:
		return PortugueseMessages
	}
}

// Locales lists the accepted locale tags.
func Locales() []string {
	return []string{"pt-BR", "en"}
}

// IsLocale reports whether locale names a catalog in Locales, ignoring case
// and surrounding space.
func IsLocale(locale string) bool {
	for _, l := range Locales() {
		if strings.EqualFold(l, strings.TrimSpace(locale)) {
			return true
		}
	}
	return false
}

func (m Messages) missingColumns(labels []string) string {
	return m.MissingColumns + ": " + strings.Join(labels, ", ")
}

func (m Messages) notANumber(fileRow int, column, value string) string {
	return fmt.Sprintf(m.NotANumber, fileRow, column, value)
}

func (m Messages) blankCell(column string, fileRow int) string {
	return fmt.Sprintf(m.BlankCell, column, fileRow)
}

func (m Messages) partialRow(fileRow int) string {
	return fmt.Sprintf(m.PartialRow, fileRow)
}
