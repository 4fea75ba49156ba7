package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ploidy/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout(t *testing.T) {
	body := render(t, ErrorPage("Falhou", "", ""))

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Erro | "+AppTitle+"</title>")
	assert.Contains(t, body, "<main><div class=\"alert alert-error\"")
	assert.Contains(t, body, `href="/">Carregar outro arquivo</a>`)
}

func TestErrorAlert(t *testing.T) {
	body := render(t, ErrorAlert("O arquivo está vazio.", "Carregue outra planilha", "FILE005"))
	assert.Contains(t, body, "(Código: FILE005)")
	assert.Contains(t, body, `<p class="alert-action">Carregue outra planilha</p>`)

	body = render(t, ErrorAlert("<b>x</b>", "", ""))
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, body, "Código")
	assert.NotContains(t, body, "alert-action")
}

func TestUploadPage(t *testing.T) {
	body := render(t, UploadPage(UploadPageData{
		Headers:     []string{"Idade", "t2"},
		MaxFileSize: "10 MB",
		Alert:       &Alert{Message: "Por favor, carregue um arquivo XLSX apenas.", Code: "FILE003"},
	}))

	assert.Contains(t, body, "<li>Idade</li><li>t2</li>")
	assert.Contains(t, body, "(máximo 10 MB)")
	assert.Contains(t, body, "FILE003")
}

func TestReviewPage(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		body := render(t, ReviewPage(ReviewPageData{
			FileName: "dados.xlsx",
			Result: &core.Result{
				Stage:   core.StageRowsChecked,
				Defects: []core.Defect{{Kind: core.DefectCellType, Message: `Linha 2: "t3" deveria ser um número`}},
			},
		}))
		assert.Contains(t, body, "<li>Linha 2: &#34;t3&#34; deveria ser um número</li>")
		assert.NotContains(t, body, `name="file_data"`)
	})

	t.Run("accepted", func(t *testing.T) {
		body := render(t, ReviewPage(ReviewPageData{
			SubmissionID: "abc",
			FileName:     "dados.xlsx",
			Result:       &core.Result{Stage: core.StageRowsChecked},
			Preview: &core.Preview{
				Columns:       []string{"Idade", "t2"},
				HiddenColumns: 3,
				Rows:          [][]string{{"34", "-"}},
				TotalRows:     7,
			},
			Encoded: `a"b`,
		}))
		assert.Contains(t, body, "<th>Idade</th><th>t2</th><th class=\"muted\">+3 colunas</th>")
		assert.Contains(t, body, "<td>34</td><td>-</td>")
		assert.Contains(t, body, "1 de 7 linhas")
		assert.Contains(t, body, `name="file_data" value="a&#34;b"`)
	})
}

func TestResultsPage(t *testing.T) {
	results := core.NewResults("abc", "dados.xlsx", []core.Classification{
		{EmbryoID: "7", PloidyStatus: "Euploide", ConfidenceScore: 91.5},
		{EmbryoID: "8", PloidyStatus: "Aneuploide", ConfidenceScore: 60},
	}, 0)

	body := render(t, ResultsPage(ResultsPageData{Results: results, Payload: `{"x":"<y>"}`}))

	assert.Contains(t, body, `<td>7</td><td class="euploid">Euploide</td><td>91.5%</td>`)
	assert.Contains(t, body, `<td class="aneuploid">Aneuploide</td>`)
	assert.Contains(t, body, `<p class="value euploid">1</p>`)
	assert.Contains(t, body, "75.75%")
	assert.Contains(t, body, `value="{&#34;x&#34;:&#34;&lt;y&gt;&#34;}"`)
}
