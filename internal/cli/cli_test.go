package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type testEnv struct {
	t   *testing.T
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("PREDICT_API_URL", "")
	return &testEnv{t: t, dir: t.TempDir()}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// exec runs the CLI and returns stdout, stderr and the exit code.
func (e *testEnv) exec(args ...string) (string, string, int) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// run expects success.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, errOut, code := e.exec(args...)
	if code != ExitOK {
		e.t.Fatalf("ploidy %s: exit %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, out, errOut)
	}
	return out
}

func (e *testEnv) contains(s, want string) {
	e.t.Helper()
	if !strings.Contains(s, want) {
		e.t.Errorf("output missing %q:\n%s", want, s)
	}
}

// workbook writes an .xlsx with header and rows to name.
func (e *testEnv) workbook(name string, header []string, rows ...[]interface{}) string {
	e.t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	h := make([]interface{}, len(header))
	for i, v := range header {
		h[i] = v
	}
	for i, row := range append([][]interface{}{h}, rows...) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			e.t.Fatal(err)
		}
	}
	p := e.path(name)
	if err := f.SaveAs(p); err != nil {
		e.t.Fatal(err)
	}
	return p
}

func validRow() []interface{} {
	specs := schema.MorphokineticFieldSpecs
	row := make([]interface{}, len(specs))
	for i, s := range specs {
		if s.Type == schema.FieldNumeric {
			row[i] = 10.5 + float64(i)
		} else {
			row[i] = "x"
		}
	}
	return row
}

func (e *testEnv) validWorkbook(name string) string {
	return e.workbook(name, schema.Headers(schema.MorphokineticFieldSpecs), validRow(), validRow(), validRow())
}

func TestValidate(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.run("validate", env.validWorkbook("ok.xlsx"))
		env.contains(out, "ok.xlsx: OK (3 rows)")
	})

	t.Run("rejected exits 2", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.workbook("bad.xlsx", []string{"Idade", "t2"}, []interface{}{30, 1.5})

		out, _, code := env.exec("validate", p)
		if code != ExitRejected {
			t.Fatalf("exit = %d, want %d", code, ExitRejected)
		}
		env.contains(out, "bad.xlsx: rejected (header_checked)")
		env.contains(out, "Faltando as colunas obrigatórias")
	})

	t.Run("english json", func(t *testing.T) {
		env := newTestEnv(t)
		row := validRow()
		row[3] = "n/a"
		p := env.workbook("typed.xlsx", schema.Headers(schema.MorphokineticFieldSpecs), row)

		out, _, code := env.exec("validate", "--locale", "en", "-o", "json", p)
		if code != ExitRejected {
			t.Fatalf("exit = %d, want %d", code, ExitRejected)
		}
		var report validationReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("unmarshal: %v\n%s", err, out)
		}
		if report.Accepted || len(report.Defects) != 1 {
			t.Fatalf("report = %+v", report)
		}
		if got, want := report.Defects[0].Message, `Row 2: "t2" should be a number, got "n/a"`; got != want {
			t.Errorf("message = %q, want %q", got, want)
		}
		if d := report.Defects[0]; d.Column != "t2" || d.Value != "n/a" || d.Row != 2 {
			t.Errorf("defect = %+v, want row 2 column t2 value n/a", d)
		}
	})

	t.Run("blank cells rejected on request", func(t *testing.T) {
		env := newTestEnv(t)
		row := validRow()
		row[0] = nil
		p := env.workbook("blank.xlsx", schema.Headers(schema.MorphokineticFieldSpecs), row)

		env.run("validate", p)

		out, _, code := env.exec("validate", "--reject-blank-cells", "-o", "yaml", p)
		if code != ExitRejected {
			t.Fatalf("exit = %d, want %d", code, ExitRejected)
		}
		var report validationReport
		if err := yaml.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("unmarshal: %v\n%s", err, out)
		}
		// the blank cell and the partially blank row
		if len(report.Defects) != 2 {
			t.Fatalf("defects = %+v", report.Defects)
		}
		for _, d := range report.Defects {
			if d.Kind != string(core.DefectBlankCell) || d.Row != 2 {
				t.Errorf("defect = %+v", d)
			}
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		env := newTestEnv(t)
		_, errOut, code := env.exec("validate", env.path("data.csv"))
		if code != ExitError {
			t.Fatalf("exit = %d, want %d", code, ExitError)
		}
		env.contains(errOut, "FILE003")
	})
}

func TestRootFlags(t *testing.T) {
	env := newTestEnv(t)
	p := env.validWorkbook("ok.xlsx")

	if _, errOut, code := env.exec("validate", "-o", "xml", p); code != ExitError || !strings.Contains(errOut, "invalid output format") {
		t.Errorf("-o xml: exit %d, stderr %q", code, errOut)
	}
	if _, errOut, code := env.exec("validate", "--locale", "fr", p); code != ExitError || !strings.Contains(errOut, "invalid locale") {
		t.Errorf("--locale fr: exit %d, stderr %q", code, errOut)
	}
	for _, locale := range []string{"pt-br", "EN", " en "} {
		if _, errOut, code := env.exec("validate", "--locale", locale, p); code != ExitOK {
			t.Errorf("--locale %q: exit %d, stderr %q", locale, code, errOut)
		}
	}
}

func TestTemplate(t *testing.T) {
	env := newTestEnv(t)
	p := env.path("template.xlsx")

	out := env.run("template", p)
	env.contains(out, "18 columns")

	// The template has headers but no rows, so it validates as empty.
	vout, _, code := env.exec("validate", p)
	if code != ExitRejected {
		t.Fatalf("exit = %d, want %d", code, ExitRejected)
	}
	env.contains(vout, "Nenhuma linha de dados encontrada no arquivo.")

	if _, errOut, code := env.exec("template", p); code != ExitError || !strings.Contains(errOut, "already exists") {
		t.Errorf("second write: exit %d, stderr %q", code, errOut)
	}
	env.run("template", "--force", p)
}

func predictionServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"embryoId":1,"ploidyStatus":"Euploide","confidenceScore":80},
			{"embryoId":2,"ploidyStatus":"Aneuploide","confidenceScore":30},
			{"embryoId":3,"ploidyStatus":"Euplóide","confidenceScore":70}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredictAndSummarize(t *testing.T) {
	env := newTestEnv(t)
	srv := predictionServer(t)
	in := env.validWorkbook("embryos.xlsx")

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			out := env.path("results" + ext)

			pout := env.run("predict", "--api", srv.URL, "--out", out, in)
			env.contains(pout, "3 embryos, 2 euploid, 1 aneuploid")
			env.contains(pout, "mean 60.00%, median 70.00%")
			if _, err := os.Stat(out); err != nil {
				t.Fatalf("output not written: %v", err)
			}

			sout := env.run("summarize", "-o", "json", out)
			var report resultsReport
			if err := json.Unmarshal([]byte(sout), &report); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, sout)
			}
			if report.Summary.Total != 3 || report.Summary.Euploid != 2 || report.Summary.Aneuploid != 1 {
				t.Errorf("summary = %+v", report.Summary)
			}
			if report.Results != nil {
				t.Errorf("results listed without --detail: %+v", report.Results)
			}

			dout := env.run("summarize", "--detail", out)
			env.contains(dout, "Aneuploide")
		})
	}
}

func TestPredict_RejectedDatasetNotSent(t *testing.T) {
	env := newTestEnv(t)
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := env.workbook("bad.xlsx", []string{"Idade"}, []interface{}{30})
	_, _, code := env.exec("predict", "--api", srv.URL, p)

	if code != ExitRejected {
		t.Errorf("exit = %d, want %d", code, ExitRejected)
	}
	if called {
		t.Error("rejected dataset was sent to the prediction service")
	}
}

func TestPredict_ServiceDown(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, errOut, code := env.exec("predict", "--api", url, env.validWorkbook("embryos.xlsx"))
	if code != ExitError {
		t.Fatalf("exit = %d, want %d", code, ExitError)
	}
	env.contains(errOut, "PRED001")
}

func TestPredict_BadOutputExtension(t *testing.T) {
	env := newTestEnv(t)
	_, errOut, code := env.exec("predict", "--out", env.path("results.txt"), env.validWorkbook("embryos.xlsx"))
	if code != ExitError || !strings.Contains(errOut, "must be .xlsx or .csv") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestSummarize_NotAResultsTable(t *testing.T) {
	env := newTestEnv(t)
	p := env.path("other.csv")
	if err := os.WriteFile(p, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, code := env.exec("summarize", p)
	if code != ExitError {
		t.Fatalf("exit = %d, want %d", code, ExitError)
	}
	env.contains(errOut, "FILE002")
}
