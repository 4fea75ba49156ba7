// Package templates holds the templ views of the web UI.
//
// The *_templ.go files are generated; edit the .templ sources and run
// `templ generate`.
package templates

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
)

// AppTitle is shown in the header and the document title.
const AppTitle = "Preditor de Embriões"

// Alert is an error shown above a form.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// UploadPageData drives the landing page.
type UploadPageData struct {
	Headers     []string
	MaxFileSize string
	Alert       *Alert
}

// ReviewPageData drives the page shown after an upload.
// Encoded is the base64 workbook carried to the predict form.
type ReviewPageData struct {
	SubmissionID string
	FileName     string
	Result       *core.Result
	Preview      *core.Preview
	Encoded      string
}

// ResultsPageData drives the results page. Payload is the results JSON
// posted back by the export form.
type ResultsPageData struct {
	Results *core.Results
	Payload string
}

func pageTitle(title string) string {
	if title == "" {
		return AppTitle
	}
	return title + " | " + AppTitle
}

func statusClass(c core.Classification) string {
	return strings.ToLower(string(c.Status()))
}

func percent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64) + "%"
}
