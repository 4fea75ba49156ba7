package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/JonMunkholm/ploidy/internal/web/templates"
	"github.com/a-h/templ"
)

// render writes an HTML component with status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) uploadPage(alert *templates.Alert) templates.UploadPageData {
	return templates.UploadPageData{
		Headers:     s.service.Validator().Schema().Required,
		MaxFileSize: formatBytes(s.service.MaxFileSize()),
		Alert:       alert,
	}
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.UploadPage(s.uploadPage(nil)))
}

// handleUpload validates the uploaded workbook and shows either its defects
// or a preview with the form that runs the prediction.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sub, err := s.intake(w, r)
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(r.Context()).Warn("upload rejected", "code", msg.Code, "error", err)
		alert := &templates.Alert{Message: msg.Message, Action: msg.Action, Code: msg.Code}
		s.render(w, r, statusFor(err), templates.UploadPage(s.uploadPage(alert)))
		return
	}
	s.render(w, r, http.StatusOK, templates.ReviewPage(reviewData(sub)))
}

func reviewData(sub *core.Submission) templates.ReviewPageData {
	data := templates.ReviewPageData{
		SubmissionID: sub.ID,
		FileName:     sub.FileName,
		Result:       sub.Result,
		Preview:      sub.Preview,
	}
	if sub.Accepted() {
		data.Encoded = base64.StdEncoding.EncodeToString(sub.Data)
	}
	return data
}

// handlePredict sends the workbook carried by the review form to the
// prediction service and renders the results.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	sub, err := s.formSubmission(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if !sub.Accepted() {
		s.render(w, r, http.StatusUnprocessableEntity, templates.ReviewPage(reviewData(sub)))
		return
	}

	res, err := s.service.Predict(r.Context(), sub)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, templates.ResultsPage(templates.ResultsPageData{
		Results: res,
		Payload: string(payload),
	}))
}

// handleExport turns the results posted by the results page into a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize())
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := decodeResults(strings.NewReader(r.PostFormValue("results")))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err := writeResultsFile(w, r, res.Items, r.PostFormValue("format")); err != nil {
		s.respondError(w, r, err, statusFor(err))
	}
}
