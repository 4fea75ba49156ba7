package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
)

// readyTimeout bounds the dependency probe behind /readyz.
const readyTimeout = 5 * time.Second

// ValidationResponse is returned by /api/validate, and by /api/predict when
// the dataset is rejected.
type ValidationResponse struct {
	*core.Submission
	Accepted bool     `json:"accepted"`
	Messages []string `json:"messages"`
}

func validationResponse(sub *core.Submission) ValidationResponse {
	msgs := sub.Result.Messages()
	if msgs == nil {
		msgs = []string{}
	}
	return ValidationResponse{Submission: sub, Accepted: sub.Accepted(), Messages: msgs}
}

// handleAPIValidate validates an uploaded workbook.
// Rejected datasets answer 422 with their defects.
func (s *Server) handleAPIValidate(w http.ResponseWriter, r *http.Request) {
	sub, err := s.intake(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	status := http.StatusOK
	if !sub.Accepted() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, validationResponse(sub))
}

// handleAPIPredict validates an uploaded workbook and, if it is accepted,
// returns its predictions.
func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	sub, err := s.intake(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if !sub.Accepted() {
		writeJSON(w, r, http.StatusUnprocessableEntity, validationResponse(sub))
		return
	}

	res, err := s.service.Predict(r.Context(), sub)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleAPIExport converts a posted results document to a file.
// The format query parameter selects xlsx (default) or csv.
func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize())
	res, err := decodeResults(r.Body)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err := writeResultsFile(w, r, res.Items, r.URL.Query().Get("format")); err != nil {
		s.respondError(w, r, err, statusFor(err))
	}
}

// handleTemplate returns an empty workbook with the expected header row.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	buf, err := xlsx.Template(s.specs)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	setAttachment(w, xlsx.ContentType, "embryo_ploidy_template.xlsx")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(buf.Bytes()))
}

// SchemaResponse describes the expected columns.
type SchemaResponse struct {
	Columns    []schema.FieldSpec `json:"columns"`
	BlankCells string             `json:"blankCells"`
	MaxDefects int                `json:"maxDefects"`
	Extension  string             `json:"extension"`
	MaxBytes   int64              `json:"maxBytes"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, SchemaResponse{
		Columns:    s.specs,
		BlankCells: s.service.Validator().Schema().BlankCells.String(),
		MaxDefects: core.MaxDefects,
		Extension:  core.AcceptedExtension,
		MaxBytes:   s.service.MaxFileSize(),
	})
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status      string             `json:"status"`
	Submissions core.LimiterStatus `json:"submissions"`
	Checks      map[string]string  `json:"checks,omitempty"`
}

// handleHealth reports liveness and the prediction slots in use.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:      "ok",
		Submissions: s.service.Limiter().Status(),
	})
}

// handleReady also probes the prediction service.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Submissions: s.service.Limiter().Status(),
		Checks:      map[string]string{},
	}
	status := http.StatusOK
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.health.Health(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks["predict"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["predict"] = "ok"
		}
	}
	writeJSON(w, r, status, resp)
}
