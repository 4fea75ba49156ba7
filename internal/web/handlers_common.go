package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
)

// Export formats accepted by the export endpoints.
const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"
)

// formOverhead is the room left in a request body for multipart framing
// and the other form fields.
const formOverhead = 64 << 10

var (
	errUnsupportedFormat = errors.New("unsupported export format")
	errInvalidPayload    = errors.New("invalid results payload")
)

// intake reads the multipart field "file" and validates it.
func (s *Server) intake(w http.ResponseWriter, r *http.Request) (*core.Submission, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if bodyTooLarge(err) {
			return nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	return s.service.Intake(r.Context(), header.Filename, file)
}

// bodyTooLarge reports whether err came from http.MaxBytesReader.
func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// formSubmission rebuilds a submission from the hidden fields of the review
// page and validates it again.
func (s *Server) formSubmission(w http.ResponseWriter, r *http.Request) (*core.Submission, error) {
	// base64 grows the payload by a third.
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize()*4/3+formOverhead)
	if err := r.ParseForm(); err != nil {
		if bodyTooLarge(err) {
			return nil, core.ErrFileTooLarge
		}
		return nil, fmt.Errorf("parse form: %w", err)
	}

	encoded := r.PostFormValue("file_data")
	if encoded == "" {
		return nil, errNoFile
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSpreadsheet, err)
	}
	return s.service.IntakeBytes(r.Context(), r.PostFormValue("file_name"), data)
}

// decodeResults parses a results payload posted back by a client.
func decodeResults(rd io.Reader) (*core.Results, error) {
	var res core.Results
	if err := json.NewDecoder(rd).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return &res, nil
}

// writeResultsFile sends items as an .xlsx or .csv attachment. The file is
// built in memory, so a returned error means nothing was written yet.
func writeResultsFile(w http.ResponseWriter, r *http.Request, items []core.Classification, format string) error {
	var (
		buf         *bytes.Buffer
		contentType string
		ext         string
		err         error
	)
	switch strings.ToLower(format) {
	case "", formatXLSX:
		buf, err = xlsx.EncodeResults(items)
		contentType, ext = xlsx.ContentType, ".xlsx"
	case formatCSV:
		buf = new(bytes.Buffer)
		err = core.WriteResultsCSV(buf, items)
		contentType, ext = "text/csv; charset=utf-8", ".csv"
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	setAttachment(w, contentType, core.ResultsFileBase+ext)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write", "error", err)
	}
	return nil
}

func setAttachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}

// formatBytes renders a size limit for humans.
func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d KB", max(1, n>>10))
}
