package web

// errors.go renders every failure the same way:
//  1. the handler calls respondError(w, r, err, status)
//  2. core.MapError turns err into a coded user message
//  3. the technical error is logged with the request ID
//  4. the user message is written as JSON or as an HTML page

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/JonMunkholm/ploidy/internal/predict"
	"github.com/JonMunkholm/ploidy/internal/web/templates"
)

// errNoFile feeds core.MapError (FILE004).
var errNoFile = errors.New("no file provided")

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	uerr := core.NewUserError(err)
	msg := uerr.User

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", uerr.Technical.Error(),
	}
	if status >= 500 {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logger.Error("render error page", "error", err)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for an intake or prediction error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var upstream *predict.StatusError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile), errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrInvalidSpreadsheet), errors.Is(err, errUnsupportedFormat),
		errors.Is(err, errInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotAccepted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManySubmissions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream), errors.Is(err, predict.ErrUnavailable),
		errors.Is(err, predict.ErrInvalidResponse), errors.Is(err, core.ErrPredictorMissing):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client should get JSON instead of HTML.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode", "error", err)
	}
}
