// Package predict is the HTTP client for the ploidy prediction service.
//
// The service takes the original workbook as a multipart upload:
//
//	POST {baseURL}/predict   (form field "file")
//
// and answers with
//
//	{"results": [{"embryoId": 1, "ploidyStatus": "Euploide", "confidenceScore": 91.5}, ...]}
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/google/uuid"
)

// DefaultBaseURL is where the prediction service listens in development.
const DefaultBaseURL = "http://localhost:8001"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// Client errors. Their text feeds core.MapError.
var (
	ErrUnavailable     = errors.New("prediction service unavailable")
	ErrInvalidResponse = errors.New("invalid prediction response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("prediction service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service returned %d: %s", e.StatusCode, e.Body)
}

// Client implements core.Predictor over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a prediction client. timeout bounds each request on top
// of any context deadline; zero leaves only the context.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

type predictResponse struct {
	Results *[]core.Classification `json:"results"`
}

// Predict uploads the workbook and returns one classification per embryo.
func (c *Client) Predict(ctx context.Context, fileName string, data []byte) ([]core.Classification, error) {
	body, contentType, err := multipartBody(fileName, data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := logging.WithFields(ctx, "predict_request_id", requestID, "url", req.URL.String())
	logger.Debug("sending workbook", "file", fileName, "bytes", len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("prediction request: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("prediction service error", "status", resp.StatusCode, "body", string(raw))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: errorDetail(raw)}
	}

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if payload.Results == nil {
		return nil, fmt.Errorf("%w: missing results list", ErrInvalidResponse)
	}
	return *payload.Results, nil
}

// Health checks that the service answers at all. Any HTTP response counts.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

func multipartBody(fileName string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// errorDetail pulls FastAPI's {"detail": ...} message out of an error body,
// falling back to the trimmed body text.
func errorDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(raw))
}
