package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/google/uuid"
)

// Intake and submission errors. Their text feeds MapError.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type: only .xlsx is accepted")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyFile           = errors.New("empty file")
	ErrInvalidSpreadsheet  = errors.New("invalid spreadsheet")
	ErrNotAccepted         = errors.New("dataset rejected by validation")
)

// AcceptedExtension is the only file type taken at intake.
const AcceptedExtension = ".xlsx"

// Decoder turns spreadsheet bytes into a grid.
type Decoder interface {
	Decode(r io.Reader) (*Grid, error)
}

// Predictor sends the original file to the prediction service.
type Predictor interface {
	Predict(ctx context.Context, fileName string, data []byte) ([]Classification, error)
}

// Recorder receives service events for metrics.
type Recorder interface {
	ObserveValidation(res *Result)
	ObservePrediction(status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveValidation(*Result) {}
func (nopRecorder) ObservePrediction(string, time.Duration) {}

// ServiceConfig holds the limits the service enforces.
type ServiceConfig struct {
	MaxFileSize    int64
	MaxConcurrent  int
	MaxWait        time.Duration
	PredictTimeout time.Duration
}

// Default limits applied when ServiceConfig fields are zero.
const (
	DefaultMaxFileSize    = 10 << 20
	DefaultPredictTimeout = 2 * time.Minute
)

// Service runs the intake → validate → predict flow.
// It keeps nothing between calls except the submission limiter.
type Service struct {
	validator      *Validator
	decoder        Decoder
	predictor      Predictor
	limiter        *SubmissionLimiter
	recorder       Recorder
	maxFileSize    int64
	predictTimeout time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder routes service events to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a Service. predictor may be nil for validation-only use;
// Predict then fails with ErrPredictorMissing.
func NewService(v *Validator, dec Decoder, pred Predictor, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.PredictTimeout <= 0 {
		cfg.PredictTimeout = DefaultPredictTimeout
	}

	s := &Service{
		validator:      v,
		decoder:        dec,
		predictor:      pred,
		limiter:        NewSubmissionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder:       nopRecorder{},
		maxFileSize:    cfg.MaxFileSize,
		predictTimeout: cfg.PredictTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrPredictorMissing is returned by Predict on a service built without one.
var ErrPredictorMissing = errors.New("prediction service unavailable: no predictor configured")

// Validator returns the service's validator.
func (s *Service) Validator() *Validator { return s.validator }

// Limiter returns the submission limiter.
func (s *Service) Limiter() *SubmissionLimiter { return s.limiter }

// MaxFileSize returns the intake size limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// Submission is one uploaded file together with its validation outcome.
// Data holds the original bytes, which are what gets sent for prediction.
type Submission struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Data       []byte    `json:"-"`
	Result     *Result   `json:"result"`
	Preview    *Preview  `json:"preview,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Accepted reports whether the submission passed validation.
func (s *Submission) Accepted() bool {
	return s != nil && s.Result.Accepted()
}

// CheckFileName rejects anything but an .xlsx file name.
func CheckFileName(name string) error {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), AcceptedExtension) {
		return fmt.Errorf("%w (got %q)", ErrUnsupportedFileType, name)
	}
	return nil
}

// Intake reads r (at most MaxFileSize bytes) and validates it.
func (s *Service) Intake(ctx context.Context, fileName string, r io.Reader) (*Submission, error) {
	if err := CheckFileName(fileName); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}

	return s.IntakeBytes(ctx, fileName, data)
}

// IntakeBytes decodes and validates an in-memory file.
// Data-quality problems are reported in Submission.Result; the error return
// covers files that cannot be read at all.
func (s *Service) IntakeBytes(ctx context.Context, fileName string, data []byte) (*Submission, error) {
	if err := CheckFileName(fileName); err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	grid, err := s.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}

	res, err := s.validator.Validate(grid)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", fileName, err)
	}
	s.recorder.ObserveValidation(res)

	sub := &Submission{
		ID:         uuid.New().String(),
		FileName:   filepath.Base(fileName),
		Data:       data,
		Result:     res,
		ReceivedAt: time.Now(),
	}

	logger := logging.WithFields(ctx,
		"submission_id", sub.ID,
		"file", sub.FileName,
		"bytes", len(data),
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)

	if res.Accepted() {
		p := BuildPreview(res.Records)
		sub.Preview = &p
		logger.Info("dataset accepted", "rows", len(res.Records))
	} else {
		logger.Info("dataset rejected", "stage", res.Stage, "defects", len(res.Defects))
	}

	return sub, nil
}

// Predict forwards an accepted submission's original bytes to the predictor.
// At most MaxConcurrent predictions run at once; others wait up to MaxWait.
func (s *Service) Predict(ctx context.Context, sub *Submission) (*Results, error) {
	if !sub.Accepted() {
		return nil, ErrNotAccepted
	}
	if s.predictor == nil {
		return nil, ErrPredictorMissing
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.predictTimeout)
	defer cancel()

	logger := logging.WithFields(ctx, "submission_id", sub.ID, "file", sub.FileName)
	logger.Info("prediction started", "rows", len(sub.Result.Records))

	start := time.Now()
	items, err := s.predictor.Predict(ctx, sub.FileName, sub.Data)
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.ObservePrediction("error", elapsed)
		logger.Error("prediction failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, fmt.Errorf("predict %s: %w", sub.FileName, err)
	}
	s.recorder.ObservePrediction("success", elapsed)

	results := NewResults(sub.ID, sub.FileName, items, elapsed)
	logger.Info("prediction completed",
		"results", results.Summary.Total,
		"euploid", results.Summary.Euploid,
		"aneuploid", results.Summary.Aneuploid,
		"duration_ms", elapsed.Milliseconds(),
	)
	return results, nil
}

// WaitForSubmissions blocks until in-flight predictions finish or ctx ends.
func (s *Service) WaitForSubmissions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
