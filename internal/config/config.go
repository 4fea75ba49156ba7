// Package config provides centralized configuration management for the application.
// Settings come from struct-tag defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence. Everything
// is validated on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upload     UploadConfig     `yaml:"upload"`
	Predict    PredictConfig    `yaml:"predict"`
	Validation ValidationConfig `yaml:"validation"`
	Rate       RateLimitConfig  `yaml:"rate_limit"`
	Security   SecurityConfig   `yaml:"security"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout must outlast a prediction round trip (default: 3m)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"3m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including in-flight predictions (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-prediction requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds spreadsheet intake settings.
type UploadConfig struct {
	// MaxFileSize is the maximum workbook size in bytes (default: 10MB)
	MaxFileSize int64 `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`
}

// PredictConfig holds prediction service settings.
type PredictConfig struct {
	// URL is the prediction service root (default: http://localhost:8001)
	URL string `yaml:"url" env:"PREDICT_API_URL" envAlt:"API_URL" default:"http://localhost:8001"`

	// Timeout bounds a single prediction request (default: 2m)
	Timeout time.Duration `yaml:"timeout" env:"PREDICT_TIMEOUT" default:"2m"`

	// MaxConcurrent is the maximum number of predictions in flight (default: 5)
	MaxConcurrent int `yaml:"max_concurrent" env:"PREDICT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a submission waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `yaml:"max_wait_time" env:"PREDICT_MAX_WAIT_TIME" default:"30s"`
}

// ValidationConfig holds dataset validation settings.
type ValidationConfig struct {
	// Locale selects the defect wording: pt-BR or en (default: pt-BR)
	Locale string `yaml:"locale" env:"VALIDATION_LOCALE" default:"pt-BR"`

	// RejectBlankCells turns blank cells in required columns into defects (default: false)
	RejectBlankCells bool `yaml:"reject_blank_cells" env:"VALIDATION_REJECT_BLANK_CELLS" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload and predict endpoints (default: 10)
	UploadLimit int `yaml:"upload_limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `yaml:"require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts the metrics handler (default: true)
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" default:"true"`

	// Path is where metrics are served (default: /metrics)
	Path string `yaml:"path" env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
