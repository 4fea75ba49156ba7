package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "CONFIG_FILE"

var durationType = reflect.TypeOf(time.Duration(0))

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and environment variables, then validates it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	v := reflect.ValueOf(cfg).Elem()

	if err := walk(v, applyDefault); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := walk(v, applyEnv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// walk calls fn for every tagged leaf field, recursing into nested structs.
func walk(v reflect.Value, fn func(reflect.StructField, reflect.Value) error) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := walk(fieldVal, fn); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("env") == "" {
			continue
		}
		if err := fn(field, fieldVal); err != nil {
			return err
		}
	}
	return nil
}

func applyDefault(field reflect.StructField, v reflect.Value) error {
	def := field.Tag.Get("default")
	if def == "" {
		return nil
	}
	if err := setField(v, def); err != nil {
		return fmt.Errorf("bad default for %s: %w", field.Tag.Get("env"), err)
	}
	return nil
}

// applyEnv overrides a field from its environment variable (or the
// alternate name) and enforces required:"true".
func applyEnv(field reflect.StructField, v reflect.Value) error {
	envName := field.Tag.Get("env")
	envAlt := field.Tag.Get("envAlt")

	value := os.Getenv(envName)
	if value == "" && envAlt != "" {
		value = os.Getenv(envAlt)
	}

	if value == "" {
		if field.Tag.Get("required") == "true" && v.IsZero() {
			return fmt.Errorf("required environment variable %s is not set", envName)
		}
		return nil
	}

	if err := setField(v, value); err != nil {
		return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
	}
	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	// Predict validation
	if !strings.HasPrefix(c.Predict.URL, "http://") && !strings.HasPrefix(c.Predict.URL, "https://") {
		errs = append(errs, fmt.Sprintf("PREDICT_API_URL (%q) must be an http(s) URL", c.Predict.URL))
	}
	if c.Predict.Timeout <= 0 {
		errs = append(errs, "PREDICT_TIMEOUT must be positive")
	}
	if c.Predict.MaxConcurrent <= 0 {
		errs = append(errs, "PREDICT_MAX_CONCURRENT must be positive")
	}
	if c.Predict.MaxWaitTime <= 0 {
		errs = append(errs, "PREDICT_MAX_WAIT_TIME must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < c.Predict.Timeout {
		errs = append(errs, fmt.Sprintf("SERVER_WRITE_TIMEOUT (%s) must be 0 or at least PREDICT_TIMEOUT (%s)",
			c.Server.WriteTimeout, c.Predict.Timeout))
	}

	// Validation settings
	if !core.IsLocale(c.Validation.Locale) {
		errs = append(errs, fmt.Sprintf("VALIDATION_LOCALE (%q) must be one of: %s",
			c.Validation.Locale, strings.Join(core.Locales(), ", ")))
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("METRICS_PATH (%q) must start with /", c.Metrics.Path))
	}

	if len(errs) > 0 {
		return errors.New("validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// BlankCellPolicy returns the validator policy selected by the config.
func (c *ValidationConfig) BlankCellPolicy() core.BlankCellPolicy {
	if c.RejectBlankCells {
		return core.BlankCellsRejected
	}
	return core.BlankCellsAllowed
}

// String returns a safe string representation of the config for logging.
// API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d}, ", c.Upload.MaxFileSize))
	b.WriteString(fmt.Sprintf("Predict: {URL: %q, Timeout: %s, MaxConcurrent: %d}, ",
		c.Predict.URL, c.Predict.Timeout, c.Predict.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Validation: {Locale: %q, RejectBlankCells: %v}, ",
		c.Validation.Locale, c.Validation.RejectBlankCells))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
