package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds everything one load test run needs. It is immutable for the
// duration of the run.
type Config struct {
	ServiceURL string `mapstructure:"service_url"`

	// Request shape.
	Model       string            `mapstructure:"model"`
	Prompt      string            `mapstructure:"prompt"`
	MaxTokens   int               `mapstructure:"max_tokens"`
	Temperature float64           `mapstructure:"temperature"`
	Headers     map[string]string `mapstructure:"headers"`

	// Load control.
	TotalRequests int           `mapstructure:"requests"`
	Concurrency   int           `mapstructure:"concurrency"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Rate          int           `mapstructure:"rate"`

	// Labeling and outputs.
	Configuration string   `mapstructure:"configuration"`
	Output        string   `mapstructure:"output"`
	JSONOutput    bool     `mapstructure:"json_output"`
	Dashboard     bool     `mapstructure:"dashboard"`
	LogErrors     bool     `mapstructure:"log_errors"`
	Thresholds    []string `mapstructure:"thresholds"`

	// Collaborator surfaces.
	MetricsOutput string        `mapstructure:"metrics_output"`
	Compare       []string      `mapstructure:"compare"`
	DataOutput    string        `mapstructure:"data_output"`
	Tracing       TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig controls the optional OpenTelemetry export of per-request
// spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ValidationError aggregates every validation issue found in a Config.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual validation problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks run preconditions. Validation failures are fatal at
// startup, before any network activity begins.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.ServiceURL) == "" {
		issues = append(issues, "service URL is required")
	}
	if c.TotalRequests < 1 {
		issues = append(issues, fmt.Sprintf("requests must be at least 1, got %d", c.TotalRequests))
	}
	if c.Concurrency < 1 {
		issues = append(issues, fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.TotalRequests >= 1 && c.Concurrency > c.TotalRequests {
		issues = append(issues, fmt.Sprintf("concurrency (%d) cannot exceed requests (%d)", c.Concurrency, c.TotalRequests))
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be greater than zero")
	}
	if c.Rate < 0 {
		issues = append(issues, fmt.Sprintf("rate cannot be negative, got %d", c.Rate))
	}
	if c.MaxTokens < 1 {
		issues = append(issues, fmt.Sprintf("max-tokens must be at least 1, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		issues = append(issues, fmt.Sprintf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be within [0, 1], got %g", c.Tracing.SampleRate))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ValidateCompare checks the compare-mode inputs.
func (c Config) ValidateCompare() error {
	if len(c.Compare) < 2 {
		return ValidationError{issues: []string{
			fmt.Sprintf("compare needs at least 2 summary files, got %d", len(c.Compare)),
		}}
	}
	return nil
}
