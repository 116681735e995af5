package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/akshaymittal143/llmload/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		ServiceURL:    "http://llm-service:80",
		Model:         config.DefaultModel,
		Prompt:        config.DefaultPrompt,
		MaxTokens:     100,
		Temperature:   0.7,
		TotalRequests: 100,
		Concurrency:   20,
		Timeout:       30 * time.Second,
		Configuration: "baseline",
		Tracing:       config.TracingConfig{SampleRate: 1.0},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsInvalidConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{"missing service URL", func(c *config.Config) { c.ServiceURL = "  " }, "service URL is required"},
		{"zero requests", func(c *config.Config) { c.TotalRequests = 0 }, "requests must be at least 1"},
		{"negative requests", func(c *config.Config) { c.TotalRequests = -5 }, "requests must be at least 1"},
		{"zero concurrency", func(c *config.Config) { c.Concurrency = 0 }, "concurrency must be at least 1"},
		{"concurrency above requests", func(c *config.Config) { c.TotalRequests = 5; c.Concurrency = 6 }, "cannot exceed requests"},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }, "timeout must be greater than zero"},
		{"negative rate", func(c *config.Config) { c.Rate = -1 }, "rate cannot be negative"},
		{"zero max tokens", func(c *config.Config) { c.MaxTokens = 0 }, "max-tokens must be at least 1"},
		{"temperature too high", func(c *config.Config) { c.Temperature = 2.5 }, "temperature must be within"},
		{"sample rate out of range", func(c *config.Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate must be within"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := config.Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr config.ValidationError
	ok := false
	if verr, ok = err.(config.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Issues()) < 4 {
		t.Errorf("expected multiple issues reported together, got %v", verr.Issues())
	}
}

func TestValidateCompare(t *testing.T) {
	cfg := config.Config{Compare: []string{"baseline.json"}}
	if err := cfg.ValidateCompare(); err == nil {
		t.Error("expected error with a single compare file")
	}
	cfg.Compare = append(cfg.Compare, "optimized.json")
	if err := cfg.ValidateCompare(); err != nil {
		t.Errorf("expected two compare files to validate, got %v", err)
	}
}

func TestTracingEnabled(t *testing.T) {
	tc := config.TracingConfig{}
	if tc.Enabled() {
		t.Error("tracing should be disabled without an endpoint")
	}
	tc.Endpoint = "localhost:4317"
	if !tc.Enabled() {
		t.Error("tracing should be enabled with an endpoint")
	}
}
