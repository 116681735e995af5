// Package config provides configuration loading and validation for llmload.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional configuration file to
// produce a Config. Flags override file settings.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			_ = cmd.Usage()
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			_ = cmd.Usage()
			return nil, ErrHelpRequested
		}
	}

	cfg := &Config{
		Model:         DefaultModel,
		Prompt:        DefaultPrompt,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		Headers:       map[string]string{},
		TotalRequests: DefaultRequests,
		Concurrency:   DefaultConcurrency,
		Timeout:       DefaultTimeout,
		Configuration: DefaultConfiguration,
		Tracing:       TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	configPath := flagSet.Lookup("config").Value.String()
	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := cfgViper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		cfg.ConfigFile = configPath
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.ServiceURL = strings.TrimSpace(cfg.ServiceURL)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over file-derived settings.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "service-url":
			cfg.ServiceURL, err = fs.GetString(f.Name)
		case "model":
			cfg.Model, err = fs.GetString(f.Name)
		case "prompt":
			cfg.Prompt, err = fs.GetString(f.Name)
		case "max-tokens":
			cfg.MaxTokens, err = fs.GetInt(f.Name)
		case "temperature":
			cfg.Temperature, err = fs.GetFloat64(f.Name)
		case "header":
			err = applyHeaderFlags(cfg, fs)
		case "requests":
			cfg.TotalRequests, err = fs.GetInt(f.Name)
		case "concurrency":
			cfg.Concurrency, err = fs.GetInt(f.Name)
		case "timeout":
			cfg.Timeout, err = fs.GetDuration(f.Name)
		case "rate":
			cfg.Rate, err = fs.GetInt(f.Name)
		case "configuration":
			cfg.Configuration, err = fs.GetString(f.Name)
		case "output":
			cfg.Output, err = fs.GetString(f.Name)
		case "json-output":
			cfg.JSONOutput, err = fs.GetBool(f.Name)
		case "dashboard":
			cfg.Dashboard, err = fs.GetBool(f.Name)
		case "log-errors":
			cfg.LogErrors, err = fs.GetBool(f.Name)
		case "threshold":
			cfg.Thresholds, err = fs.GetStringSlice(f.Name)
		case "metrics-output":
			cfg.MetricsOutput, err = fs.GetString(f.Name)
		case "compare":
			cfg.Compare, err = fs.GetStringSlice(f.Name)
		case "data-output":
			cfg.DataOutput, err = fs.GetString(f.Name)
		case "otlp-endpoint":
			cfg.Tracing.Endpoint, err = fs.GetString(f.Name)
		case "otlp-protocol":
			cfg.Tracing.Protocol, err = fs.GetString(f.Name)
		case "otlp-insecure":
			cfg.Tracing.Insecure, err = fs.GetBool(f.Name)
		case "trace-sample-rate":
			cfg.Tracing.SampleRate, err = fs.GetFloat64(f.Name)
		case "trace-propagate":
			cfg.Tracing.Propagate, err = fs.GetBool(f.Name)
		}
	})
	return err
}

func applyHeaderFlags(cfg *Config, fs *pflag.FlagSet) error {
	vals, err := fs.GetStringSlice("header")
	if err != nil {
		return err
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for _, entry := range vals {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			return fmt.Errorf("header must be in key=value format: %s", entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("header key cannot be empty")
		}
		cfg.Headers[key] = value
	}
	return nil
}
