package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Defaults match the reference inference workload.
const (
	DefaultModel         = "meta-llama/Llama-2-7b-chat-hf"
	DefaultPrompt        = "Generate a short response about artificial intelligence."
	DefaultMaxTokens     = 100
	DefaultTemperature   = 0.7
	DefaultRequests      = 100
	DefaultConcurrency   = 20
	DefaultTimeout       = 30 * time.Second
	DefaultConfiguration = "baseline"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "llmload",
		Short:         "Bounded-concurrency load generator for LLM inference endpoints",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Target and request shape
	flags.String("service-url", "", "URL of the inference service to load test")
	flags.String("model", DefaultModel, "Model name sent in the completion payload")
	flags.String("prompt", DefaultPrompt, "Prompt text (the request id is appended for traceability)")
	flags.Int("max-tokens", DefaultMaxTokens, "max_tokens value sent per request")
	flags.Float64("temperature", DefaultTemperature, "Sampling temperature sent per request")
	flags.StringSlice("header", nil, "Additional request header in key=value form")

	// Load control
	flags.IntP("requests", "n", DefaultRequests, "Total number of requests to send")
	flags.IntP("concurrency", "c", DefaultConcurrency, "Maximum requests in flight")
	flags.Duration("timeout", DefaultTimeout, "Per-request timeout")
	flags.IntP("rate", "r", 0, "Requests per second pacing limit (0 means unlimited)")

	// Output
	flags.String("configuration", DefaultConfiguration, "Label recorded in the summary (e.g. baseline, optimized)")
	flags.StringP("output", "o", "", "Write the summary JSON to this file")
	flags.Bool("json-output", false, "Emit the summary as JSON on stdout")
	flags.Bool("dashboard", false, "Show live terminal dashboard while the test runs")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.StringSlice("threshold", nil, "Performance assertion, e.g. 'latency:p95 < 500'")

	// Collaborators
	flags.String("metrics-output", "", "Collect cluster/GPU/storage metrics after the run and write them here")
	flags.StringSlice("compare", nil, "Summary JSON files to compare instead of running a test (needs 2+)")
	flags.String("data-output", "", "Write compare-mode curve data JSON to this file")

	// Tracing
	flags.String("otlp-endpoint", "", "OTLP endpoint for per-request spans (empty disables tracing)")
	flags.String("otlp-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("otlp-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio in [0, 1]")
	flags.Bool("trace-propagate", false, "Inject W3C trace context headers into inference requests")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}
