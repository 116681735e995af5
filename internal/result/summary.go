package result

// LatencyStats describes the latency distribution of successful requests,
// in milliseconds.
type LatencyStats struct {
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// TokenStats describes token counts across successful responses.
type TokenStats struct {
	MeanTokens  float64 `json:"mean_tokens"`
	TotalTokens int     `json:"total_tokens"`
}

// Summary is the derived, read-only view over a completed run. Field names
// are consumed by external reporting tooling and must stay stable.
type Summary struct {
	RunID              string        `json:"run_id,omitempty"`
	TotalRequests      int           `json:"total_requests"`
	SuccessfulRequests int           `json:"successful_requests"`
	FailedRequests     int           `json:"failed_requests"`
	SuccessRate        float64       `json:"success_rate"`
	TotalTimeSeconds   float64       `json:"total_time_seconds"`
	ThroughputRPS      float64       `json:"throughput_rps"`
	LatencyStats       *LatencyStats `json:"latency_stats,omitempty"`
	TokensStats        *TokenStats   `json:"tokens_stats,omitempty"`
	Concurrency        int           `json:"concurrency"`
	Configuration      string        `json:"configuration"`

	// Error is set instead of the stats blocks when no request succeeded.
	Error string `json:"error,omitempty"`
}
