package result

// Status classifies the terminal state of a dispatched request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Cause identifies the failure category for diagnostics. The aggregator
// treats all causes identically; they only feed error breakdowns.
type Cause string

const (
	CauseTransport   Cause = "transport"
	CauseTimeout     Cause = "timeout"
	CauseApplication Cause = "application"
	CauseCanceled    Cause = "canceled"
)

// Outcome is the immutable record of one inference request. Exactly one
// Outcome exists per dispatched request id, success or failure.
type Outcome struct {
	RequestID int     `json:"request_id"`
	Status    Status  `json:"status"`
	LatencyMs float64 `json:"latency_ms"`
	Timestamp float64 `json:"timestamp"`

	// Success fields.
	TokensGenerated int    `json:"tokens_generated,omitempty"`
	Model           string `json:"model,omitempty"`

	// Error fields. ErrorCode carries the HTTP status when one was observed.
	ErrorCode    int    `json:"error_code,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	Cause        Cause  `json:"cause,omitempty"`
}

// Success builds a successful outcome.
func Success(id int, latencyMs, timestamp float64, tokens int, model string) Outcome {
	return Outcome{
		RequestID:       id,
		Status:          StatusSuccess,
		LatencyMs:       latencyMs,
		Timestamp:       timestamp,
		TokensGenerated: tokens,
		Model:           model,
	}
}

// HTTPFailure builds an error outcome for a non-2xx response. The latency is
// still meaningful: it measures time to failure.
func HTTPFailure(id int, latencyMs, timestamp float64, statusCode int, message string) Outcome {
	return Outcome{
		RequestID:    id,
		Status:       StatusError,
		LatencyMs:    latencyMs,
		Timestamp:    timestamp,
		ErrorCode:    statusCode,
		ErrorMessage: message,
		Cause:        CauseApplication,
	}
}

// Failure builds an error outcome for transport failures, timeouts,
// malformed responses and cancellations.
func Failure(id int, latencyMs, timestamp float64, cause Cause, message string) Outcome {
	return Outcome{
		RequestID:    id,
		Status:       StatusError,
		LatencyMs:    latencyMs,
		Timestamp:    timestamp,
		ErrorMessage: message,
		Cause:        cause,
	}
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
