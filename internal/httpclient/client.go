// Package httpclient builds chat-completion requests and provides the
// pooled HTTP client shared by one load test run.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/akshaymittal143/llmload/internal/config"
)

const completionsPath = "/v1/chat/completions"

// ChatMessage is a single message in a chat-completion payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON body POSTed to the inference service.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// RequestBuilder constructs one deterministic inference request per request
// id. The id is embedded in the prompt so responses stay traceable.
type RequestBuilder struct {
	endpoint    string
	model       string
	prompt      string
	maxTokens   int
	temperature float64
	headers     http.Header
}

// NewRequestBuilder validates the request-shaping parts of cfg and returns
// a builder bound to them.
func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimRight(strings.TrimSpace(cfg.ServiceURL), "/")
	if target == "" {
		return nil, errors.New("service URL is required")
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || strings.ContainsAny(trimmed, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", trimmed)
		}
		headers.Set(http.CanonicalHeaderKey(trimmed), value)
	}

	return &RequestBuilder{
		endpoint:    target + completionsPath,
		model:       cfg.Model,
		prompt:      cfg.Prompt,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		headers:     headers,
	}, nil
}

// Build assembles the HTTP request for the given request id.
func (b *RequestBuilder) Build(ctx context.Context, requestID int) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload := ChatRequest{
		Model: b.model,
		Messages: []ChatMessage{
			{Role: "user", Content: fmt.Sprintf("%s Request ID: %d", b.prompt, requestID)},
		},
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Endpoint returns the full completions URL the builder targets.
func (b *RequestBuilder) Endpoint() string {
	return b.endpoint
}

// NewClient creates the HTTP client shared by all workers of one run. The
// idle connection pool is sized to at least the concurrency ceiling so
// connection reuse never becomes a second, undocumented bottleneck.
func NewClient(timeout time.Duration, concurrency int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	perHost := concurrency
	if perHost < 32 {
		perHost = 32
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          perHost * 2,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
