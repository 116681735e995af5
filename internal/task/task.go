// Package task issues single inference requests and classifies their
// outcomes. A task never surfaces a fault to its caller: every failure mode
// becomes a typed Error outcome so one bad request cannot abort the batch.
package task

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/akshaymittal143/llmload/internal/httpclient"
	"github.com/akshaymittal143/llmload/internal/result"
	"github.com/akshaymittal143/llmload/internal/tracing"
)

const maxBodyReadSize = 1024 * 1024

const maxErrorSnippetBytes = 1024

// Task executes inference requests against one service endpoint using a
// shared client whose lifetime spans the whole run.
type Task struct {
	client  *http.Client
	builder *httpclient.RequestBuilder
	tracing *tracing.Provider
}

// New creates a Task bound to a client and request builder.
func New(client *http.Client, builder *httpclient.RequestBuilder, provider *tracing.Provider) *Task {
	return &Task{client: client, builder: builder, tracing: provider}
}

// Run issues the request for the given id and returns its outcome. Latency
// is measured on the monotonic clock from just before dispatch to just
// after the response or failure is observed; the timestamp records the
// wall-clock start in Unix seconds.
func (t *Task) Run(ctx context.Context, requestID int) result.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	timestamp := float64(start.UnixNano()) / float64(time.Second)
	elapsedMs := func() float64 {
		return float64(time.Since(start)) / float64(time.Millisecond)
	}

	ctx, span := tracing.StartRequestSpan(ctx, t.tracing.Tracer(), requestID)

	req, err := t.builder.Build(ctx, requestID)
	if err != nil {
		tracing.EndSpan(span, err)
		return result.Failure(requestID, elapsedMs(), timestamp, result.CauseApplication, "build request: "+err.Error())
	}
	if t.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		tracing.EndSpan(span, err)
		return result.Failure(requestID, elapsedMs(), timestamp, classifyTransportError(err), err.Error())
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	latency := elapsedMs()
	if readErr != nil {
		tracing.EndSpan(span, readErr)
		return result.Failure(requestID, latency, timestamp, classifyTransportError(readErr), "read response: "+readErr.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorSnippetBytes {
			snippet = snippet[:maxErrorSnippetBytes]
		}
		outcome := result.HTTPFailure(requestID, latency, timestamp, resp.StatusCode, strings.TrimSpace(string(snippet)))
		tracing.EndSpan(span, errors.New(outcome.ErrorMessage),
			attribute.Int("http.response.status_code", resp.StatusCode))
		return outcome
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		err := errors.New("malformed response: missing choices[0].message.content")
		tracing.EndSpan(span, err, attribute.Int("http.response.status_code", resp.StatusCode))
		return result.Failure(requestID, latency, timestamp, result.CauseApplication, err.Error())
	}

	model := gjson.GetBytes(body, "model").String()
	if model == "" {
		model = "unknown"
	}
	tokens := len(strings.Fields(content.String()))

	tracing.EndSpan(span, nil,
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("llmload.tokens_generated", tokens),
	)
	return result.Success(requestID, latency, timestamp, tokens, model)
}

// classifyTransportError separates timeouts from other transport failures.
func classifyTransportError(err error) result.Cause {
	if errors.Is(err, context.DeadlineExceeded) {
		return result.CauseTimeout
	}
	if errors.Is(err, context.Canceled) {
		return result.CauseCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return result.CauseTimeout
	}
	return result.CauseTransport
}
