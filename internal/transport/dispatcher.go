// Package transport sends requests to the grade service and classifies their outcome.
// Server and network failures are answered by a synthesizer when fallback is enabled.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/pkg/middleware/requestid"
)

const maxBodyBytes = 32 << 20

// Outcome labels recorded for every dispatch.
const (
	OutcomeSuccess     = "success"
	OutcomeSynthesized = "synthesized"
	OutcomeCanceled    = "canceled"
)

// Synthesizer produces a substitute response for a failed call, or nil when no rule applies.
type Synthesizer interface {
	Synthesize(method, path string, body interface{}) *Response
}

// OutcomeRecorder receives one observation per dispatched request.
type OutcomeRecorder interface {
	ObserveDispatch(outcome string, duration time.Duration)
}

// Config configures the Dispatcher.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	FallbackEnabled bool
	// HTTPClient overrides the default client. Its timeout is left untouched.
	HTTPClient *http.Client
}

// Dispatcher issues calls to the grade service.
type Dispatcher struct {
	baseURL  string
	client   *http.Client
	synth    Synthesizer
	fallback bool
	metrics  OutcomeRecorder
	logger   *zap.Logger
}

// NewDispatcher constructs a Dispatcher. synth and metrics may be nil.
func NewDispatcher(cfg Config, synth Synthesizer, metrics OutcomeRecorder, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Dispatcher{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		synth:    synth,
		fallback: cfg.FallbackEnabled && synth != nil,
		metrics:  metrics,
		logger:   logger,
	}
}

// Send performs req. Successful responses are returned unchanged. Client errors are
// returned as a *Failure. Server and network errors are passed to the synthesizer, and
// the *Failure is only returned when it has no answer. A canceled ctx is never synthesized.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := d.do(ctx, req)
	if err == nil {
		d.observe(OutcomeSuccess, start)
		return resp, nil
	}

	if ctx.Err() != nil {
		d.observe(OutcomeCanceled, start)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctx.Err())
	}

	failure, ok := AsFailure(err)
	if !ok {
		d.observe(string(NetworkError), start)
		return nil, err
	}
	if !failure.Fallible() || !d.fallback {
		d.observe(string(failure.Kind), start)
		return nil, failure
	}

	synthetic := d.synth.Synthesize(req.Method, req.Path, req.Body)
	if synthetic == nil {
		d.observe(string(failure.Kind), start)
		d.logger.Warn("grade service unavailable and no fallback applies",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("kind", string(failure.Kind)),
			zap.Error(failure),
		)
		return nil, failure
	}

	d.observe(OutcomeSynthesized, start)
	d.logger.Warn("grade service unavailable, serving synthesized response",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("kind", string(failure.Kind)),
		zap.Int("status", failure.StatusCode),
		zap.Bool("degraded", synthetic.Degraded),
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Error(failure),
	)
	return synthetic, nil
}

func (d *Dispatcher) do(ctx context.Context, req Request) (*Response, error) {
	target := d.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	switch b := req.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.Header, id)
	}

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, &Failure{Kind: NetworkError, Err: err}
	}
	defer httpResp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Failure{Kind: NetworkError, StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch code := httpResp.StatusCode; {
	case code >= 200 && code < 300:
		return &Response{StatusCode: code, Header: httpResp.Header, Body: payload}, nil
	case code >= 400 && code < 500:
		return nil, &Failure{Kind: ClientError, StatusCode: code, Message: errorMessage(code, payload)}
	default:
		return nil, &Failure{Kind: ServerError, StatusCode: code, Message: errorMessage(code, payload)}
	}
}

func (d *Dispatcher) observe(outcome string, start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveDispatch(outcome, time.Since(start))
}

// errorMessage extracts the service's explanation. The service reports errors as
// {"detail": "..."} or, for request validation, {"detail": [{"msg": "..."}]}.
func errorMessage(code int, payload []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := strings.TrimSpace(string(payload)); text != "" && !strings.HasPrefix(text, "{") && len(text) <= 200 {
		return text
	}
	return http.StatusText(code)
}
