// Package gateway calls the external AI service for spam checks and
// recommendations.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/middleware"
	"murmur/internal/observability"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// ErrUnavailable wraps every failure to get a usable answer from upstream.
var ErrUnavailable = errors.New("ai service unavailable")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai service returned %d", e.StatusCode)
}

// Config configures Client.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	Retries          int
	RetryInterval    time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

// ConfigFrom derives the gateway configuration from app config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL: cfg.AIServiceBaseURL,
		Timeout: cfg.AIServiceTimeout,
		Retries: cfg.AIServiceRetries,
	}
}

// Client is an HTTP client for the AI service with per-attempt timeout,
// bounded retries on transport errors and 5xx, and a circuit breaker.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	retries       int
	retryInterval time.Duration
	breaker       *Breaker
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		retries:       retries,
		retryInterval: interval,
		breaker:       NewBreaker(cfg.FailureThreshold, cfg.Cooldown),
	}
}

// Breaker exposes the breaker for health reporting.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// call performs one logical request, decoding a 2xx JSON body into out.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out any) (err error) {
	start := time.Now()
	ctx, span := observability.StartClientSpan(ctx, "ai."+endpoint,
		attribute.String("http.method", method),
		attribute.String("http.url", c.baseURL+path),
	)
	defer func() { observability.EndSpan(span, err) }()

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
	}

	if err := c.breaker.Allow(); err != nil {
		observability.ObserveGateway(endpoint, "rejected", start)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 10 * c.retryInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, c.attempt(ctx, method, path, payload, out)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			middleware.Logger.WarnContext(ctx, "ai service call failed, retrying",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", next),
				slog.String("error", err.Error()),
			)
		}),
	)

	var statusErr *StatusError
	switch {
	case err == nil:
		c.breaker.Success()
		observability.ObserveGateway(endpoint, "ok", start)
		return nil
	case errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError:
		// Upstream is healthy, it rejected our request.
		c.breaker.Success()
		observability.ObserveGateway(endpoint, "client_error", start)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case ctx.Err() != nil:
		// The caller gave up.
		c.breaker.Release()
		observability.ObserveGateway(endpoint, "canceled", start)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		c.breaker.Failure()
		observability.ObserveGateway(endpoint, "error", start)
		middleware.Logger.ErrorContext(ctx, "ai service call failed",
			slog.String("endpoint", endpoint),
			slog.Int("attempts", attempt),
			slog.String("breaker", c.breaker.State().String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// attempt returns a backoff.Permanent error for anything not worth retrying.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
