// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package weaviate implements the graph query provider on top of a
// Weaviate-backed code property graph.
//
// Features:
//   - Circuit breaker to prevent thundering herd on an unhealthy store
//   - Exponential backoff with jitter for retries
//   - Client-side rate limiting across concurrent requests
//   - OpenTelemetry tracing integration
//
// Transient store failures are retried here, below the graph.Provider
// boundary; whatever still fails surfaces as a single fetch error that the
// traversal core absorbs as a gap.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrStoreUnavailable is returned when the graph store is not reachable.
	ErrStoreUnavailable = errors.New("graph store is not available")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open, graph store requests blocked")

	// ErrConnectionTimeout is returned when a store request times out.
	ErrConnectionTimeout = errors.New("graph store connection timeout")

	// ErrClientClosed is returned when operations are called on a closed client.
	ErrClientClosed = errors.New("graph store client is closed")
)

// -----------------------------------------------------------------------------
// Connection State
// -----------------------------------------------------------------------------

// ConnectionState represents the current state of the store connection.
type ConnectionState int32

const (
	// StateConnected indicates normal operation.
	StateConnected ConnectionState = iota
	// StateDegraded indicates recent failures without an open circuit.
	StateDegraded
	// StateCircuitOpen indicates the circuit breaker is open, requests blocked.
	StateCircuitOpen
	// StateHalfOpen indicates the breaker is testing with a single request.
	StateHalfOpen
)

// String returns the string representation of ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	case StateCircuitOpen:
		return "circuit_open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Client Configuration
// -----------------------------------------------------------------------------

// ClientConfig configures the resilient store client.
type ClientConfig struct {
	// URL is the Weaviate server URL (e.g., "http://localhost:8080").
	URL string

	// RetryAttempts is the number of retry attempts for failed requests.
	// Default: 3
	RetryAttempts int

	// RetryBackoff is the initial backoff duration between retries.
	// Default: 100ms
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the exponential backoff.
	// Default: 5s
	MaxRetryBackoff time.Duration

	// RetryJitter adds randomness to backoff (0.0-1.0).
	// Default: 0.25 (±25%)
	RetryJitter float64

	// CircuitThreshold is the number of failures before opening the circuit.
	// Default: 5
	CircuitThreshold int

	// CircuitWindow is the sliding window for counting failures.
	// Default: 30s
	CircuitWindow time.Duration

	// CircuitCooldown is how long the circuit stays open before half-opening.
	// Default: 30s
	CircuitCooldown time.Duration

	// RequestsPerSecond rate-limits store requests across all in-flight
	// traversals. Default: 200
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default: 50
	Burst int

	// Logger for client operations.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults for production use.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RetryAttempts:     3,
		RetryBackoff:      100 * time.Millisecond,
		MaxRetryBackoff:   5 * time.Second,
		RetryJitter:       0.25,
		CircuitThreshold:  5,
		CircuitWindow:     30 * time.Second,
		CircuitCooldown:   30 * time.Second,
		RequestsPerSecond: 200,
		Burst:             50,
		Logger:            slog.Default(),
	}
}

// Validate checks if the configuration is valid.
func (c *ClientConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url must not be empty")
	}
	if c.RetryAttempts < 0 {
		return errors.New("retry_attempts must be non-negative")
	}
	if c.RetryJitter < 0 || c.RetryJitter > 1 {
		return errors.New("retry_jitter must be between 0 and 1")
	}
	if c.CircuitThreshold < 1 {
		return errors.New("circuit_threshold must be at least 1")
	}
	if c.CircuitWindow <= 0 {
		return errors.New("circuit_window must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return errors.New("requests_per_second must be positive")
	}
	return nil
}

// applyDefaults fills in zero values with defaults.
func (c *ClientConfig) applyDefaults() {
	defaults := DefaultClientConfig()
	if c.RetryAttempts == 0 {
		c.RetryAttempts = defaults.RetryAttempts
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if c.RetryJitter == 0 {
		c.RetryJitter = defaults.RetryJitter
	}
	if c.CircuitThreshold == 0 {
		c.CircuitThreshold = defaults.CircuitThreshold
	}
	if c.CircuitWindow == 0 {
		c.CircuitWindow = defaults.CircuitWindow
	}
	if c.CircuitCooldown == 0 {
		c.CircuitCooldown = defaults.CircuitCooldown
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if c.Burst == 0 {
		c.Burst = defaults.Burst
	}
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
}

// -----------------------------------------------------------------------------
// Resilient Client
// -----------------------------------------------------------------------------

// Client wraps the Weaviate client with resilience features.
//
// Thread Safety: Safe for concurrent use from multiple goroutines; the
// engine treats it as a stateless, reentrant dependency.
type Client struct {
	client  *weaviate.Client
	config  ClientConfig
	logger  *slog.Logger
	limiter *rate.Limiter

	// State
	state           atomic.Int32
	circuitOpenTime atomic.Int64 // Unix timestamp when circuit opened
	closed          atomic.Bool

	// Circuit breaker - sliding window of failure timestamps
	failures   []time.Time
	failureIdx int
	failureMu  sync.Mutex

	// Half-open state - only one test request allowed
	halfOpenTest atomic.Bool
}

// NewClient creates a resilient Weaviate client.
//
// Inputs:
//
//	config - Client configuration. URL is required.
//
// Outputs:
//
//	*Client - Ready-to-use client. The store is not contacted here; call
//	          Ready to verify connectivity.
//	error - Non-nil if configuration is invalid.
//
// Thread Safety: Safe for concurrent use.
func NewClient(config ClientConfig) (*Client, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := weaviate.Config{
		Host:   config.URL,
		Scheme: "http",
	}
	if strings.HasPrefix(config.URL, "https://") {
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(config.URL, "https://")
	} else if strings.HasPrefix(config.URL, "http://") {
		cfg.Host = strings.TrimPrefix(config.URL, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	c := &Client{
		client:   client,
		config:   config,
		logger:   config.Logger.With(slog.String("component", "weaviate_client")),
		limiter:  rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		failures: make([]time.Time, config.CircuitThreshold),
	}
	c.state.Store(int32(StateConnected))
	return c, nil
}

// Raw returns the underlying Weaviate client for direct operations.
//
// Thread Safety: Safe for concurrent use.
func (c *Client) Raw() *weaviate.Client {
	return c.client
}

// IsAvailable returns true if the store is available for requests.
func (c *Client) IsAvailable() bool {
	state := ConnectionState(c.state.Load())
	return state == StateConnected || state == StateDegraded || state == StateHalfOpen
}

// GetState returns the current connection state.
func (c *Client) GetState() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Ready verifies store connectivity once.
//
// Outputs:
//
//	error - ErrStoreUnavailable (wrapped) if the store is not ready.
func (c *Client) Ready(ctx context.Context) error {
	isReady, err := c.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !isReady {
		return ErrStoreUnavailable
	}
	return nil
}

// Execute runs a function with rate limiting, retry and circuit breaker
// protection.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	fn - Function performing one store operation.
//
// Outputs:
//
//	error - Non-nil if all retries fail or the circuit is open.
//
// Thread Safety: Safe for concurrent use.
func (c *Client) Execute(ctx context.Context, fn func() error) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	ctx, span := otel.Tracer("archscope.weaviate").Start(ctx, "weaviate.Execute",
		trace.WithAttributes(
			attribute.String("state", c.GetState().String()),
		),
	)
	defer span.End()

	switch c.GetState() {
	case StateCircuitOpen:
		if c.shouldTryHalfOpen() {
			c.transitionState(StateHalfOpen)
		} else {
			span.SetStatus(codes.Error, "circuit open")
			return ErrCircuitOpen
		}
	case StateHalfOpen:
		if !c.halfOpenTest.CompareAndSwap(false, true) {
			span.SetStatus(codes.Error, "circuit open (half-open busy)")
			return ErrCircuitOpen
		}
		defer c.halfOpenTest.Store(false)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			span.AddEvent("retry", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.Int64("backoff_ms", backoff.Milliseconds()),
			))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			c.recordSuccess()
			span.SetStatus(codes.Ok, "success")
			return nil
		}

		if !isRetryable(lastErr) {
			break
		}
	}

	c.recordFailure()
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all retries failed")
	return wrapStoreError(lastErr)
}

// Close marks the client closed. Further Execute calls fail fast.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.logger.Info("closing weaviate client")
	return nil
}

// -----------------------------------------------------------------------------
// Internal Methods
// -----------------------------------------------------------------------------

// transitionState changes state and logs the transition.
func (c *Client) transitionState(newState ConnectionState) {
	oldState := ConnectionState(c.state.Swap(int32(newState)))
	if oldState == newState {
		return
	}
	c.logger.Info("graph store state transition",
		slog.String("from", oldState.String()),
		slog.String("to", newState.String()))
}

// recordSuccess records a successful request.
func (c *Client) recordSuccess() {
	if c.GetState() != StateConnected {
		c.transitionState(StateConnected)
		c.resetFailures()
	}
}

// recordFailure records a failed request and opens the circuit when the
// sliding-window threshold is reached.
func (c *Client) recordFailure() {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()

	now := time.Now()
	c.failures[c.failureIdx] = now
	c.failureIdx = (c.failureIdx + 1) % len(c.failures)

	windowStart := now.Add(-c.config.CircuitWindow)
	count := 0
	for _, t := range c.failures {
		if !t.IsZero() && t.After(windowStart) {
			count++
		}
	}

	if count >= c.config.CircuitThreshold {
		if c.GetState() != StateCircuitOpen {
			c.circuitOpenTime.Store(now.Unix())
			c.transitionState(StateCircuitOpen)
			c.logger.Warn("circuit breaker opened",
				slog.Int("failures", count),
				slog.Duration("window", c.config.CircuitWindow))
		}
	} else if c.GetState() == StateConnected {
		c.transitionState(StateDegraded)
	}
}

// resetFailures clears the failure buffer.
func (c *Client) resetFailures() {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()
	for i := range c.failures {
		c.failures[i] = time.Time{}
	}
	c.failureIdx = 0
}

// shouldTryHalfOpen checks if the cooldown expired.
func (c *Client) shouldTryHalfOpen() bool {
	openTime := time.Unix(c.circuitOpenTime.Load(), 0)
	return time.Since(openTime) >= c.config.CircuitCooldown
}

// calculateBackoff returns exponential backoff with jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.config.RetryBackoff * time.Duration(1<<attempt)
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}

	jitterRange := float64(backoff) * c.config.RetryJitter
	jitter := (rand.Float64()*2 - 1) * jitterRange
	backoff = time.Duration(float64(backoff) + jitter)
	if backoff < 0 {
		backoff = c.config.RetryBackoff
	}
	return backoff
}

// isRetryable determines if an error is worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Connection errors are retryable (server might be restarting).
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Default: likely an application error.
	return false
}

// wrapStoreError wraps errors with sentinel context.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	return fmt.Errorf("graph store error: %w", err)
}
