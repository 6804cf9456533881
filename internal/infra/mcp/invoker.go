// Package mcp provides the retrying invocation layer over MCP tool
// services: session lifecycle, rate limiting, bounded retry, and
// terminal-failure reporting.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantforge/forge/internal/build/metrics"
	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/mcp/provider"
	"github.com/quantforge/forge/internal/infra/mcp/session"
	"github.com/quantforge/forge/internal/infra/ratelimit"
)

// RetryConfig defines retry behavior for remote invocations.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	Backoff        time.Duration `yaml:"backoff"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:    3,
	Backoff:        2 * time.Second,
	AttemptTimeout: 30 * time.Second,
}

// Invoker composes the session registry, an optional rate limiter, and a
// transport per service to perform bounded-retry remote calls. Stale
// sessions are evicted on authentication failure between attempts.
type Invoker struct {
	registry    *session.Registry
	providers   map[domain.ServiceID]provider.Provider
	limiter     *ratelimit.Limiter
	rateLimited map[domain.ServiceID]bool
	cfg         RetryConfig
	log         *slog.Logger
}

// NewInvoker creates an invoker. limiter may be nil when no service is
// rate limited; it is explicitly owned by the caller, never global state.
func NewInvoker(registry *session.Registry, limiter *ratelimit.Limiter, cfg RetryConfig) *Invoker {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = DefaultRetryConfig.Backoff
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = DefaultRetryConfig.AttemptTimeout
	}
	return &Invoker{
		registry:    registry,
		providers:   make(map[domain.ServiceID]provider.Provider),
		limiter:     limiter,
		rateLimited: make(map[domain.ServiceID]bool),
		cfg:         cfg,
		log:         slog.Default(),
	}
}

// AddProvider registers a transport for a service. rateLimited routes the
// service's calls through the token bucket.
func (inv *Invoker) AddProvider(p provider.Provider, rateLimited bool) {
	inv.providers[p.GetName()] = p
	inv.rateLimited[p.GetName()] = rateLimited
}

// Providers returns the registered transports, keyed by service.
func (inv *Invoker) Providers() map[domain.ServiceID]provider.Provider {
	return inv.providers
}

// Invoke calls a service method with session refresh and bounded retry.
// maxRetries <= 0 uses the configured default. On exhaustion the last
// failure is returned wrapped in a TerminalError; no result is synthesized.
func (inv *Invoker) Invoke(
	ctx context.Context,
	id domain.ServiceID,
	method string,
	params any,
	maxRetries int,
) (any, error) {
	if maxRetries <= 0 {
		maxRetries = inv.cfg.MaxAttempts
	}

	p, ok := inv.providers[id]
	if !ok {
		return nil, &session.UnknownServiceError{Service: id}
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if inv.limiter != nil && inv.rateLimited[id] {
			waitStart := time.Now()
			if err := inv.limiter.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			if time.Since(waitStart) > 10*time.Millisecond {
				metrics.RateLimitWaits.WithLabelValues(string(id)).Inc()
			}
		}

		token, err := inv.registry.EnsureValid(ctx, id)
		if err != nil {
			// Fail-closed handshake errors are retried like any
			// transient failure.
			lastErr = err
		} else {
			attemptCtx, cancel := context.WithTimeout(ctx, inv.cfg.AttemptTimeout)
			start := time.Now()
			result, err := p.Call(attemptCtx, method, params, token)
			cancel()

			metrics.RPCCallsTotal.WithLabelValues(string(id), method).Inc()
			metrics.RPCLatency.WithLabelValues(string(id), method).
				Observe(time.Since(start).Seconds())

			if err == nil {
				return result, nil
			}
			lastErr = err

			if IsSessionError(err) {
				inv.log.Debug("Session error, evicting cached session",
					"service", id, "attempt", attempt+1, "error", err)
				inv.registry.Evict(id)
			}
		}

		if attempt == maxRetries-1 {
			break
		}

		inv.log.Debug("Request failed, retrying",
			"service", id, "method", method,
			"attempt", attempt+1, "max", maxRetries, "error", lastErr)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(inv.cfg.Backoff):
		}
	}

	return nil, &TerminalError{
		Service:  id,
		Method:   method,
		Attempts: maxRetries,
		Err:      lastErr,
	}
}

// Close releases all provider resources.
func (inv *Invoker) Close() error {
	for _, p := range inv.providers {
		_ = p.Close()
	}
	return nil
}
