// Package provider implements transports for MCP tool services.
//
// This package contains:
//   - Provider interface: core abstraction for a service endpoint
//   - HTTPProvider: JSON-RPC over HTTP implementation
//   - GRPCProvider: gRPC implementation
package provider

import (
	"context"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
)

// Provider defines the core interface for a tool service transport.
type Provider interface {
	// GetName returns the logical service name.
	GetName() domain.ServiceID

	// Call issues one RPC. The payload is opaque to this layer.
	// An empty token means the request is sent unauthenticated.
	Call(ctx context.Context, method string, params any, token string) (any, error)

	// Probe performs a lightweight health check and reports status
	// plus round-trip latency. Observability only.
	Probe(ctx context.Context) domain.HealthSample

	// GetHealth returns accumulated health metrics.
	GetHealth() HealthStatus

	// Close cleans up resources.
	Close() error
}

// HealthStatus represents the accumulated health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

const (
	ProbeHealthy  = "healthy"
	ProbeDegraded = "degraded"
	ProbeDown     = "down"
)
