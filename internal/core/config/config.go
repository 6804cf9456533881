package config

import (
	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/mcp"
	"github.com/quantforge/forge/internal/infra/mcp/session"
	redisclient "github.com/quantforge/forge/internal/infra/redis"
	"github.com/quantforge/forge/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Services []ServiceConfig    `yaml:"services"`
	Limiter  LimiterConfig      `yaml:"limiter"`
	Retry    mcp.RetryConfig    `yaml:"retry"`
	Session  session.Config     `yaml:"session"`
	Notify   NotifyConfig       `yaml:"notify"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings for health and metrics endpoints.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ServiceConfig holds settings for one tool service endpoint.
type ServiceConfig struct {
	Name        domain.ServiceID    `yaml:"name"`
	Class       domain.ServiceClass `yaml:"class"`     // "handshake" = short-lived credential
	URL         string              `yaml:"url"`       // full endpoint, overrides port
	Port        int                 `yaml:"port"`      // local port, endpoint becomes http://localhost:<port>/mcp
	Transport   string              `yaml:"transport"` // "http" (default) or "grpc"
	RateLimited bool                `yaml:"rate_limited"`
}

// LimiterConfig holds token bucket settings for rate-limited services.
type LimiterConfig struct {
	Capacity   int     `yaml:"capacity"`
	RefillRate float64 `yaml:"refill_rate"` // tokens per second
}

// NotifyConfig holds the optional outbound webhook.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}
