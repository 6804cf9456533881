package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/quantforge/forge/internal/control"
	"github.com/quantforge/forge/internal/core/config"
	"github.com/quantforge/forge/internal/core/domain"
)

func TestGracefulShutdown(t *testing.T) {
	// Memory storage, no real services behind the endpoints. Enough to
	// start and stop every component.
	cfg := control.Config{
		Port: 18099,
		Services: []config.ServiceConfig{
			{
				Name:        domain.ServiceQuantConnect,
				Class:       domain.ClassHandshake,
				URL:         "http://localhost:18000/mcp",
				Transport:   "http",
				RateLimited: true,
			},
			{
				Name:      domain.ServiceMemory,
				Class:     domain.ClassStandard,
				URL:       "http://localhost:18002/mcp",
				Transport: "http",
			},
		},
		Limiter: config.LimiterConfig{Capacity: 40, RefillRate: 40.0 / 60.0},
	}

	builder, err := control.NewBuilder(cfg)
	if err != nil {
		t.Fatalf("Failed to create builder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := builder.Start(ctx); err != nil {
		t.Fatalf("Failed to start builder: %v", err)
	}

	// Let the health server bind and session warmup fail against the
	// dead endpoints.
	time.Sleep(500 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := builder.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
