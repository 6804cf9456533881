package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantforge/forge/internal/infra/mcp/provider"
	"github.com/quantforge/forge/internal/infra/storage"
)

// checkInterval rate limits probe fan-outs so HTTP handlers cannot
// hammer the backing services.
const checkInterval = 10 * time.Second

// Monitor aggregates probe results from all registered providers.
type Monitor struct {
	providers  []provider.Provider
	sampleRepo storage.HealthSampleRepository
	log        *slog.Logger
	lastCheck  time.Time
	lastReport map[string]ServiceHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. sampleRepo may be nil, in
// which case probe results are not persisted.
func NewMonitor(providers []provider.Provider, sampleRepo storage.HealthSampleRepository) *Monitor {
	return &Monitor{
		providers:  providers,
		sampleRepo: sampleRepo,
		log:        slog.With("component", "health"),
		lastReport: make(map[string]ServiceHealth),
	}
}

// CheckHealth probes every provider concurrently and returns the
// per-service report. Results are cached for a short interval.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ServiceHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < checkInterval && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ServiceHealth, len(m.providers))
	var reportMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range m.providers {
		g.Go(func() error {
			sample := p.Probe(gctx)

			reportMu.Lock()
			report[string(sample.Service)] = ServiceHealth{
				Service:   string(sample.Service),
				Status:    sample.Status,
				LatencyMS: sample.LatencyMS,
				CheckedAt: sample.Timestamp,
			}
			reportMu.Unlock()

			if m.sampleRepo != nil {
				if err := m.sampleRepo.Record(gctx, &sample); err != nil {
					m.log.Warn("Failed to persist health sample",
						"service", sample.Service, "error", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Aggregate reduces a per-service report to a system status. Any
// unreachable service is critical, any degraded service degrades the
// whole system.
func Aggregate(report map[string]ServiceHealth) SystemStatus {
	status := StatusHealthy
	for _, svc := range report {
		switch svc.Status {
		case provider.ProbeDown:
			return StatusCritical
		case provider.ProbeDegraded:
			status = StatusDegraded
		}
	}
	return status
}
