package control

import (
	"context"
	"fmt"
	"testing"

	"github.com/quantforge/forge/internal/core/config"
	"github.com/quantforge/forge/internal/core/domain"
)

func testConfig() Config {
	return Config{
		Port: 0,
		Services: []config.ServiceConfig{
			{
				Name:        "memory",
				Class:       domain.ClassStandard,
				URL:         "http://localhost:8002/mcp",
				Transport:   "http",
				RateLimited: false,
			},
			{
				Name:        "quantconnect",
				Class:       domain.ClassHandshake,
				URL:         "http://localhost:8000/mcp",
				Transport:   "http",
				RateLimited: true,
			},
		},
		Limiter: config.LimiterConfig{Capacity: 40, RefillRate: 40.0 / 60.0},
	}
}

func TestNewBuilder_MemoryStorageWhenNoDatabase(t *testing.T) {
	b, err := NewBuilder(testConfig())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	if b.db != nil {
		t.Error("Expected no database handle without a database URL")
	}
	if b.limiter == nil {
		t.Error("Expected a limiter when a service is rate limited")
	}

	stats, err := b.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalBuilds != 0 {
		t.Errorf("Expected empty statistics, got %d builds", stats.TotalBuilds)
	}
}

func TestNewBuilder_NoLimiterWithoutRateLimitedServices(t *testing.T) {
	cfg := testConfig()
	for i := range cfg.Services {
		cfg.Services[i].RateLimited = false
	}

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	if b.limiter != nil {
		t.Error("Expected no limiter when nothing is rate limited")
	}
}

func TestReportIteration_AdvisesRollbackOnDecline(t *testing.T) {
	b, err := NewBuilder(testConfig())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	ctx := context.Background()
	fitnesses := []float64{3.0, 2.0, 1.0}

	var rollback bool
	var best domain.FitnessSample
	for i, f := range fitnesses {
		rollback, best = b.ReportIteration(ctx, &domain.BuildRecord{
			ID:         fmt.Sprintf("v%d", i+1),
			Strategy:   "momentum",
			Status:     domain.BuildStatusSuccess,
			Fitness:    f,
			Iterations: i + 1,
		})
		if i < 2 && rollback {
			t.Fatalf("Rollback advised too early, after sample %d", i+1)
		}
	}

	if !rollback {
		t.Fatal("Expected rollback after three declining samples")
	}
	if best.Version != "v1" {
		t.Errorf("Expected rollback target v1, got %s", best.Version)
	}

	stats, err := b.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalBuilds != 3 || stats.SuccessfulBuilds != 3 {
		t.Errorf("Expected 3/3 builds persisted, got %d/%d",
			stats.SuccessfulBuilds, stats.TotalBuilds)
	}
	if stats.BestFitness != 3.0 {
		t.Errorf("Expected best fitness 3.0, got %f", stats.BestFitness)
	}
}

func TestReportIteration_FailedBuildsDoNotFeedFitness(t *testing.T) {
	b, err := NewBuilder(testConfig())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rollback, _ := b.ReportIteration(ctx, &domain.BuildRecord{
			Strategy: "momentum",
			Status:   domain.BuildStatusFailed,
			Error:    "compile failed",
		})
		if rollback {
			t.Fatal("Failed builds must never advise rollback")
		}
	}

	if b.tracker.Len() != 0 {
		t.Errorf("Failed builds should not be tracked, got %d samples", b.tracker.Len())
	}

	stats, err := b.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalBuilds != 3 || stats.SuccessfulBuilds != 0 {
		t.Errorf("Expected 3 failed builds persisted, got %d/%d",
			stats.SuccessfulBuilds, stats.TotalBuilds)
	}
}
