// Package memory provides in-memory repository implementations, used
// when no database is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/storage"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	builds  []*domain.BuildRecord
	samples map[domain.ServiceID][]*domain.HealthSample
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		samples: make(map[domain.ServiceID][]*domain.HealthSample),
	}
}

// -----------------------------------------------------------------------------
// Build Repository
// -----------------------------------------------------------------------------

type BuildRepo struct {
	store *MemoryStorage
}

func NewBuildRepo(store *MemoryStorage) *BuildRepo {
	return &BuildRepo{store: store}
}

func (r *BuildRepo) Record(ctx context.Context, build *domain.BuildRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.builds = append(r.store.builds, build)
	return nil
}

func (r *BuildRepo) Recent(ctx context.Context, limit int) ([]*domain.BuildRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n := len(r.store.builds)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Newest first.
	out := make([]*domain.BuildRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.store.builds[i])
	}
	return out, nil
}

func (r *BuildRepo) Statistics(ctx context.Context) (storage.BuildStatistics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats storage.BuildStatistics
	var fitnessSum float64
	var fitnessCount int

	for _, b := range r.store.builds {
		stats.TotalBuilds++
		if b.Status == domain.BuildStatusSuccess {
			stats.SuccessfulBuilds++
			fitnessSum += b.Fitness
			fitnessCount++
			if b.Fitness > stats.BestFitness {
				stats.BestFitness = b.Fitness
			}
		}
	}

	if stats.TotalBuilds > 0 {
		stats.SuccessRate = float64(stats.SuccessfulBuilds) / float64(stats.TotalBuilds) * 100
	}
	if fitnessCount > 0 {
		stats.AvgFitness = fitnessSum / float64(fitnessCount)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------
// Health Sample Repository
// -----------------------------------------------------------------------------

type HealthRepo struct {
	store *MemoryStorage
}

func NewHealthRepo(store *MemoryStorage) *HealthRepo {
	return &HealthRepo{store: store}
}

func (r *HealthRepo) Record(ctx context.Context, sample *domain.HealthSample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.samples[sample.Service] = append(r.store.samples[sample.Service], sample)
	return nil
}

func (r *HealthRepo) Recent(
	ctx context.Context,
	service domain.ServiceID,
	limit int,
) ([]*domain.HealthSample, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	samples := r.store.samples[service]
	n := len(samples)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*domain.HealthSample, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, samples[i])
	}
	return out, nil
}
