// Package storage defines persistence interfaces for build outcomes and
// health samples. Implementations live in the memory and postgres
// subpackages.
package storage

import (
	"context"

	"github.com/quantforge/forge/internal/core/domain"
)

// BuildStatistics holds aggregate build metrics over a recent window.
type BuildStatistics struct {
	TotalBuilds      int     `json:"total_builds"`
	SuccessfulBuilds int     `json:"successful_builds"`
	SuccessRate      float64 `json:"success_rate"`
	AvgFitness       float64 `json:"avg_fitness"`
	BestFitness      float64 `json:"best_fitness"`
}

// BuildRepository persists build iteration outcomes.
type BuildRepository interface {
	Record(ctx context.Context, build *domain.BuildRecord) error
	Recent(ctx context.Context, limit int) ([]*domain.BuildRecord, error)
	Statistics(ctx context.Context) (BuildStatistics, error)
}

// HealthSampleRepository persists service health probe results.
type HealthSampleRepository interface {
	Record(ctx context.Context, sample *domain.HealthSample) error
	Recent(ctx context.Context, service domain.ServiceID, limit int) ([]*domain.HealthSample, error)
}
