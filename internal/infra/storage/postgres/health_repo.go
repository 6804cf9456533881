package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
)

// HealthRepo implements storage.HealthSampleRepository using PostgreSQL.
type HealthRepo struct {
	db *DB
}

// NewHealthRepo creates a new PostgreSQL health sample repository.
func NewHealthRepo(db *DB) *HealthRepo {
	return &HealthRepo{db: db}
}

// Record saves a probe result to the database.
func (r *HealthRepo) Record(ctx context.Context, sample *domain.HealthSample) error {
	query := `
		INSERT INTO health_samples (service, status, latency_ms, probed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		string(sample.Service),
		sample.Status,
		sample.LatencyMS,
		sample.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save health sample: %w", err)
	}
	return nil
}

type healthRow struct {
	Service   string    `db:"service"`
	Status    string    `db:"status"`
	LatencyMS float64   `db:"latency_ms"`
	ProbedAt  time.Time `db:"probed_at"`
}

func (h *healthRow) toDomain() *domain.HealthSample {
	return &domain.HealthSample{
		Service:   domain.ServiceID(h.Service),
		Status:    h.Status,
		LatencyMS: h.LatencyMS,
		Timestamp: h.ProbedAt,
	}
}

// Recent retrieves the most recent probe results for a service, newest first.
func (r *HealthRepo) Recent(
	ctx context.Context,
	service domain.ServiceID,
	limit int,
) ([]*domain.HealthSample, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT service, status, latency_ms, probed_at
		FROM health_samples
		WHERE service = $1
		ORDER BY probed_at DESC
		LIMIT $2
	`

	var rows []healthRow
	if err := r.db.SelectContext(ctx, &rows, query, string(service), limit); err != nil {
		return nil, fmt.Errorf("failed to list health samples: %w", err)
	}

	out := make([]*domain.HealthSample, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
