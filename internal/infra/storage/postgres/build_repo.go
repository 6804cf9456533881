package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/storage"
)

// BuildRepo implements storage.BuildRepository using PostgreSQL.
type BuildRepo struct {
	db *DB
}

// NewBuildRepo creates a new PostgreSQL build repository.
func NewBuildRepo(db *DB) *BuildRepo {
	return &BuildRepo{db: db}
}

// Record saves a build outcome to the database.
func (r *BuildRepo) Record(ctx context.Context, build *domain.BuildRecord) error {
	query := `
		INSERT INTO builds (id, created_at, strategy_name, status, fitness, duration_seconds, error_message, iterations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			fitness = EXCLUDED.fitness,
			duration_seconds = EXCLUDED.duration_seconds,
			error_message = EXCLUDED.error_message,
			iterations = EXCLUDED.iterations
	`

	_, err := r.db.ExecContext(ctx, query,
		build.ID,
		build.Timestamp,
		build.Strategy,
		string(build.Status),
		build.Fitness,
		build.Duration,
		build.Error,
		build.Iterations,
	)
	if err != nil {
		return fmt.Errorf("failed to save build: %w", err)
	}
	return nil
}

type buildRow struct {
	ID         string    `db:"id"`
	CreatedAt  time.Time `db:"created_at"`
	Strategy   string    `db:"strategy_name"`
	Status     string    `db:"status"`
	Fitness    float64   `db:"fitness"`
	Duration   int64     `db:"duration_seconds"`
	Error      string    `db:"error_message"`
	Iterations int       `db:"iterations"`
}

func (b *buildRow) toDomain() *domain.BuildRecord {
	return &domain.BuildRecord{
		ID:         b.ID,
		Timestamp:  b.CreatedAt,
		Strategy:   b.Strategy,
		Status:     domain.BuildStatus(b.Status),
		Fitness:    b.Fitness,
		Duration:   b.Duration,
		Error:      b.Error,
		Iterations: b.Iterations,
	}
}

// Recent retrieves the most recent builds, newest first.
func (r *BuildRepo) Recent(ctx context.Context, limit int) ([]*domain.BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, created_at, strategy_name, status, fitness, duration_seconds, error_message, iterations
		FROM builds
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []buildRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}

	out := make([]*domain.BuildRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Statistics computes aggregate build metrics.
func (r *BuildRepo) Statistics(ctx context.Context) (storage.BuildStatistics, error) {
	query := `
		SELECT
			COUNT(*) AS total_builds,
			COUNT(*) FILTER (WHERE status = 'success') AS successful_builds,
			COALESCE(AVG(fitness) FILTER (WHERE status = 'success'), 0) AS avg_fitness,
			COALESCE(MAX(fitness) FILTER (WHERE status = 'success'), 0) AS best_fitness
		FROM builds
	`

	var row struct {
		TotalBuilds      int     `db:"total_builds"`
		SuccessfulBuilds int     `db:"successful_builds"`
		AvgFitness       float64 `db:"avg_fitness"`
		BestFitness      float64 `db:"best_fitness"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return storage.BuildStatistics{}, fmt.Errorf("failed to compute build statistics: %w", err)
	}

	stats := storage.BuildStatistics{
		TotalBuilds:      row.TotalBuilds,
		SuccessfulBuilds: row.SuccessfulBuilds,
		AvgFitness:       row.AvgFitness,
		BestFitness:      row.BestFitness,
	}
	if stats.TotalBuilds > 0 {
		stats.SuccessRate = float64(stats.SuccessfulBuilds) / float64(stats.TotalBuilds) * 100
	}
	return stats, nil
}
