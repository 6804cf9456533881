// Package fitness tracks the quality metric of build iterations and
// advises rollback on sustained regression.
package fitness

import (
	"log/slog"
	"sync"

	"github.com/quantforge/forge/internal/build/metrics"
	"github.com/quantforge/forge/internal/core/domain"
)

// rollbackWindow is the number of trailing samples inspected; requiring
// two consecutive declines guards against a single noisy dip.
const rollbackWindow = 3

// Tracker records one fitness sample per build iteration. The history is
// append-only; callers report in iteration order.
type Tracker struct {
	mu      sync.Mutex
	history []domain.FitnessSample
	log     *slog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{log: slog.Default()}
}

// Record appends a sample for a strategy version.
func (t *Tracker) Record(version string, metric float64, iteration int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, domain.FitnessSample{
		Version:   version,
		Metric:    metric,
		Iteration: iteration,
	})
	metrics.BuildFitness.WithLabelValues(version).Set(metric)
	t.log.Info("Fitness recorded",
		"iteration", iteration, "metric", metric, "version", version)
}

// ShouldRollback reports whether fitness has strictly decreased across
// the last two consecutive iterations. Always false with fewer than
// three samples.
func (t *Tracker) ShouldRollback() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) < rollbackWindow {
		return false
	}

	recent := t.history[len(t.history)-rollbackWindow:]
	if recent[2].Metric < recent[1].Metric && recent[1].Metric < recent[0].Metric {
		t.log.Warn("Fitness degrading",
			"metrics", []float64{recent[0].Metric, recent[1].Metric, recent[2].Metric})
		return true
	}
	return false
}

// Best returns the sample with the maximum metric, ties broken by
// earliest insertion. ok is false when no samples exist.
func (t *Tracker) Best() (domain.FitnessSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return domain.FitnessSample{}, false
	}

	best := t.history[0]
	for _, s := range t.history[1:] {
		if s.Metric > best.Metric {
			best = s
		}
	}
	return best, true
}

// Len returns the number of recorded samples.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}
