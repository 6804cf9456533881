package fitness

import "testing"

func TestShouldRollback_TwoConsecutiveDeclines(t *testing.T) {
	tr := NewTracker()

	tr.Record("v1", 3.0, 1)
	if tr.ShouldRollback() {
		t.Error("Rollback advised after a single sample")
	}

	tr.Record("v2", 2.0, 2)
	if tr.ShouldRollback() {
		t.Error("Rollback advised after two samples")
	}

	tr.Record("v3", 1.0, 3)
	if !tr.ShouldRollback() {
		t.Error("Expected rollback after two consecutive declines")
	}
}

func TestShouldRollback_SingleDipRecovers(t *testing.T) {
	tr := NewTracker()
	tr.Record("v1", 2.0, 1)
	tr.Record("v2", 1.5, 2)
	tr.Record("v3", 1.8, 3)

	if tr.ShouldRollback() {
		t.Error("Rollback advised on a recovered dip")
	}
}

func TestShouldRollback_EqualMetricsNotDecline(t *testing.T) {
	tr := NewTracker()
	tr.Record("v1", 2.0, 1)
	tr.Record("v2", 2.0, 2)
	tr.Record("v3", 1.0, 3)

	if tr.ShouldRollback() {
		t.Error("Plateau followed by one decline should not trigger rollback")
	}
}

func TestShouldRollback_OnlyTrailingWindowCounts(t *testing.T) {
	tr := NewTracker()
	tr.Record("v1", 5.0, 1)
	tr.Record("v2", 4.0, 2)
	tr.Record("v3", 3.0, 3)
	tr.Record("v4", 6.0, 4)

	if tr.ShouldRollback() {
		t.Error("Recovery in the trailing window should clear rollback advice")
	}
}

func TestBest_MaxMetricFirstOccurrenceWins(t *testing.T) {
	tr := NewTracker()

	if _, ok := tr.Best(); ok {
		t.Fatal("Best on empty tracker should report no sample")
	}

	tr.Record("v1", 3.0, 1)
	tr.Record("v2", 2.0, 2)
	tr.Record("v3", 1.0, 3)

	best, ok := tr.Best()
	if !ok {
		t.Fatal("Expected a best sample")
	}
	if best.Version != "v1" || best.Metric != 3.0 {
		t.Errorf("Expected v1/3.0, got %s/%f", best.Version, best.Metric)
	}

	// Tie: the earlier insertion wins.
	tr.Record("v4", 3.0, 4)
	best, _ = tr.Best()
	if best.Version != "v1" {
		t.Errorf("Expected tie broken by earliest insertion (v1), got %s", best.Version)
	}
}
