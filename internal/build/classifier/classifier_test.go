package classifier

import (
	"testing"

	"github.com/quantforge/forge/internal/core/domain"
)

func TestClassify_PatternGroups(t *testing.T) {
	c := New()

	tests := []struct {
		message string
		expect  domain.Category
	}{
		{"API key invalid", domain.CategoryAPIError},
		{"api KEY is invalid for this account", domain.CategoryAPIError},
		{"Insufficient backtest credits remaining", domain.CategoryAPIError},
		{"Rate limit exceeded", domain.CategoryAPIError},
		{"API request timeout after 30s", domain.CategoryAPIError},
		{"SyntaxError: unexpected token", domain.CategoryCodeError},
		{"NameError: name 'self' is not defined", domain.CategoryCodeError},
		{"TypeError: unsupported operand", domain.CategoryCodeError},
		{"ImportError: no module named talib", domain.CategoryCodeError},
		{"Not enough memory to run backtest", domain.CategoryResourceError},
		{"Disk space exhausted on node", domain.CategoryResourceError},
		{"Connection refused by host", domain.CategoryResourceError},
		{"Network transport error", domain.CategoryResourceError},
		{"quantum flux misaligned", domain.CategoryUnknown},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.message); got != tt.expect {
			t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.expect)
		}
	}
}

func TestClassify_GroupPriority(t *testing.T) {
	c := New()
	// Matches both an API pattern and a code pattern; API group wins.
	msg := "TypeError while handling Rate limit exceeded response"
	if got := c.Classify(msg); got != domain.CategoryAPIError {
		t.Errorf("Expected API_ERROR for priority order, got %s", got)
	}
}

func TestClassify_SimilarityFallback(t *testing.T) {
	c := New()

	msg := "Backtest deployment slot unavailable on node 7"
	if got := c.Classify(msg); got != domain.CategoryUnknown {
		t.Fatalf("Expected UNKNOWN with empty history, got %s", got)
	}

	c.RecordExample(msg, domain.CategoryResourceError)

	paraphrased := "Backtest deployment slot unavailable on node 9"
	if got := c.Classify(paraphrased); got != domain.CategoryResourceError {
		t.Errorf("Expected RESOURCE_ERROR via similarity, got %s", got)
	}

	unrelated := "the cat sat on the mat"
	if got := c.Classify(unrelated); got != domain.CategoryUnknown {
		t.Errorf("Expected UNKNOWN for dissimilar message, got %s", got)
	}
}

func TestRecordExample_HistoryCapped(t *testing.T) {
	c := NewWithHistoryLimit(3)
	for i := 0; i < 5; i++ {
		c.RecordExample("example", domain.CategoryUnknown)
	}
	if got := c.HistoryLen(); got != 3 {
		t.Errorf("Expected history capped at 3, got %d", got)
	}
}

func TestMatchRatio(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"", "", 1.0, 1.0},
		{"abc", "abc", 1.0, 1.0},
		{"abc", "xyz", 0.0, 0.0},
		{"Connection refused by host X", "Connection refused by host Y", 0.9, 1.0},
		{"abcd", "bcde", 0.7, 0.8},
	}

	for _, tt := range tests {
		got := matchRatio(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("matchRatio(%q, %q) = %f, want within [%f, %f]",
				tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}
