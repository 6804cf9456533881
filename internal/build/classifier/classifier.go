// Package classifier maps failure messages to stable categories for
// escalation routing, learning from prior labeled examples.
package classifier

import (
	"regexp"
	"sync"

	"github.com/quantforge/forge/internal/core/domain"
)

const (
	// similarityThreshold is the minimum match ratio for the fallback
	// lookup against recorded examples.
	similarityThreshold = 0.80

	// defaultHistoryLimit bounds the example list so classification
	// latency stays bounded as the example set grows.
	defaultHistoryLimit = 512
)

type patternGroup struct {
	category domain.Category
	patterns []*regexp.Regexp
}

func compileGroup(category domain.Category, exprs ...string) patternGroup {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		patterns[i] = regexp.MustCompile("(?i)" + e)
	}
	return patternGroup{category: category, patterns: patterns}
}

// groups are checked in priority order; first match wins.
var groups = []patternGroup{
	compileGroup(domain.CategoryAPIError,
		`API.*key.*invalid`,
		`Insufficient.*credits`,
		`Rate limit exceeded`,
		`API.*timeout`,
	),
	compileGroup(domain.CategoryCodeError,
		`SyntaxError`,
		`NameError`,
		`TypeError`,
		`IndentationError`,
		`AttributeError`,
		`ImportError`,
	),
	compileGroup(domain.CategoryResourceError,
		`Not enough memory`,
		`Disk space`,
		`Connection refused`,
		`Network.*error`,
	),
}

// Classifier assigns categories using fixed rules first and a similarity
// fallback against recorded examples second. Exact rules give
// deterministic routing for known failure signatures; the fallback
// generalizes to paraphrased or versioned error text.
type Classifier struct {
	mu           sync.Mutex
	history      []domain.ErrorRecord
	historyLimit int
}

// New creates a classifier with the default example history limit.
func New() *Classifier {
	return &Classifier{historyLimit: defaultHistoryLimit}
}

// NewWithHistoryLimit creates a classifier with a custom example cap.
func NewWithHistoryLimit(limit int) *Classifier {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Classifier{historyLimit: limit}
}

// Classify maps a failure message to a category. Pattern groups are
// tried in priority order; if none match, the best similarity against
// recorded examples decides, at or above the threshold. Otherwise the
// message stays UNKNOWN for manual triage.
func (c *Classifier) Classify(message string) domain.Category {
	for _, g := range groups {
		for _, p := range g.patterns {
			if p.MatchString(message) {
				return g.category
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	best := 0.0
	category := domain.CategoryUnknown
	for _, rec := range c.history {
		if score := matchRatio(message, rec.Message); score > best {
			best = score
			category = rec.Classification
		}
	}
	if best >= similarityThreshold {
		return category
	}

	return domain.CategoryUnknown
}

// RecordExample appends a labeled example for similarity matching.
// The history is a ring: the oldest example is dropped at the cap.
func (c *Classifier) RecordExample(message string, category domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, domain.ErrorRecord{
		Message:        message,
		Classification: category,
	})
	if len(c.history) > c.historyLimit {
		c.history = c.history[1:]
	}
}

// HistoryLen returns the number of recorded examples.
func (c *Classifier) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
