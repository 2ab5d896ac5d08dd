package services

import (
	"sync"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driving"
)

// Aggregator accumulates per-run counters: outcomes, failed keys and the
// category distribution. Workers report concurrently; all mutation is
// mutex-protected. State is scoped to one run and never persisted.
type Aggregator struct {
	mu           sync.Mutex
	total        int
	succeeded    int
	failed       int
	skipped      int
	failedKeys   []string
	distribution map[domain.QuestionType]int
}

// NewAggregator creates an empty aggregator for a run over total items.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		total:        total,
		distribution: make(map[domain.QuestionType]int),
	}
}

// Success records a completed item and its assigned category.
func (a *Aggregator) Success(category domain.QuestionType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.succeeded++
	a.distribution[category]++
}

// Failure records an item that exhausted its retries.
func (a *Aggregator) Failure(itemID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
	a.failedKeys = append(a.failedKeys, itemID)
}

// Skip records an item excluded by the completion gate.
func (a *Aggregator) Skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skipped++
}

// Snapshot returns a point-in-time view of the counters.
func (a *Aggregator) Snapshot() driving.RunStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return driving.RunStatus{
		Total:     a.total,
		Processed: a.succeeded + a.failed + a.skipped,
		Succeeded: a.succeeded,
		Failed:    a.failed,
		Skipped:   a.skipped,
	}
}

// Report produces the end-of-run summary. FailedKeys and Distribution are
// copies; the caller may keep them after the aggregator is discarded.
func (a *Aggregator) Report() *driving.RunReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, len(a.failedKeys))
	copy(keys, a.failedKeys)

	dist := make(map[domain.QuestionType]int, len(a.distribution))
	for k, v := range a.distribution {
		dist[k] = v
	}

	return &driving.RunReport{
		RunStatus: driving.RunStatus{
			Total:     a.total,
			Processed: a.succeeded + a.failed + a.skipped,
			Succeeded: a.succeeded,
			Failed:    a.failed,
			Skipped:   a.skipped,
		},
		FailedKeys:   keys,
		Distribution: dist,
	}
}
