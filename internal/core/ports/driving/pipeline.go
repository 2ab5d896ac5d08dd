package driving

import (
	"context"
	"time"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// BatchProcessor coordinates one batch transformation run.
type BatchProcessor interface {
	// Run enumerates work under the configured root and processes it to
	// completion. Per-item failures are counted, never propagated; the
	// returned error covers run-level fatal conditions only (missing root,
	// unreachable store or recognizer).
	Run(ctx context.Context) (*RunReport, error)

	// Status returns a snapshot of the run's progress. Safe to call from
	// another goroutine while Run is in flight.
	Status() RunStatus
}

// RunStatus is a point-in-time view of pipeline progress.
type RunStatus struct {
	// Running indicates whether a run is in progress.
	Running bool

	// Total is the number of items selected for this run.
	Total int

	// Processed counts items finished so far, in any outcome.
	Processed int

	// Succeeded counts items recognised, classified and stored.
	Succeeded int

	// Failed counts items that exhausted their retries.
	Failed int

	// Skipped counts items excluded by the completion gate.
	Skipped int
}

// RunReport is the end-of-run summary.
type RunReport struct {
	RunStatus

	// FailedKeys lists the item IDs that failed, in completion order.
	FailedKeys []string

	// Distribution maps categories to how many items received them
	// during this run.
	Distribution map[domain.QuestionType]int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}
