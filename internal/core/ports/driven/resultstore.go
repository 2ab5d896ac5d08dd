package driven

import (
	"context"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// ResultStore persists one record per logical item, deduplicated on
// (GroupPath, ItemKey). The store is the single writer of record: workers
// funnel their upserts through it and it serialises them internally.
type ResultStore interface {
	// Upsert inserts the record or replaces the existing row for the same
	// (GroupPath, ItemKey). A uniqueness violation that survives the upsert
	// is reported as domain.ErrStorageConflict.
	Upsert(ctx context.Context, rec domain.Record) error

	// Get retrieves the record for one item, or domain.ErrNotFound.
	Get(ctx context.Context, groupPath, itemKey string) (*domain.Record, error)

	// Has reports whether a record exists for the item.
	Has(ctx context.Context, groupPath, itemKey string) (bool, error)

	// ListByGroup returns all records for a group, ordered by item key.
	ListByGroup(ctx context.Context, groupPath string) ([]domain.Record, error)

	// ListByCategory returns records carrying the category, newest first.
	ListByCategory(ctx context.Context, category domain.QuestionType, limit, offset int) ([]domain.Record, error)

	// Summary computes the total count and per-category distribution
	// in a single pass.
	Summary(ctx context.Context) (*domain.StoreSummary, error)

	// Close releases the underlying handle.
	Close() error
}
