package driven

import (
	"context"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// WorkSource enumerates processable items beneath a root directory.
//
// The sequence is finite, restartable, and naturally ordered: groups sort
// lexicographically, items within a group by their numeric filename prefix
// (2 before 10, never lexical order). Hidden and marker-prefixed entries,
// zero-byte files and undersized groups are filtered out. An unreadable
// subtree is logged and skipped, never fatal.
type WorkSource interface {
	// Enumerate walks root and returns the ordered work items.
	Enumerate(ctx context.Context, root string) ([]domain.WorkItem, error)
}

// CompletionGate decides whether an item still needs processing.
// It is what makes repeated pipeline invocations idempotent: a second run
// over an unchanged tree performs zero redundant remote calls.
type CompletionGate interface {
	// ShouldProcess returns false when a durable result already exists
	// for the item. It has no side effects.
	ShouldProcess(ctx context.Context, item domain.WorkItem) (bool, error)
}

// RecognitionCache persists recognised text as a sidecar artifact next to
// the source file, and the assigned category as a second type sidecar.
type RecognitionCache interface {
	// Load returns the cached text for the item, or domain.ErrNotFound.
	Load(item domain.WorkItem) (string, error)

	// Store writes the recognised text sidecar.
	Store(item domain.WorkItem, text string) error

	// StoreCategory writes the category sidecar.
	StoreCategory(item domain.WorkItem, category domain.QuestionType) error

	// Has reports whether a non-empty text sidecar exists.
	Has(item domain.WorkItem) bool
}
