package filesystem

import (
	"context"
	"fmt"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Ensure Gate implements the interface.
var _ driven.CompletionGate = (*Gate)(nil)

// Gate is the completion check that makes repeated runs idempotent.
// An item is complete when its text sidecar exists or the result store
// already holds a record for it; forceReprocess bypasses both checks.
type Gate struct {
	cache          driven.RecognitionCache
	store          driven.ResultStore
	forceReprocess bool
}

// NewGate creates a completion gate. store may be nil when only the
// sidecar check is wanted (e.g. the classify-only command).
func NewGate(cache driven.RecognitionCache, store driven.ResultStore, forceReprocess bool) *Gate {
	return &Gate{cache: cache, store: store, forceReprocess: forceReprocess}
}

// ShouldProcess returns false when a durable result already exists.
// It performs reads only; the gate never mutates anything.
func (g *Gate) ShouldProcess(ctx context.Context, item domain.WorkItem) (bool, error) {
	if g.forceReprocess {
		return true, nil
	}

	if g.cache != nil && g.cache.Has(item) {
		return false, nil
	}

	if g.store != nil {
		exists, err := g.store.Has(ctx, item.GroupPath, item.Key)
		if err != nil {
			return false, fmt.Errorf("checking store record: %w", err)
		}
		if exists {
			return false, nil
		}
	}

	return true, nil
}
