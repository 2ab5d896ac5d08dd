package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/core/ports/driving"
	"github.com/skyvense/SatExam/internal/logger"
)

// Ensure Processor implements the interface.
var _ driving.BatchProcessor = (*Processor)(nil)

// Processor coordinates one batch transformation run: it enumerates work,
// filters it through the completion gate, dispatches it to a bounded pool
// of workers, and records the deduplicated outcomes.
type Processor struct {
	source  driven.WorkSource
	gate    driven.CompletionGate
	cache   driven.RecognitionCache
	invoker *Invoker
	engine  *Engine
	store   driven.ResultStore
	cfg     domain.Config

	mu      sync.RWMutex
	running bool
	stats   *Aggregator
}

// NewProcessor creates a batch processor. All collaborators are required
// except the primary classifier inside engine, which may be disabled.
func NewProcessor(
	source driven.WorkSource,
	gate driven.CompletionGate,
	cache driven.RecognitionCache,
	invoker *Invoker,
	engine *Engine,
	store driven.ResultStore,
	cfg domain.Config,
) *Processor {
	return &Processor{
		source:  source,
		gate:    gate,
		cache:   cache,
		invoker: invoker,
		engine:  engine,
		store:   store,
		cfg:     cfg,
		stats:   NewAggregator(0),
	}
}

// Run processes every eligible item under the configured root.
//
// Run-level fatal conditions (missing root, unreachable recognition
// service) return an error immediately. Per-item failures are counted and reported in the
// final RunReport, never propagated: a single bad page does not abort
// the batch.
func (p *Processor) Run(ctx context.Context) (*driving.RunReport, error) {
	if _, err := os.Stat(p.cfg.Root); err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if err := p.invoker.Ping(ctx); err != nil {
		return nil, fmt.Errorf("recognition service unreachable: %w", err)
	}

	items, err := p.source.Enumerate(ctx, p.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("enumerate work: %w", err)
	}

	// startFrom is an offset into the deterministic, pre-ordered sequence.
	if p.cfg.StartFrom > 0 {
		if p.cfg.StartFrom >= len(items) {
			items = nil
		} else {
			items = items[p.cfg.StartFrom:]
		}
	}

	stats := NewAggregator(len(items))
	p.setRun(true, stats)
	defer p.setRun(false, stats)

	start := time.Now()
	logger.Info("Processing %d item(s) with %d worker(s)", len(items), p.cfg.MaxWorkers)

	// Bounded worker pool: the semaphore holds one slot per in-flight
	// item, so dispatch blocks once MaxWorkers items are running. With
	// MaxWorkers=1 invocation order equals enumeration order.
	sem := make(chan struct{}, p.cfg.MaxWorkers)
	var wg sync.WaitGroup

	dispatched := 0
	for _, item := range items {
		// Stop accepting new dispatch on interrupt or once the cap is
		// reached; in-flight items finish naturally below.
		if ctx.Err() != nil {
			break
		}
		if p.cfg.MaxFiles > 0 && dispatched >= p.cfg.MaxFiles {
			logger.Info("Dispatch cap of %d reached", p.cfg.MaxFiles)
			break
		}

		process, err := p.gate.ShouldProcess(ctx, item)
		if err != nil {
			logger.Warn("Completion check for %s failed: %v", item.ID, err)
			stats.Failure(item.ID)
			continue
		}
		if !process {
			logger.Debug("Skipping %s (already complete)", item.ID)
			stats.Skip()
			continue
		}

		dispatched++
		sem <- struct{}{}
		wg.Add(1)
		go func(it domain.WorkItem) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processOne(ctx, it, stats)
		}(item)
	}

	wg.Wait()

	report := stats.Report()
	report.Elapsed = time.Since(start)
	logger.Info("Run complete: %d succeeded, %d failed, %d skipped",
		report.Succeeded, report.Failed, report.Skipped)
	return report, nil
}

// Status returns a snapshot of the current (or most recent) run.
func (p *Processor) Status() driving.RunStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	status := p.stats.Snapshot()
	status.Running = p.running
	return status
}

// processOne runs the recognise → classify → persist pipeline for a
// single item. All failure handling terminates here.
func (p *Processor) processOne(ctx context.Context, item domain.WorkItem, stats *Aggregator) {
	recognition, err := p.invoker.Invoke(ctx, item)
	if err != nil {
		var failure *ItemFailure
		if errors.As(err, &failure) {
			logger.Warn("Recognition of %s failed after %d attempt(s): %s",
				item.ID, failure.Attempts, failure.Kind)
		} else {
			logger.Warn("Recognition of %s failed: %v", item.ID, err)
		}
		stats.Failure(item.ID)
		return
	}

	if err := p.cache.Store(item, recognition.Text); err != nil {
		logger.Warn("Writing text cache for %s failed: %v", item.ID, err)
		stats.Failure(item.ID)
		return
	}

	result := p.engine.Classify(ctx, item.ID, recognition.Text)

	if err := p.cache.StoreCategory(item, result.Category); err != nil {
		logger.Warn("Writing category cache for %s failed: %v", item.ID, err)
	}

	rec := domain.Record{
		ID:         uuid.NewString(),
		GroupPath:  item.GroupPath,
		ItemKey:    item.Key,
		Category:   result.Category,
		Content:    recognition.Text,
		Confidence: result.Confidence,
		Strategy:   result.Strategy,
		RecordedAt: time.Now().UTC(),
	}
	if err := p.store.Upsert(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrStorageConflict) {
			logger.Warn("Storage conflict for %s/%s, this is a bug: %v",
				item.GroupPath, item.Key, err)
		} else {
			logger.Warn("Persisting %s failed: %v", item.ID, err)
		}
		stats.Failure(item.ID)
		return
	}

	logger.Debug("Processed %s -> %s (%.2f, %s)",
		item.ID, result.Category, result.Confidence, result.Strategy)
	stats.Success(result.Category)
}

// setRun swaps the active aggregator and the running flag together.
func (p *Processor) setRun(running bool, stats *Aggregator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = running
	p.stats = stats
}
