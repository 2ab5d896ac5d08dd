package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// listSource serves a fixed item slice.
type listSource struct {
	items []domain.WorkItem
}

func (s *listSource) Enumerate(context.Context, string) ([]domain.WorkItem, error) {
	return s.items, nil
}

// memCache is an in-memory RecognitionCache.
type memCache struct {
	mu         sync.Mutex
	texts      map[string]string
	categories map[string]domain.QuestionType
}

var _ driven.RecognitionCache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{
		texts:      make(map[string]string),
		categories: make(map[string]domain.QuestionType),
	}
}

func (c *memCache) Load(item domain.WorkItem) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.texts[item.ID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (c *memCache) Store(item domain.WorkItem, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts[item.ID] = text
	return nil
}

func (c *memCache) StoreCategory(item domain.WorkItem, category domain.QuestionType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[item.ID] = category
	return nil
}

func (c *memCache) Has(item domain.WorkItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.texts[item.ID]
	return ok
}

// memStore is an in-memory ResultStore keyed on (GroupPath, ItemKey).
type memStore struct {
	mu      sync.Mutex
	records map[string]domain.Record
}

var _ driven.ResultStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.Record)}
}

func storeKey(groupPath, itemKey string) string {
	return groupPath + "\x00" + itemKey
}

func (s *memStore) Upsert(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(rec.GroupPath, rec.ItemKey)] = rec
	return nil
}

func (s *memStore) Get(_ context.Context, groupPath, itemKey string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[storeKey(groupPath, itemKey)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *memStore) Has(_ context.Context, groupPath, itemKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[storeKey(groupPath, itemKey)]
	return ok, nil
}

func (s *memStore) ListByGroup(context.Context, string) ([]domain.Record, error) {
	return nil, nil
}

func (s *memStore) ListByCategory(context.Context, domain.QuestionType, int, int) ([]domain.Record, error) {
	return nil, nil
}

func (s *memStore) Summary(context.Context) (*domain.StoreSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.StoreSummary{Total: len(s.records)}, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// gate mirrors the production completion gate over the test doubles.
type gate struct {
	cache *memCache
	store *memStore
	force bool
}

func (g *gate) ShouldProcess(ctx context.Context, item domain.WorkItem) (bool, error) {
	if g.force {
		return true, nil
	}
	if g.cache.Has(item) {
		return false, nil
	}
	exists, err := g.store.Has(ctx, item.GroupPath, item.Key)
	return !exists, err
}

// countingRecognizer records which paths it was asked to recognise.
type countingRecognizer struct {
	mu      sync.Mutex
	paths   []string
	pingErr error
}

func (r *countingRecognizer) Recognize(_ context.Context, path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return "solve the equation 3x + 2 = 11", nil
}

func (r *countingRecognizer) ModelName() string          { return "counting" }
func (r *countingRecognizer) Ping(context.Context) error { return r.pingErr }
func (r *countingRecognizer) Close() error               { return nil }

func (r *countingRecognizer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func makeItems(root string, n int) []domain.WorkItem {
	group := filepath.Join(root, "paper-1")
	items := make([]domain.WorkItem, 0, n)
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("%03d", i)
		path := filepath.Join(group, key+".png")
		items = append(items, domain.WorkItem{
			ID:         path,
			SourcePath: path,
			GroupPath:  group,
			Key:        key,
			Sequence:   i,
		})
	}
	return items
}

// pipelineFixture bundles the doubles a processor test needs.
type pipelineFixture struct {
	source     *listSource
	cache      *memCache
	store      *memStore
	recognizer *countingRecognizer
	cfg        domain.Config
}

func newFixture(t *testing.T, n int) *pipelineFixture {
	t.Helper()
	root := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Root = root
	cfg.RequestsPerSecond = 1000
	cfg.BurstSize = 1000
	return &pipelineFixture{
		source:     &listSource{items: makeItems(root, n)},
		cache:      newMemCache(),
		store:      newMemStore(),
		recognizer: &countingRecognizer{},
		cfg:        cfg,
	}
}

func (f *pipelineFixture) processor() *Processor {
	invoker := NewInvoker(f.recognizer, f.cfg)
	invoker.sleep = func(context.Context, time.Duration) error { return nil }
	return NewProcessor(
		f.source,
		&gate{cache: f.cache, store: f.store, force: f.cfg.ForceReprocess},
		f.cache,
		invoker,
		NewEngine(nil, true, 0),
		f.store,
		f.cfg,
	)
}

func TestProcessor_ProcessesEveryItem(t *testing.T) {
	f := newFixture(t, 5)

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 5, f.store.count())
	assert.Equal(t, 5, f.recognizer.calls())

	// Equation text classifies as algebra via the fallback rules.
	assert.Equal(t, 5, report.Distribution[domain.MathHeartOfAlgebra])
}

func TestProcessor_UnreachableRecognizerFailsRun(t *testing.T) {
	f := newFixture(t, 3)
	f.recognizer.pingErr = fmt.Errorf("%w: connection refused", domain.ErrRecognizerUnavailable)

	report, err := f.processor().Run(context.Background())

	// The run aborts before any item is dispatched; nothing burns its
	// retry budget against a service that is down.
	require.ErrorIs(t, err, domain.ErrRecognizerUnavailable)
	assert.Nil(t, report)
	assert.Zero(t, f.recognizer.calls())
	assert.Zero(t, f.store.count())
}

func TestProcessor_RerunIsIdempotent(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.processor().Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, f.recognizer.calls())

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	// Second run over an unchanged tree makes zero remote calls.
	assert.Equal(t, 4, f.recognizer.calls())
	assert.Equal(t, 4, report.Skipped)
	assert.Zero(t, report.Succeeded)
	assert.Equal(t, 4, f.store.count())
}

func TestProcessor_PartialCacheOnlyProcessesRemainder(t *testing.T) {
	f := newFixture(t, 5)

	// Three of five already have text sidecars from a previous run.
	for _, item := range f.source.items[:3] {
		require.NoError(t, f.cache.Store(item, "cached text"))
	}

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, f.recognizer.calls())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 3, report.Skipped)
}

func TestProcessor_ForceReprocessBypassesGate(t *testing.T) {
	f := newFixture(t, 3)
	f.cfg.ForceReprocess = true

	_, err := f.processor().Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, f.recognizer.calls())

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, f.recognizer.calls())
	assert.Equal(t, 3, report.Succeeded)
	// Upserts replace rather than duplicate.
	assert.Equal(t, 3, f.store.count())
}

func TestProcessor_SingleWorkerPreservesOrder(t *testing.T) {
	f := newFixture(t, 6)
	f.cfg.MaxWorkers = 1

	_, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	var want []string
	for _, item := range f.source.items {
		want = append(want, item.SourcePath)
	}
	assert.Equal(t, want, f.recognizer.paths)
}

func TestProcessor_MaxFilesCapsDispatch(t *testing.T) {
	f := newFixture(t, 10)
	f.cfg.MaxFiles = 3

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, f.recognizer.calls())
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 10, report.Total)
}

func TestProcessor_MaxFilesCountsDispatchedNotSkipped(t *testing.T) {
	f := newFixture(t, 6)
	f.cfg.MaxFiles = 2

	// First two items are cached; the cap must still allow two fresh ones.
	for _, item := range f.source.items[:2] {
		require.NoError(t, f.cache.Store(item, "cached text"))
	}

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, f.recognizer.calls())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Skipped)
}

func TestProcessor_StartFromSkipsPrefix(t *testing.T) {
	f := newFixture(t, 5)
	f.cfg.StartFrom = 3
	f.cfg.MaxWorkers = 1

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, f.recognizer.calls())
	assert.Equal(t, f.source.items[3].SourcePath, f.recognizer.paths[0])
}

func TestProcessor_StartFromBeyondEnd(t *testing.T) {
	f := newFixture(t, 2)
	f.cfg.StartFrom = 10

	report, err := f.processor().Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Zero(t, f.recognizer.calls())
}

func TestProcessor_MissingRootFails(t *testing.T) {
	f := newFixture(t, 1)
	f.cfg.Root = filepath.Join(f.cfg.Root, "does-not-exist")

	_, err := f.processor().Run(context.Background())
	assert.Error(t, err)
}

func TestProcessor_CategorySidecarWritten(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	for _, item := range f.source.items {
		assert.Equal(t, domain.MathHeartOfAlgebra, f.cache.categories[item.ID])
	}
}
