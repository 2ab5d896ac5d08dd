package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvense/SatExam/internal/core/domain"
)

func sidecarItem(t *testing.T) domain.WorkItem {
	t.Helper()
	group := t.TempDir()
	return domain.WorkItem{
		ID:         filepath.Join(group, "001.png"),
		SourcePath: filepath.Join(group, "001.png"),
		GroupPath:  group,
		Key:        "001",
		Sequence:   1,
	}
}

func TestSidecarCache_Paths(t *testing.T) {
	cache := NewSidecarCache()
	item := sidecarItem(t)

	assert.Equal(t, filepath.Join(item.GroupPath, "001.txt"), cache.TextPath(item))
	assert.Equal(t, filepath.Join(item.GroupPath, "001.type.txt"), cache.CategoryPath(item))
}

func TestSidecarCache_StoreAndLoad(t *testing.T) {
	cache := NewSidecarCache()
	item := sidecarItem(t)

	assert.False(t, cache.Has(item))
	_, err := cache.Load(item)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, cache.Store(item, "recognised text\n"))
	assert.True(t, cache.Has(item))

	text, err := cache.Load(item)
	require.NoError(t, err)
	assert.Equal(t, "recognised text", text)
}

func TestSidecarCache_EmptySidecarCountsAsAbsent(t *testing.T) {
	cache := NewSidecarCache()
	item := sidecarItem(t)

	// A crashed run can leave an empty file behind.
	require.NoError(t, os.WriteFile(cache.TextPath(item), nil, 0o644))

	assert.False(t, cache.Has(item))
	_, err := cache.Load(item)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSidecarCache_WhitespaceOnlySidecar(t *testing.T) {
	cache := NewSidecarCache()
	item := sidecarItem(t)

	require.NoError(t, os.WriteFile(cache.TextPath(item), []byte("  \n\t"), 0o644))

	_, err := cache.Load(item)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSidecarCache_StoreCategory(t *testing.T) {
	cache := NewSidecarCache()
	item := sidecarItem(t)

	require.NoError(t, cache.StoreCategory(item, domain.MathHeartOfAlgebra))

	data, err := os.ReadFile(cache.CategoryPath(item))
	require.NoError(t, err)
	assert.Equal(t, "math-heart-of-algebra", string(data))
}
