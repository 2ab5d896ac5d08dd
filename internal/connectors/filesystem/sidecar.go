package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Ensure SidecarCache implements the interface.
var _ driven.RecognitionCache = (*SidecarCache)(nil)

// Sidecar suffixes. A page "001.png" caches its recognised text in
// "001.txt" and its category in "001.type.txt".
const (
	textSuffix     = ".txt"
	categorySuffix = ".type.txt"
)

// SidecarCache stores recognition results as files next to the source
// page, matching the on-disk convention the rest of the toolchain reads.
type SidecarCache struct{}

// NewSidecarCache creates a sidecar cache.
func NewSidecarCache() *SidecarCache {
	return &SidecarCache{}
}

// TextPath returns the recognised-text sidecar path for an item.
func (c *SidecarCache) TextPath(item domain.WorkItem) string {
	return filepath.Join(item.GroupPath, item.Key+textSuffix)
}

// CategoryPath returns the category sidecar path for an item.
func (c *SidecarCache) CategoryPath(item domain.WorkItem) string {
	return filepath.Join(item.GroupPath, item.Key+categorySuffix)
}

// Has reports whether a non-empty text sidecar exists. An empty sidecar
// counts as absent: a crashed run may leave one behind.
func (c *SidecarCache) Has(item domain.WorkItem) bool {
	info, err := os.Stat(c.TextPath(item))
	return err == nil && info.Size() > 0
}

// Load returns the cached text for the item.
func (c *SidecarCache) Load(item domain.WorkItem) (string, error) {
	data, err := os.ReadFile(c.TextPath(item))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("reading sidecar: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.ErrNotFound
	}
	return text, nil
}

// Store writes the recognised text sidecar.
func (c *SidecarCache) Store(item domain.WorkItem, text string) error {
	if err := os.WriteFile(c.TextPath(item), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// StoreCategory writes the category sidecar.
func (c *SidecarCache) StoreCategory(item domain.WorkItem, category domain.QuestionType) error {
	if err := os.WriteFile(c.CategoryPath(item), []byte(category), 0o644); err != nil {
		return fmt.Errorf("writing category sidecar: %w", err)
	}
	return nil
}
