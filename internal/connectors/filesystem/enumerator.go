// Package filesystem discovers exam pages on disk and manages their
// sidecar artifacts. One directory is one exam group; pages are files
// whose names begin with a zero-padded numeric sequence ("001.png").
package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/logger"
)

// Ensure Enumerator implements the interface.
var _ driven.WorkSource = (*Enumerator)(nil)

// imageExtensions are the page file formats the enumerator accepts.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// sequencePrefix extracts the leading digits of a filename.
var sequencePrefix = regexp.MustCompile(`^(\d+)`)

// markerPrefixes are reserved leading characters for platform noise and
// intermediate artifacts ("._0001.png" resource forks, "_work" dirs).
const markerPrefixes = "._"

// Enumerator walks a root directory and produces the ordered sequence of
// work items beneath it.
type Enumerator struct {
	minItemCount int
}

// NewEnumerator creates an enumerator. Groups with fewer than
// minItemCount eligible items are excluded entirely.
func NewEnumerator(minItemCount int) *Enumerator {
	if minItemCount < 1 {
		minItemCount = 1
	}
	return &Enumerator{minItemCount: minItemCount}
}

// Enumerate returns every eligible item under root, ordered by group path
// lexicographically and by numeric sequence within a group. The sequence
// ordering is numeric, never lexical: "2.png" sorts before "10.png".
//
// An unreadable subtree is logged and skipped; enumeration only fails
// when the root itself cannot be read.
func (e *Enumerator) Enumerate(ctx context.Context, root string) ([]domain.WorkItem, error) {
	groups, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	groupNames := make([]string, 0, len(groups))
	for _, entry := range groups {
		if !entry.IsDir() || isMarked(entry.Name()) {
			continue
		}
		groupNames = append(groupNames, entry.Name())
	}
	sort.Strings(groupNames)

	var items []domain.WorkItem
	for _, name := range groupNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		groupPath := filepath.Join(root, name)
		groupItems, err := e.enumerateGroup(groupPath)
		if err != nil {
			logger.Warn("Skipping unreadable group %s: %v", groupPath, err)
			continue
		}
		if len(groupItems) < e.minItemCount {
			logger.Debug("Skipping group %s: %d item(s), need %d",
				groupPath, len(groupItems), e.minItemCount)
			continue
		}
		items = append(items, groupItems...)
	}

	return items, nil
}

// enumerateGroup collects and orders the eligible items of one directory.
func (e *Enumerator) enumerateGroup(groupPath string) ([]domain.WorkItem, error) {
	entries, err := os.ReadDir(groupPath)
	if err != nil {
		return nil, err
	}

	var items []domain.WorkItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if isMarked(name) || !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		seq, ok := parseSequence(name)
		if !ok {
			logger.Debug("Ignoring %s: no numeric sequence prefix", name)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("Skipping unreadable file %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			// Zero-byte files are metadata-only artifacts.
			continue
		}

		sourcePath := filepath.Join(groupPath, name)
		items = append(items, domain.WorkItem{
			ID:         sourcePath,
			SourcePath: sourcePath,
			GroupPath:  groupPath,
			Key:        stem(name),
			Sequence:   seq,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sequence < items[j].Sequence
	})
	return items, nil
}

// isMarked reports whether a leaf name starts with a reserved marker.
func isMarked(name string) bool {
	return name != "" && strings.ContainsRune(markerPrefixes, rune(name[0]))
}

// parseSequence extracts the numeric filename prefix.
func parseSequence(name string) (int, bool) {
	m := sequencePrefix.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// stem strips the extension from a filename.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
