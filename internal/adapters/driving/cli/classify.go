package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skyvense/SatExam/internal/connectors/filesystem"
	"github.com/skyvense/SatExam/internal/core/domain"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>",
	Short: "Classify already-recognised page text into the SAT taxonomy",
	Long: `Classifies recognised page text without calling the vision model.
<path> may be a single text sidecar, a page image whose ".txt" sidecar
exists, or an exam directory, in which case every text sidecar inside
it is classified.

Each result is written to the ".type.txt" sidecar and upserted into the
store, unless --dry-run is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.String("db", "", "SQLite database path (default ~/.satexam/data/results.db)")
	f.Bool("no-ai", false, "classify with the local rules only")
	f.Bool("dry-run", false, "print categories without writing sidecars or the store")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if buildEngine == nil {
		return errors.New("classifier not configured")
	}

	cfg := baseConfig
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetBool("no-ai"); v {
		cfg.DisableAIClassifier = true
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	targets, err := classifyTargets(args[0])
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no recognised text found under %s", args[0])
	}

	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var store resultSink
	if !dryRun {
		if openStore == nil {
			return errors.New("store not configured")
		}
		s, err := openStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()
		store = s
	}

	cache := filesystem.NewSidecarCache()
	ctx := context.Background()

	for _, item := range targets {
		text, err := cache.Load(item)
		if err != nil {
			cmd.Printf("%-30s SKIP (no recognised text)\n", item.Key)
			continue
		}

		result := engine.Classify(ctx, item.ID, text)
		cmd.Printf("%-30s %s (%.2f, %s)\n",
			item.Key, result.Category, result.Confidence, result.Strategy)

		if dryRun {
			continue
		}
		if err := cache.StoreCategory(item, result.Category); err != nil {
			return err
		}
		if err := store.Upsert(ctx, domain.Record{
			ID:         uuid.NewString(),
			GroupPath:  item.GroupPath,
			ItemKey:    item.Key,
			Category:   result.Category,
			Content:    text,
			Confidence: result.Confidence,
			Strategy:   result.Strategy,
			RecordedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("storing %s: %w", item.Key, err)
		}
	}

	return nil
}

// resultSink is the slice of the store the classify command needs.
type resultSink interface {
	Upsert(ctx context.Context, rec domain.Record) error
}

// classifyTargets resolves a path argument into work items whose text
// sidecars will be classified.
func classifyTargets(path string) ([]domain.WorkItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		dir := filepath.Dir(path)
		name := filepath.Base(path)
		// Strip ".type.txt", ".txt" or an image extension down to the page
		// stem, so pointing at any of a page's files resolves the same key.
		key := strings.TrimSuffix(name, ".type.txt")
		if key == name {
			key = strings.TrimSuffix(name, filepath.Ext(name))
		}
		return []domain.WorkItem{{
			ID:        path,
			GroupPath: dir,
			Key:       key,
		}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var items []domain.WorkItem
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".type.txt") {
			continue
		}
		key := strings.TrimSuffix(name, ".txt")
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, domain.WorkItem{
			ID:        filepath.Join(path, name),
			GroupPath: path,
			Key:       key,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}
