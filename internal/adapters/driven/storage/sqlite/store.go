// Package sqlite provides the SQLite-backed result store.
//
// The store is the single durable sink of the pipeline: one row per
// (group_path, item_key) pair, upserted so that reprocessing a page
// replaces the previous classification instead of duplicating it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/skyvense/SatExam/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Store is a SQLite-based implementation of driven.ResultStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.ResultStore = (*Store)(nil)

// NewStore opens (or creates) the results database at dbPath.
// If dbPath is empty, defaults to ~/.satexam/data/results.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".satexam", "data", "results.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Result Store ====================

// Upsert inserts the record or replaces the row sharing its (group_path,
// item_key). The row id and recorded_at are refreshed on replacement so a
// reprocessed item reads as new.
func (s *Store) Upsert(ctx context.Context, rec domain.Record) error {
	if rec.GroupPath == "" || rec.ItemKey == "" {
		return domain.ErrInvalidInput
	}

	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, group_path, item_key, category, content, confidence, strategy, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_path, item_key) DO UPDATE SET
			id = excluded.id,
			category = excluded.category,
			content = excluded.content,
			confidence = excluded.confidence,
			strategy = excluded.strategy,
			recorded_at = excluded.recorded_at
	`, rec.ID, rec.GroupPath, rec.ItemKey, string(rec.Category), rec.Content,
		rec.Confidence, string(rec.Strategy), rec.RecordedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStorageConflict
		}
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// Get retrieves the record for one item.
func (s *Store) Get(ctx context.Context, groupPath, itemKey string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, group_path, item_key, category, content, confidence, strategy, recorded_at
		FROM results WHERE group_path = ? AND item_key = ?
	`, groupPath, itemKey)

	return scanRecord(row)
}

// Has reports whether a record exists for the item.
func (s *Store) Has(ctx context.Context, groupPath, itemKey string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM results WHERE group_path = ? AND item_key = ?
	`, groupPath, itemKey).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking result: %w", err)
	}
	return count > 0, nil
}

// ListByGroup returns all records for a group, ordered by item key.
func (s *Store) ListByGroup(ctx context.Context, groupPath string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_path, item_key, category, content, confidence, strategy, recorded_at
		FROM results WHERE group_path = ?
		ORDER BY item_key
	`, groupPath)
	if err != nil {
		return nil, fmt.Errorf("querying results by group: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByCategory returns records carrying the category, newest first.
// A non-positive limit means no limit.
func (s *Store) ListByCategory(
	ctx context.Context,
	category domain.QuestionType,
	limit, offset int,
) ([]domain.Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unbounded
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_path, item_key, category, content, confidence, strategy, recorded_at
		FROM results WHERE category = ?
		ORDER BY recorded_at DESC, group_path, item_key
		LIMIT ? OFFSET ?
	`, string(category), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying results by category: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Summary computes the total count and per-category distribution in one query.
func (s *Store) Summary(ctx context.Context) (*domain.StoreSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM results GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.QuestionType]int)
	total := 0
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		counts[domain.QuestionType(category)] = count
		total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}

	summary := &domain.StoreSummary{Total: total}
	for category, count := range counts {
		summary.Distribution = append(summary.Distribution, domain.CategoryCount{
			Category: category,
			Count:    count,
			Percent:  float64(count) / float64(total) * 100,
		})
	}
	// Largest category first; ties break on the canonical taxonomy order so
	// reports are stable between runs.
	sort.SliceStable(summary.Distribution, func(i, j int) bool {
		a, b := summary.Distribution[i], summary.Distribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category.Priority() < b.Category.Priority()
	})

	return summary, nil
}

// ==================== Helper Functions ====================

// isUniqueViolation reports whether the error is a UNIQUE constraint failure
// that survived the upsert clause.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// scanRecord scans a single result row.
func scanRecord(row *sql.Row) (*domain.Record, error) {
	var rec domain.Record
	var category, strategy string
	var recordedAt sql.NullTime

	if err := row.Scan(&rec.ID, &rec.GroupPath, &rec.ItemKey, &category,
		&rec.Content, &rec.Confidence, &strategy, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning result: %w", err)
	}

	rec.Category = domain.QuestionType(category)
	rec.Strategy = domain.Strategy(strategy)
	if recordedAt.Valid {
		rec.RecordedAt = recordedAt.Time
	}

	return &rec, nil
}

// scanRecords scans multiple result rows.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.Record
		var category, strategy string
		var recordedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.GroupPath, &rec.ItemKey, &category,
			&rec.Content, &rec.Confidence, &strategy, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		rec.Category = domain.QuestionType(category)
		rec.Strategy = domain.Strategy(strategy)
		if recordedAt.Valid {
			rec.RecordedAt = recordedAt.Time
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return records, nil
}
