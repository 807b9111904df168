package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the pattern table, issue log and blocklist through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.folio/data/folio.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".folio", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "folio.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// PatternPersister returns a PatternPersister backed by this store.
func (s *Store) PatternPersister() driven.PatternPersister {
	return &patternPersister{store: s}
}

// IssueLog returns an IssueLog backed by this store.
func (s *Store) IssueLog() driven.IssueLog {
	return &issueLog{store: s}
}

// Blocklist returns a Blocklist backed by this store.
func (s *Store) Blocklist() driven.Blocklist {
	return &blocklist{store: s}
}

// migrate runs all pending migrations. Each migration records its own
// version in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Pattern Persister ====================

// patternPersister implements driven.PatternPersister.
type patternPersister struct {
	store *Store
}

var _ driven.PatternPersister = (*patternPersister)(nil)

// SavePattern upserts a pattern by ID.
func (p *patternPersister) SavePattern(ctx context.Context, pattern *domain.Pattern) error {
	blockTypes, err := json.Marshal(pattern.Signature.BlockTypes)
	if err != nil {
		return fmt.Errorf("marshalling block types: %w", err)
	}
	layout, err := json.Marshal(pattern.Layout)
	if err != nil {
		return fmt.Errorf("marshalling layout: %w", err)
	}

	_, err = p.store.db.ExecContext(ctx, `
		INSERT INTO patterns (id, signature_key, document_type, block_types, layout,
			usage_count, success_rate, flagged, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			layout = excluded.layout,
			usage_count = excluded.usage_count,
			success_rate = excluded.success_rate,
			flagged = excluded.flagged,
			updated_at = excluded.updated_at
	`, pattern.ID, pattern.Signature.Key(), string(pattern.Signature.DocumentType),
		string(blockTypes), string(layout), pattern.UsageCount, pattern.SuccessRate,
		boolToInt(pattern.Flagged), pattern.CreatedAt.UTC(), pattern.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving pattern: %w", err)
	}
	return nil
}

// LoadPatterns returns every stored pattern.
func (p *patternPersister) LoadPatterns(ctx context.Context) ([]domain.Pattern, error) {
	rows, err := p.store.db.QueryContext(ctx, `
		SELECT id, document_type, block_types, layout, usage_count, success_rate,
			flagged, created_at, updated_at
		FROM patterns ORDER BY signature_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.Pattern //nolint:prealloc // size unknown from query
	for rows.Next() {
		var pattern domain.Pattern
		var docType, blockTypes, layout string
		var flagged int
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&pattern.ID, &docType, &blockTypes, &layout, &pattern.UsageCount,
			&pattern.SuccessRate, &flagged, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}

		pattern.Signature.DocumentType = domain.DocumentType(docType)
		if err := json.Unmarshal([]byte(blockTypes), &pattern.Signature.BlockTypes); err != nil {
			return nil, fmt.Errorf("unmarshalling block types: %w", err)
		}
		if err := json.Unmarshal([]byte(layout), &pattern.Layout); err != nil {
			return nil, fmt.Errorf("unmarshalling layout: %w", err)
		}
		pattern.Flagged = flagged != 0
		if createdAt.Valid {
			pattern.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			pattern.UpdatedAt = updatedAt.Time
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}

// ==================== Issue Log ====================

// issueLog implements driven.IssueLog.
type issueLog struct {
	store *Store
}

var _ driven.IssueLog = (*issueLog)(nil)

// Append records an occurrence and returns the count for its key.
func (l *issueLog) Append(ctx context.Context, occ domain.IssueOccurrence) (int, error) {
	if occ.TextKey == "" {
		occ.TextKey = domain.TextKey(occ.Text)
	}
	if occ.RecordedAt.IsZero() {
		occ.RecordedAt = time.Now()
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO issue_occurrences (document_type, category, text_key, text, field, page, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(occ.DocumentType), string(occ.Category), occ.TextKey, occ.Text, occ.Field, occ.Page,
		occ.RecordedAt.UTC()); err != nil {
		return 0, fmt.Errorf("appending issue: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM issue_occurrences WHERE document_type = ? AND text_key = ?
	`, string(occ.DocumentType), occ.TextKey).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing issue: %w", err)
	}
	return count, nil
}

// List returns occurrences for a document type, oldest first.
func (l *issueLog) List(ctx context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error) {
	query := `
		SELECT document_type, category, text_key, text, field, page, recorded_at
		FROM issue_occurrences`
	var args []any
	if docType != "" {
		query += " WHERE document_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY seq"

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var out []domain.IssueOccurrence //nolint:prealloc // size unknown from query
	for rows.Next() {
		var occ domain.IssueOccurrence
		var dt, category string
		var recordedAt sql.NullTime
		if err := rows.Scan(&dt, &category, &occ.TextKey, &occ.Text, &occ.Field, &occ.Page, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		occ.DocumentType = domain.DocumentType(dt)
		occ.Category = domain.IssueCategory(category)
		if recordedAt.Valid {
			occ.RecordedAt = recordedAt.Time
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// ==================== Blocklist ====================

// blocklist implements driven.Blocklist.
type blocklist struct {
	store *Store
}

var _ driven.Blocklist = (*blocklist)(nil)

// List returns entries that apply to a document type.
func (b *blocklist) List(ctx context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error) {
	query := `
		SELECT id, document_type, phrase, phrase_key, safe_default, source, occurrences, created_at
		FROM blocklist`
	var args []any
	if docType != "" {
		query += " WHERE document_type = '' OR document_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY created_at, id"

	rows, err := b.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying blocklist: %w", err)
	}
	defer rows.Close()

	var out []domain.BlocklistEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.BlocklistEntry
		var dt, source string
		var createdAt sql.NullTime
		if err := rows.Scan(&e.ID, &dt, &e.Phrase, &e.PhraseKey, &e.SafeDefault, &source,
			&e.Occurrences, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning blocklist entry: %w", err)
		}
		e.DocumentType = domain.DocumentType(dt)
		e.Source = domain.BlocklistSource(source)
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Add upserts an entry by (document type, phrase key). On update the
// stored ID and creation time are written back into entry.
func (b *blocklist) Add(ctx context.Context, entry *domain.BlocklistEntry) error {
	if entry.PhraseKey == "" {
		entry.PhraseKey = domain.TextKey(entry.Phrase)
	}
	if entry.PhraseKey == "" || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	row := b.store.db.QueryRowContext(ctx, `
		INSERT INTO blocklist (id, document_type, phrase, phrase_key, safe_default, source, occurrences, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_type, phrase_key) DO UPDATE SET
			safe_default = excluded.safe_default,
			occurrences = excluded.occurrences
		RETURNING id, created_at
	`, entry.ID, string(entry.DocumentType), entry.Phrase, entry.PhraseKey, entry.SafeDefault,
		string(entry.Source), entry.Occurrences, entry.CreatedAt.UTC())

	var createdAt sql.NullTime
	if err := row.Scan(&entry.ID, &createdAt); err != nil {
		return fmt.Errorf("saving blocklist entry: %w", err)
	}
	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	return nil
}

// Remove deletes an entry by ID.
func (b *blocklist) Remove(ctx context.Context, id string) error {
	res, err := b.store.db.ExecContext(ctx, "DELETE FROM blocklist WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting blocklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting blocklist entry: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
