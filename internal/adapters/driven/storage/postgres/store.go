package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Store is a PostgreSQL-backed store sharing one connection pool between
// the pattern persister, issue log and blocklist.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.Initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Initialize creates tables and indexes and inserts seed blocklist entries.
func (s *Store) Initialize(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"patterns table", `
			CREATE TABLE IF NOT EXISTS folio_patterns (
				id TEXT PRIMARY KEY,
				signature_key TEXT NOT NULL UNIQUE,
				document_type TEXT NOT NULL,
				block_types JSONB NOT NULL,
				layout JSONB NOT NULL,
				usage_count INTEGER NOT NULL DEFAULT 0,
				success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
				flagged BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`},
		{"issue table", `
			CREATE TABLE IF NOT EXISTS folio_issue_occurrences (
				seq BIGSERIAL PRIMARY KEY,
				document_type TEXT NOT NULL,
				category TEXT NOT NULL,
				text_key TEXT NOT NULL,
				text TEXT NOT NULL,
				field TEXT NOT NULL DEFAULT '',
				page INTEGER NOT NULL DEFAULT 0,
				recorded_at TIMESTAMPTZ NOT NULL
			)`},
		{"issue index", `
			CREATE INDEX IF NOT EXISTS folio_issue_occurrences_key_idx
			ON folio_issue_occurrences (document_type, text_key)`},
		{"blocklist table", `
			CREATE TABLE IF NOT EXISTS folio_blocklist (
				id TEXT PRIMARY KEY,
				document_type TEXT NOT NULL DEFAULT '',
				phrase TEXT NOT NULL,
				phrase_key TEXT NOT NULL,
				safe_default TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL,
				occurrences INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE (document_type, phrase_key)
			)`},
	}

	for _, st := range statements {
		if _, err := s.pool.Exec(ctx, st.sql); err != nil {
			return fmt.Errorf("creating %s: %w", st.name, err)
		}
	}

	now := time.Now().UTC()
	for _, e := range domain.DefaultBlocklist() {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO folio_blocklist (id, document_type, phrase, phrase_key, safe_default, source, occurrences, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
			ON CONFLICT DO NOTHING
		`, e.ID, string(e.DocumentType), e.Phrase, e.PhraseKey, e.SafeDefault, string(e.Source), now)
		if err != nil {
			return fmt.Errorf("seeding blocklist: %w", err)
		}
	}
	return nil
}

// PatternPersister returns a PatternPersister backed by this store.
func (s *Store) PatternPersister() driven.PatternPersister {
	return &patternPersister{pool: s.pool}
}

// IssueLog returns an IssueLog backed by this store.
func (s *Store) IssueLog() driven.IssueLog {
	return &issueLog{pool: s.pool}
}

// Blocklist returns a Blocklist backed by this store.
func (s *Store) Blocklist() driven.Blocklist {
	return &blocklist{pool: s.pool}
}

type patternPersister struct {
	pool *pgxpool.Pool
}

var _ driven.PatternPersister = (*patternPersister)(nil)

func (p *patternPersister) SavePattern(ctx context.Context, pattern *domain.Pattern) error {
	blockTypes, err := json.Marshal(pattern.Signature.BlockTypes)
	if err != nil {
		return fmt.Errorf("marshalling block types: %w", err)
	}
	layout, err := json.Marshal(pattern.Layout)
	if err != nil {
		return fmt.Errorf("marshalling layout: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO folio_patterns (id, signature_key, document_type, block_types, layout,
			usage_count, success_rate, flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			layout = EXCLUDED.layout,
			usage_count = EXCLUDED.usage_count,
			success_rate = EXCLUDED.success_rate,
			flagged = EXCLUDED.flagged,
			updated_at = EXCLUDED.updated_at
	`, pattern.ID, pattern.Signature.Key(), string(pattern.Signature.DocumentType),
		string(blockTypes), string(layout), pattern.UsageCount, pattern.SuccessRate,
		pattern.Flagged, pattern.CreatedAt.UTC(), pattern.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving pattern: %w", err)
	}
	return nil
}

func (p *patternPersister) LoadPatterns(ctx context.Context) ([]domain.Pattern, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, document_type, block_types, layout, usage_count, success_rate,
			flagged, created_at, updated_at
		FROM folio_patterns ORDER BY signature_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}

	patterns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Pattern, error) {
		var pattern domain.Pattern
		var docType string
		var blockTypes, layout []byte
		if err := row.Scan(&pattern.ID, &docType, &blockTypes, &layout, &pattern.UsageCount,
			&pattern.SuccessRate, &pattern.Flagged, &pattern.CreatedAt, &pattern.UpdatedAt); err != nil {
			return pattern, err
		}
		pattern.Signature.DocumentType = domain.DocumentType(docType)
		if err := json.Unmarshal(blockTypes, &pattern.Signature.BlockTypes); err != nil {
			return pattern, fmt.Errorf("unmarshalling block types: %w", err)
		}
		if err := json.Unmarshal(layout, &pattern.Layout); err != nil {
			return pattern, fmt.Errorf("unmarshalling layout: %w", err)
		}
		return pattern, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning patterns: %w", err)
	}
	return patterns, nil
}

type issueLog struct {
	pool *pgxpool.Pool
}

var _ driven.IssueLog = (*issueLog)(nil)

func (l *issueLog) Append(ctx context.Context, occ domain.IssueOccurrence) (int, error) {
	if occ.TextKey == "" {
		occ.TextKey = domain.TextKey(occ.Text)
	}
	if occ.RecordedAt.IsZero() {
		occ.RecordedAt = time.Now()
	}

	// The outer count cannot see the CTE's row, hence the +1.
	var count int
	err := l.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO folio_issue_occurrences (document_type, category, text_key, text, field, page, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING seq
		)
		SELECT COUNT(*) + 1 FROM folio_issue_occurrences
		WHERE document_type = $1 AND text_key = $3
	`, string(occ.DocumentType), string(occ.Category), occ.TextKey, occ.Text, occ.Field, occ.Page,
		occ.RecordedAt.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appending issue: %w", err)
	}
	return count, nil
}

func (l *issueLog) List(ctx context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT document_type, category, text_key, text, field, page, recorded_at
		FROM folio_issue_occurrences
		WHERE $1 = '' OR document_type = $1
		ORDER BY seq
	`, string(docType))
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.IssueOccurrence, error) {
		var occ domain.IssueOccurrence
		var dt, category string
		err := row.Scan(&dt, &category, &occ.TextKey, &occ.Text, &occ.Field, &occ.Page, &occ.RecordedAt)
		occ.DocumentType = domain.DocumentType(dt)
		occ.Category = domain.IssueCategory(category)
		return occ, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning issues: %w", err)
	}
	return out, nil
}

type blocklist struct {
	pool *pgxpool.Pool
}

var _ driven.Blocklist = (*blocklist)(nil)

func (b *blocklist) List(ctx context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, document_type, phrase, phrase_key, safe_default, source, occurrences, created_at
		FROM folio_blocklist
		WHERE $1 = '' OR document_type = '' OR document_type = $1
		ORDER BY created_at, id
	`, string(docType))
	if err != nil {
		return nil, fmt.Errorf("querying blocklist: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BlocklistEntry, error) {
		var e domain.BlocklistEntry
		var dt, source string
		err := row.Scan(&e.ID, &dt, &e.Phrase, &e.PhraseKey, &e.SafeDefault, &source, &e.Occurrences, &e.CreatedAt)
		e.DocumentType = domain.DocumentType(dt)
		e.Source = domain.BlocklistSource(source)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning blocklist: %w", err)
	}
	return out, nil
}

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

	err := b.pool.QueryRow(ctx, `
		INSERT INTO folio_blocklist (id, document_type, phrase, phrase_key, safe_default, source, occurrences, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_type, phrase_key) DO UPDATE SET
			safe_default = EXCLUDED.safe_default,
			occurrences = EXCLUDED.occurrences
		RETURNING id, created_at
	`, entry.ID, string(entry.DocumentType), entry.Phrase, entry.PhraseKey, entry.SafeDefault,
		string(entry.Source), entry.Occurrences, entry.CreatedAt.UTC()).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving blocklist entry: %w", err)
	}
	return nil
}

func (b *blocklist) Remove(ctx context.Context, id string) error {
	tag, err := b.pool.Exec(ctx, "DELETE FROM folio_blocklist WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting blocklist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
