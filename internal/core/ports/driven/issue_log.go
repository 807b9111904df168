package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// IssueLog is an append-only log of hallucination occurrences,
// keyed by document type.
type IssueLog interface {
	// Append records an occurrence and returns how many occurrences with
	// the same document type and text key exist, including this one.
	Append(ctx context.Context, occ domain.IssueOccurrence) (int, error)

	// List returns occurrences for a document type, oldest first.
	// An empty type returns every occurrence.
	List(ctx context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error)
}

// Blocklist stores phrases known to be fabricated by the recognizer.
type Blocklist interface {
	// List returns entries that apply to a document type,
	// including entries scoped to every type.
	List(ctx context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error)

	// Add upserts an entry by (document type, phrase key).
	Add(ctx context.Context, entry *domain.BlocklistEntry) error

	// Remove deletes an entry by ID.
	Remove(ctx context.Context, id string) error
}
