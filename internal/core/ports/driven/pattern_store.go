package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// PatternLookup is the read side of the pattern store.
// The parser and synthesizer depend only on this.
type PatternLookup interface {
	// Lookup returns the pattern recorded for an exact signature.
	Lookup(sig domain.Signature) (*domain.Pattern, bool)

	// Nearest returns the most similar pattern of the same document type
	// whose similarity is at least minSimilarity.
	Nearest(sig domain.Signature, minSimilarity float64) (*domain.Pattern, bool)
}

// PatternStore is the process-wide learning store.
//
// Lookups never observe a partially applied update. Writes for different
// signatures never block each other; writes for the same signature are
// serialised in arrival order.
type PatternStore interface {
	PatternLookup

	// RecordOutcome creates or updates the pattern for a signature.
	// Quality must be within [0, 1].
	RecordOutcome(ctx context.Context, sig domain.Signature, layout domain.LayoutStructure,
		quality float64) (*domain.Pattern, error)

	// RecordFeedback applies an operator rating (1..5) to a pattern.
	RecordFeedback(ctx context.Context, patternID string, rating int) (*domain.Pattern, error)

	// Get returns a pattern by ID.
	Get(ctx context.Context, patternID string) (*domain.Pattern, error)

	// Stats returns the reporting view of every pattern.
	Stats(ctx context.Context) ([]domain.PatternStats, error)

	// Close flushes pending persistence and stops background work.
	Close() error
}

// PatternPersister is durable storage behind the in-memory arena.
type PatternPersister interface {
	// SavePattern upserts a pattern by ID.
	SavePattern(ctx context.Context, pattern *domain.Pattern) error

	// LoadPatterns returns every stored pattern.
	LoadPatterns(ctx context.Context) ([]domain.Pattern, error)
}
