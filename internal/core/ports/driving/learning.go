package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// LearningService exposes the learning store to operator tooling.
type LearningService interface {
	// RecordFeedback applies an operator rating (1..5) to a pattern.
	RecordFeedback(ctx context.Context, patternID string, rating int) (*domain.Pattern, error)

	// GetPattern returns a pattern by ID.
	GetPattern(ctx context.Context, patternID string) (*domain.Pattern, error)

	// ListPatterns exports statistics for every pattern.
	ListPatterns(ctx context.Context) ([]domain.PatternStats, error)

	// FlaggedPatterns returns patterns awaiting operator review.
	FlaggedPatterns(ctx context.Context) ([]domain.PatternStats, error)

	// ListBlocklist returns blocklist entries for a document type.
	// An empty type returns every entry.
	ListBlocklist(ctx context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error)

	// AddBlocklist adds an operator-supplied phrase.
	AddBlocklist(ctx context.Context, docType domain.DocumentType, phrase, safeDefault string) (*domain.BlocklistEntry, error)

	// RemoveBlocklist deletes a blocklist entry.
	RemoveBlocklist(ctx context.Context, id string) error

	// IssueHistory returns logged hallucination occurrences for a type.
	IssueHistory(ctx context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error)
}
