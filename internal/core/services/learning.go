package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ensure LearningService implements the interface.
var _ driving.LearningService = (*LearningService)(nil)

// LearningService exposes pattern statistics, feedback and blocklist
// management to operator tooling.
type LearningService struct {
	patterns  driven.PatternStore
	blocklist driven.Blocklist
	issues    driven.IssueLog
}

// NewLearningService creates a learning service.
func NewLearningService(
	patterns driven.PatternStore,
	blocklist driven.Blocklist,
	issues driven.IssueLog,
) *LearningService {
	return &LearningService{patterns: patterns, blocklist: blocklist, issues: issues}
}

// RecordFeedback applies an operator rating (1..5) to a pattern.
func (s *LearningService) RecordFeedback(ctx context.Context, patternID string, rating int) (*domain.Pattern, error) {
	if patternID == "" {
		return nil, fmt.Errorf("%w: pattern ID is required", domain.ErrInvalidInput)
	}
	if _, err := domain.RatingToQuality(rating); err != nil {
		return nil, err
	}
	p, err := s.patterns.RecordFeedback(ctx, patternID, rating)
	if err != nil {
		return p, fmt.Errorf("failed to record feedback for %s: %w", patternID, err)
	}
	return p, nil
}

// GetPattern returns a pattern by ID.
func (s *LearningService) GetPattern(ctx context.Context, patternID string) (*domain.Pattern, error) {
	return s.patterns.Get(ctx, patternID)
}

// ListPatterns exports statistics for every pattern, most used first.
func (s *LearningService) ListPatterns(ctx context.Context) ([]domain.PatternStats, error) {
	stats, err := s.patterns.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].UsageCount != stats[j].UsageCount {
			return stats[i].UsageCount > stats[j].UsageCount
		}
		return stats[i].SignatureKey < stats[j].SignatureKey
	})
	return stats, nil
}

// FlaggedPatterns returns patterns awaiting operator review, worst first.
func (s *LearningService) FlaggedPatterns(ctx context.Context) ([]domain.PatternStats, error) {
	stats, err := s.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	var flagged []domain.PatternStats
	for _, st := range stats {
		if st.Flagged {
			flagged = append(flagged, st)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool { return flagged[i].SuccessRate < flagged[j].SuccessRate })
	return flagged, nil
}

// ListBlocklist returns blocklist entries for a document type.
func (s *LearningService) ListBlocklist(ctx context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error) {
	if docType != "" && !docType.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, docType)
	}
	return s.blocklist.List(ctx, docType)
}

// AddBlocklist adds an operator-supplied phrase.
func (s *LearningService) AddBlocklist(
	ctx context.Context,
	docType domain.DocumentType,
	phrase, safeDefault string,
) (*domain.BlocklistEntry, error) {
	if docType != "" && !docType.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, docType)
	}
	phrase = strings.TrimSpace(phrase)
	key := domain.TextKey(phrase)
	if key == "" {
		return nil, fmt.Errorf("%w: phrase is required", domain.ErrInvalidInput)
	}

	entry := &domain.BlocklistEntry{
		ID:           uuid.New().String(),
		DocumentType: docType,
		Phrase:       phrase,
		PhraseKey:    key,
		SafeDefault:  strings.TrimSpace(safeDefault),
		Source:       domain.BlocklistOperator,
		CreatedAt:    time.Now(),
	}
	if err := s.blocklist.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add blocklist entry: %w", err)
	}
	return entry, nil
}

// RemoveBlocklist deletes a blocklist entry.
func (s *LearningService) RemoveBlocklist(ctx context.Context, id string) error {
	return s.blocklist.Remove(ctx, id)
}

// IssueHistory returns logged hallucination occurrences for a type.
func (s *LearningService) IssueHistory(ctx context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error) {
	if s.issues == nil {
		return nil, nil
	}
	return s.issues.List(ctx, docType)
}
