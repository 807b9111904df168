package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/domain"
)

// stubLookup returns fixed patterns from Lookup and Nearest.
type stubLookup struct {
	exact   *domain.Pattern
	nearest *domain.Pattern
}

func (s *stubLookup) Lookup(domain.Signature) (*domain.Pattern, bool) {
	return s.exact, s.exact != nil
}

func (s *stubLookup) Nearest(domain.Signature, float64) (*domain.Pattern, bool) {
	return s.nearest, s.nearest != nil
}

// contendedStore reports contention on every outcome.
type contendedStore struct {
	*memory.PatternStore
}

func (s contendedStore) RecordOutcome(
	ctx context.Context,
	sig domain.Signature,
	layout domain.LayoutStructure,
	quality float64,
) (*domain.Pattern, error) {
	p, _ := s.PatternStore.RecordOutcome(ctx, sig, layout, quality)
	return p, &domain.StoreContentionError{Key: sig.Key(), Attempts: 3, Err: errors.New("database is locked")}
}
