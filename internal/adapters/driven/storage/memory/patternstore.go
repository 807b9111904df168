package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure PatternStore implements the interface.
var _ driven.PatternStore = (*PatternStore)(nil)

// PatternStore is the process-wide learning store.
//
// Patterns live in an arena of per-signature slots. Each slot publishes
// an immutable *domain.Pattern through an atomic pointer, so lookups never
// lock and never see a half-applied update. Writers for one signature
// serialise on that slot's mutex; writers for different signatures touch
// different slots and never contend.
//
// When a persister is attached, every published pattern is queued for a
// background flusher; persistence never blocks RecordOutcome.
type PatternStore struct {
	slots sync.Map // signature key -> *slot
	byID  sync.Map // pattern ID -> *slot

	learning domain.LearningSettings
	writer   *writeBehind
	closed   atomic.Bool
	now      func() time.Time
}

type slot struct {
	mu  sync.Mutex
	cur atomic.Pointer[domain.Pattern]
}

// Option configures a PatternStore.
type Option func(*PatternStore)

// WithPersister attaches durable storage. Writes are flushed in the
// background at up to perSecond patterns per second, each attempted up
// to retries times.
func WithPersister(p driven.PatternPersister, perSecond float64, retries int) Option {
	return func(s *PatternStore) {
		s.writer = newWriteBehind(p, perSecond, retries)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *PatternStore) {
		s.now = now
	}
}

// NewPatternStore creates an empty store.
func NewPatternStore(learning domain.LearningSettings, opts ...Option) *PatternStore {
	s := &PatternStore{learning: learning, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores patterns from the attached persister.
func (s *PatternStore) Load(ctx context.Context) (int, error) {
	if s.writer == nil {
		return 0, nil
	}
	patterns, err := s.writer.persister.LoadPatterns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load patterns: %w", err)
	}
	for i := range patterns {
		p := patterns[i].Clone()
		sl := s.slot(p.Signature.Key())
		sl.cur.Store(p)
		s.byID.Store(p.ID, sl)
	}
	logger.Debug("loaded %d pattern(s)", len(patterns))
	return len(patterns), nil
}

func (s *PatternStore) slot(key string) *slot {
	if sl, ok := s.slots.Load(key); ok {
		return sl.(*slot)
	}
	sl, _ := s.slots.LoadOrStore(key, &slot{})
	return sl.(*slot)
}

// Lookup returns a copy of the pattern for an exact signature.
func (s *PatternStore) Lookup(sig domain.Signature) (*domain.Pattern, bool) {
	v, ok := s.slots.Load(sig.Key())
	if !ok {
		return nil, false
	}
	p := v.(*slot).cur.Load()
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// Nearest returns the unflagged pattern of the same document type most
// similar to sig, if its similarity is at least minSimilarity.
func (s *PatternStore) Nearest(sig domain.Signature, minSimilarity float64) (*domain.Pattern, bool) {
	var best *domain.Pattern
	bestSim := -1.0
	s.slots.Range(func(_, v any) bool {
		p := v.(*slot).cur.Load()
		if p == nil || p.Flagged {
			return true
		}
		sim := sig.Similarity(p.Signature)
		if sim < minSimilarity {
			return true
		}
		switch {
		case best == nil, sim > bestSim:
			best, bestSim = p, sim
		case sim == bestSim && (p.SuccessRate > best.SuccessRate ||
			(p.SuccessRate == best.SuccessRate && p.Signature.Key() < best.Signature.Key())):
			best = p
		}
		return true
	})
	if best == nil {
		return nil, false
	}
	return best.Clone(), true
}

// RecordOutcome creates the pattern for a new signature or folds quality
// into an existing one. The returned error, if any, reports an earlier
// persistence failure; the in-memory update has still been applied.
func (s *PatternStore) RecordOutcome(
	ctx context.Context,
	sig domain.Signature,
	layout domain.LayoutStructure,
	quality float64,
) (*domain.Pattern, error) {
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}
	if quality < 0 || quality > 1 {
		return nil, fmt.Errorf("%w: quality %.3f outside [0, 1]", domain.ErrInvalidInput, quality)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sl := s.slot(sig.Key())
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}

	now := s.now()
	cur := sl.cur.Load()
	var next *domain.Pattern
	if cur == nil {
		next = &domain.Pattern{
			ID:          uuid.New().String(),
			Signature:   sig.Clone(),
			Layout:      layout.Clone(),
			UsageCount:  1,
			SuccessRate: quality,
			CreatedAt:   now,
		}
	} else {
		next = cur.Clone()
		next.UsageCount++
		next.SuccessRate = domain.EMA(cur.SuccessRate, quality, s.learning.Alpha)
		if quality >= cur.SuccessRate {
			schemas := next.Layout.ColumnSchemas
			next.Layout = layout.Clone()
			for width, schema := range schemas {
				if _, ok := next.Layout.ColumnSchemas[width]; !ok {
					next.Layout.ColumnSchemas[width] = schema
				}
			}
		}
	}
	next.UpdatedAt = now
	next.Flagged = s.learning.ShouldFlag(next)

	if err := s.publish(sl, cur, next); err != nil {
		return nil, err
	}
	return next.Clone(), s.persistErr()
}

// RecordFeedback folds an operator rating into a pattern's success rate
// without counting it as a use.
func (s *PatternStore) RecordFeedback(ctx context.Context, patternID string, rating int) (*domain.Pattern, error) {
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}
	quality, err := domain.RatingToQuality(rating)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.byID.Load(patternID)
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", patternID, domain.ErrNotFound)
	}
	sl := v.(*slot)

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}

	cur := sl.cur.Load()
	next := cur.Clone()
	next.SuccessRate = domain.EMA(cur.SuccessRate, quality, s.learning.Alpha)
	next.UpdatedAt = s.now()
	next.Flagged = s.learning.ShouldFlag(next)

	if err := s.publish(sl, cur, next); err != nil {
		return nil, err
	}
	return next.Clone(), s.persistErr()
}

// publish queues next for persistence and swaps it in. Callers hold
// sl.mu. Nothing is published once the writer has stopped accepting.
func (s *PatternStore) publish(sl *slot, cur, next *domain.Pattern) error {
	if s.writer != nil && !s.writer.enqueue(next) {
		return domain.ErrStoreClosed
	}
	sl.cur.Store(next)
	if cur == nil {
		s.byID.Store(next.ID, sl)
	}
	if next.Flagged && (cur == nil || !cur.Flagged) {
		logger.Info("pattern %s flagged: success %.2f after %d use(s)", next.ID, next.SuccessRate, next.UsageCount)
	}
	return nil
}

func (s *PatternStore) persistErr() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.takeErr()
}

// Get returns a copy of a pattern by ID.
func (s *PatternStore) Get(_ context.Context, patternID string) (*domain.Pattern, error) {
	v, ok := s.byID.Load(patternID)
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", patternID, domain.ErrNotFound)
	}
	return v.(*slot).cur.Load().Clone(), nil
}

// Stats returns the reporting view of every pattern, by signature key.
func (s *PatternStore) Stats(_ context.Context) ([]domain.PatternStats, error) {
	var stats []domain.PatternStats
	s.slots.Range(func(_, v any) bool {
		if p := v.(*slot).cur.Load(); p != nil {
			stats = append(stats, p.Stats())
		}
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].SignatureKey < stats[j].SignatureKey })
	return stats, nil
}

// Flush writes every queued pattern now.
func (s *PatternStore) Flush(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	s.writer.flush(ctx)
	return s.writer.takeErr()
}

// Close stops accepting writes, drains the queue and returns the last
// persistence failure, if any.
func (s *PatternStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.writer == nil {
		return nil
	}
	return s.writer.close()
}
