package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func testSignature(docType domain.DocumentType, tables int) domain.Signature {
	return domain.Signature{
		DocumentType: docType,
		BlockTypes: map[domain.BlockType]int{
			domain.BlockTypeHeading:   1,
			domain.BlockTypeParagraph: 2,
			domain.BlockTypeTable:     tables,
		},
	}
}

func testLayout(keys ...string) domain.LayoutStructure {
	l := domain.LayoutStructure{
		SectionOrder:  keys,
		Strategies:    make(map[string]domain.Strategy),
		ColumnSchemas: map[int][]string{4: {"name", "choir", "sermon_title", "sermon_pastor"}},
	}
	for _, k := range keys {
		l.Strategies[k] = domain.StrategyCardGrid
	}
	return l
}

// recordingPersister is a PatternPersister that records saves and can
// be told to fail.
type recordingPersister struct {
	mu       sync.Mutex
	saved    map[string]domain.Pattern
	attempts int
	fail     error
	loaded   []domain.Pattern
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{saved: make(map[string]domain.Pattern)}
}

func (p *recordingPersister) SavePattern(_ context.Context, pattern *domain.Pattern) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.fail != nil {
		return p.fail
	}
	p.saved[pattern.ID] = *pattern.Clone()
	return nil
}

func (p *recordingPersister) LoadPatterns(context.Context) ([]domain.Pattern, error) {
	return p.loaded, nil
}

func (p *recordingPersister) get(id string) (domain.Pattern, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.saved[id]
	return v, ok
}

func TestPatternStore_RecordOutcome_NewSignature(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeChurch, 1)

	p, err := store.RecordOutcome(context.Background(), sig, testLayout("hero", "table:schedule:6"), 0.85)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.UsageCount)
	assert.InDelta(t, 0.85, p.SuccessRate, 1e-9)
	assert.False(t, p.Flagged)

	found, ok := store.Lookup(sig)
	require.True(t, ok)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, []string{"hero", "table:schedule:6"}, found.Layout.SectionOrder)
}

func TestPatternStore_RecordOutcome_EMA(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeNewsletter, 0)
	ctx := context.Background()

	_, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.5)
	require.NoError(t, err)
	p, err := store.RecordOutcome(ctx, sig, testLayout("a"), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 2, p.UsageCount)
	assert.InDelta(t, 0.5*0.8+1.0*0.2, p.SuccessRate, 1e-9)
}

func TestPatternStore_EMAConvergence(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeElection, 2)
	ctx := context.Background()

	p, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.1)
	require.NoError(t, err)
	prev := p.SuccessRate

	for i := 0; i < 60; i++ {
		p, err = store.RecordOutcome(ctx, sig, testLayout("a"), 1.0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.SuccessRate, prev, "success rate must not decrease")
		assert.LessOrEqual(t, p.SuccessRate, 1.0)
		prev = p.SuccessRate
	}
	assert.InDelta(t, 1.0, p.SuccessRate, 0.001)
	assert.Equal(t, 61, p.UsageCount)
}

func TestPatternStore_RecordOutcome_InvalidQuality(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	_, err := store.RecordOutcome(context.Background(), testSignature(domain.DocumentTypeChurch, 1), testLayout(), 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPatternStore_LayoutReplacedOnlyWhenNotWorse(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeChurch, 1)
	ctx := context.Background()

	_, err := store.RecordOutcome(ctx, sig, testLayout("a", "b"), 0.9)
	require.NoError(t, err)

	p, err := store.RecordOutcome(ctx, sig, testLayout("b", "a"), 0.3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Layout.SectionOrder)

	p, err = store.RecordOutcome(ctx, sig, testLayout("b", "a"), 1.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, p.Layout.SectionOrder)
}

func TestPatternStore_Flagging(t *testing.T) {
	learning := domain.DefaultLearningSettings()
	store := NewPatternStore(learning)
	sig := testSignature(domain.DocumentTypeChurch, 3)
	ctx := context.Background()

	var p *domain.Pattern
	var err error
	for i := 0; i < learning.FlagMinUsage; i++ {
		p, err = store.RecordOutcome(ctx, sig, testLayout("a"), 0.1)
		require.NoError(t, err)
		if i < learning.FlagMinUsage-1 {
			assert.False(t, p.Flagged, "not flagged before min usage")
		}
	}
	assert.True(t, p.Flagged)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Flagged)
	assert.Equal(t, learning.FlagMinUsage, stats[0].UsageCount)

	// Flagged patterns are kept.
	_, ok := store.Lookup(sig)
	assert.True(t, ok)
}

func TestPatternStore_RecordFeedback(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	ctx := context.Background()
	p, err := store.RecordOutcome(ctx, testSignature(domain.DocumentTypeChurch, 1), testLayout("a"), 0.5)
	require.NoError(t, err)

	updated, err := store.RecordFeedback(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UsageCount, "feedback is not a use")
	assert.InDelta(t, 0.5*0.8+1.0*0.2, updated.SuccessRate, 1e-9)

	_, err = store.RecordFeedback(ctx, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.RecordFeedback(ctx, "missing", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatternStore_Get(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	ctx := context.Background()
	p, err := store.RecordOutcome(ctx, testSignature(domain.DocumentTypeChurch, 1), testLayout("a"), 0.7)
	require.NoError(t, err)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatternStore_LookupReturnsCopy(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeChurch, 1)
	_, err := store.RecordOutcome(context.Background(), sig, testLayout("a"), 0.7)
	require.NoError(t, err)

	p, _ := store.Lookup(sig)
	p.Layout.SectionOrder[0] = "mutated"
	p.SuccessRate = 0

	again, _ := store.Lookup(sig)
	assert.Equal(t, "a", again.Layout.SectionOrder[0])
	assert.InDelta(t, 0.7, again.SuccessRate, 1e-9)
}

func TestPatternStore_Nearest(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	ctx := context.Background()

	_, err := store.RecordOutcome(ctx, testSignature(domain.DocumentTypeChurch, 2), testLayout("two"), 0.8)
	require.NoError(t, err)
	_, err = store.RecordOutcome(ctx, testSignature(domain.DocumentTypeChurch, 6), testLayout("six"), 0.8)
	require.NoError(t, err)
	_, err = store.RecordOutcome(ctx, testSignature(domain.DocumentTypeElection, 3), testLayout("election"), 0.9)
	require.NoError(t, err)

	p, ok := store.Nearest(testSignature(domain.DocumentTypeChurch, 3), 0.5)
	require.True(t, ok)
	assert.Equal(t, []string{"two"}, p.Layout.SectionOrder)

	_, ok = store.Nearest(testSignature(domain.DocumentTypeNewsletter, 3), 0.5)
	assert.False(t, ok, "different document types never match")
}

func TestPatternStore_ConcurrentSameSignature(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	sig := testSignature(domain.DocumentTypeChurch, 1)
	ctx := context.Background()

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordOutcome(ctx, sig, testLayout("a"), 1.0)
			assert.NoError(t, err)
		}()
	}

	// Readers run alongside and only ever see complete patterns.
	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if p, ok := store.Lookup(sig); ok {
				assert.NotEmpty(t, p.ID)
				assert.GreaterOrEqual(t, p.UsageCount, 1)
				assert.Equal(t, []string{"a"}, p.Layout.SectionOrder)
			}
		}
	}()

	wg.Wait()
	close(stop)
	readers.Wait()

	p, ok := store.Lookup(sig)
	require.True(t, ok)
	assert.Equal(t, writers, p.UsageCount, "no write is lost")
}

func TestPatternStore_ConcurrentDifferentSignatures(t *testing.T) {
	store := NewPatternStore(domain.DefaultLearningSettings())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := store.RecordOutcome(ctx, testSignature(domain.DocumentTypeChurch, i), testLayout("a"), 0.9)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 20)
	for _, st := range stats {
		assert.Equal(t, 10, st.UsageCount)
	}
}

func TestPatternStore_WriteBehind(t *testing.T) {
	persister := newRecordingPersister()
	store := NewPatternStore(domain.DefaultLearningSettings(), WithPersister(persister, 1000, 3))
	ctx := context.Background()
	sig := testSignature(domain.DocumentTypeChurch, 1)

	var last *domain.Pattern
	for i := 0; i < 5; i++ {
		p, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.6)
		require.NoError(t, err)
		last = p
	}
	require.NoError(t, store.Close())

	saved, ok := persister.get(last.ID)
	require.True(t, ok)
	assert.Equal(t, 5, saved.UsageCount, "latest version is persisted")

	_, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.6)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestPatternStore_CloseDuringWritesPersistsEveryAcceptedUpdate(t *testing.T) {
	persister := newRecordingPersister()
	store := NewPatternStore(domain.DefaultLearningSettings(), WithPersister(persister, 1000, 1))
	ctx := context.Background()

	var (
		mu       sync.Mutex
		accepted = make(map[string]int)
		wg       sync.WaitGroup
	)
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig := testSignature(domain.DocumentTypeChurch, i)
			for j := 0; j < 50; j++ {
				p, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.8)
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrStoreClosed)
					return
				}
				mu.Lock()
				accepted[p.ID] = p.UsageCount
				mu.Unlock()
			}
		}()
	}
	time.Sleep(time.Millisecond)
	require.NoError(t, store.Close())
	wg.Wait()

	for id, usage := range accepted {
		saved, ok := persister.get(id)
		require.True(t, ok, "pattern %s accepted but not persisted", id)
		assert.Equal(t, usage, saved.UsageCount)
	}
}

func TestWriteBehind_RejectsAfterClose(t *testing.T) {
	persister := newRecordingPersister()
	w := newWriteBehind(persister, 1000, 1)
	p := &domain.Pattern{ID: "p-1", Signature: testSignature(domain.DocumentTypeChurch, 1)}

	assert.True(t, w.enqueue(p))
	require.NoError(t, w.close())
	_, ok := persister.get("p-1")
	assert.True(t, ok)

	assert.False(t, w.enqueue(&domain.Pattern{ID: "p-2"}))
	_, ok = persister.get("p-2")
	assert.False(t, ok)
}

func TestPatternStore_WriteBehind_Contention(t *testing.T) {
	persister := newRecordingPersister()
	persister.fail = errors.New("database is locked")
	store := NewPatternStore(domain.DefaultLearningSettings(), WithPersister(persister, 1000, 2))
	ctx := context.Background()
	sig := testSignature(domain.DocumentTypeChurch, 1)

	p, err := store.RecordOutcome(ctx, sig, testLayout("a"), 0.6)
	require.NoError(t, err)

	err = store.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreContention)

	var contention *domain.StoreContentionError
	require.ErrorAs(t, err, &contention)
	assert.Equal(t, sig.Key(), contention.Key)
	assert.Equal(t, 2, contention.Attempts)

	// The in-memory pattern is unaffected.
	got, ok := store.Lookup(sig)
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)

	persister.mu.Lock()
	persister.fail = nil
	persister.mu.Unlock()
	assert.NoError(t, store.Close())
}

func TestPatternStore_Load(t *testing.T) {
	persister := newRecordingPersister()
	sig := testSignature(domain.DocumentTypeNewsletter, 1)
	persister.loaded = []domain.Pattern{{
		ID: "p-1", Signature: sig, Layout: testLayout("x"),
		UsageCount: 4, SuccessRate: 0.75, CreatedAt: time.Now(),
	}}
	store := NewPatternStore(domain.DefaultLearningSettings(), WithPersister(persister, 1000, 1))
	defer store.Close()

	n, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, ok := store.Lookup(sig)
	require.True(t, ok)
	assert.Equal(t, "p-1", p.ID)

	got, err := store.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.UsageCount)
}
