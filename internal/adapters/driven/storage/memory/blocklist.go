package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Blocklist implements the interface.
var _ driven.Blocklist = (*Blocklist)(nil)

// Blocklist is an in-memory implementation of driven.Blocklist.
type Blocklist struct {
	mu      sync.RWMutex
	entries map[string]domain.BlocklistEntry
}

// NewBlocklist creates a blocklist holding the given seed entries.
func NewBlocklist(seed ...domain.BlocklistEntry) *Blocklist {
	b := &Blocklist{entries: make(map[string]domain.BlocklistEntry)}
	for _, e := range seed {
		b.entries[e.ID] = e
	}
	return b
}

// List returns entries that apply to docType, oldest first.
// An empty type returns every entry.
func (b *Blocklist) List(_ context.Context, docType domain.DocumentType) ([]domain.BlocklistEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []domain.BlocklistEntry
	for _, e := range b.entries {
		if docType == "" || e.Applies(docType) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Add upserts by (document type, phrase key). On update the existing ID
// is kept and written back into entry.
func (b *Blocklist) Add(_ context.Context, entry *domain.BlocklistEntry) error {
	if entry.PhraseKey == "" {
		entry.PhraseKey = domain.TextKey(entry.Phrase)
	}
	if entry.PhraseKey == "" || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, e := range b.entries {
		if e.DocumentType == entry.DocumentType && e.PhraseKey == entry.PhraseKey {
			entry.ID = id
			entry.CreatedAt = e.CreatedAt
			break
		}
	}
	b.entries[entry.ID] = *entry
	return nil
}

// Remove deletes an entry by ID.
func (b *Blocklist) Remove(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.entries, id)
	return nil
}
