package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure IssueLog implements the interface.
var _ driven.IssueLog = (*IssueLog)(nil)

// IssueLog is an in-memory implementation of driven.IssueLog.
type IssueLog struct {
	mu      sync.RWMutex
	entries []domain.IssueOccurrence
	counts  map[issueKey]int
}

type issueKey struct {
	docType domain.DocumentType
	text    string
}

// NewIssueLog creates an empty issue log.
func NewIssueLog() *IssueLog {
	return &IssueLog{counts: make(map[issueKey]int)}
}

// Append records an occurrence and returns the running count for its
// document type and text key.
func (l *IssueLog) Append(_ context.Context, occ domain.IssueOccurrence) (int, error) {
	if occ.TextKey == "" {
		occ.TextKey = domain.TextKey(occ.Text)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, occ)
	k := issueKey{occ.DocumentType, occ.TextKey}
	l.counts[k]++
	return l.counts[k], nil
}

// List returns occurrences for a document type, oldest first.
func (l *IssueLog) List(_ context.Context, docType domain.DocumentType) ([]domain.IssueOccurrence, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.IssueOccurrence
	for _, e := range l.entries {
		if docType == "" || e.DocumentType == docType {
			out = append(out, e)
		}
	}
	return out, nil
}
