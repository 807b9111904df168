package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DecoderRegistry = (*Registry)(nil)

// Registry dispatches payloads to decoders by format name or file extension.
type Registry struct {
	mu         sync.RWMutex
	byFormat   map[string]driven.PayloadDecoder
	extensions map[string]string
	cleaners   []driven.PageCleaner
}

// NewRegistry creates a registry. Cleaners run in order over every page
// of every decoded document.
func NewRegistry(cleaners ...driven.PageCleaner) *Registry {
	return &Registry{
		byFormat:   make(map[string]driven.PayloadDecoder),
		extensions: make(map[string]string),
		cleaners:   cleaners,
	}
}

// Register adds a decoder. A later decoder replaces an earlier one
// for the same format or extension.
func (r *Registry) Register(decoder driven.PayloadDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	formats := decoder.Formats()
	for _, f := range formats {
		r.byFormat[strings.ToLower(f)] = decoder
	}
	if len(formats) == 0 {
		return
	}
	for _, ext := range decoder.Extensions() {
		r.extensions[strings.ToLower(ext)] = strings.ToLower(formats[0])
	}
}

// Decode decodes a payload in the named format and cleans every page.
func (r *Registry) Decode(ctx context.Context, format string, data []byte) (*domain.RawDocument, error) {
	r.mu.RLock()
	decoder, ok := r.byFormat[strings.ToLower(format)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: payload format %q", domain.ErrUnsupportedType, format)
	}

	doc, err := decoder.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", format, err)
	}

	numberPages(doc)
	for i := range doc.Pages {
		for _, c := range r.cleaners {
			if err := c.Clean(&doc.Pages[i]); err != nil {
				return nil, fmt.Errorf("cleaning page %d: %w", doc.Pages[i].Page, err)
			}
		}
	}
	return doc, nil
}

// FormatForPath returns the format registered for a file's extension.
func (r *Registry) FormatForPath(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Formats returns every registered format, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// numberPages gives unnumbered pages their 1-based position.
func numberPages(doc *domain.RawDocument) {
	for i := range doc.Pages {
		if doc.Pages[i].Page <= 0 {
			doc.Pages[i].Page = i + 1
		}
	}
}
