// Package jsondoc decodes recognizer output delivered as JSON.
//
// Two shapes are accepted: a full document object
//
//	{"id": "...", "document_type": "church_bulletin", "pages": [...]}
//
// or a bare array of pages.
package jsondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.PayloadDecoder = (*Decoder)(nil)

// Decoder handles JSON payloads.
type Decoder struct{}

// New creates a new JSON decoder.
func New() *Decoder {
	return &Decoder{}
}

// Formats returns the format names this decoder handles.
func (d *Decoder) Formats() []string {
	return []string{"json"}
}

// Extensions returns the file extensions this decoder handles.
func (d *Decoder) Extensions() []string {
	return []string{".json"}
}

// Decode parses a JSON payload.
func (d *Decoder) Decode(_ context.Context, data []byte) (*domain.RawDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidInput)
	}

	if trimmed[0] == '[' {
		var pages []domain.RawPageOutput
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return &domain.RawDocument{Pages: pages}, nil
	}

	var doc domain.RawDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &doc, nil
}
