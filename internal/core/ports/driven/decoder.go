package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// PayloadDecoder turns a recognizer payload into a raw document.
type PayloadDecoder interface {
	// Formats returns the format names this decoder handles (e.g. "json").
	Formats() []string

	// Extensions returns the file extensions it handles (e.g. ".json").
	Extensions() []string

	// Decode parses a payload.
	Decode(ctx context.Context, data []byte) (*domain.RawDocument, error)
}

// PageCleaner repairs recognizer artefacts in a decoded page, such as
// leaked HTML markup or HTML tables.
type PageCleaner interface {
	Clean(page *domain.RawPageOutput) error
}

// DecoderRegistry selects a decoder by format or file extension.
type DecoderRegistry interface {
	// Register adds a decoder.
	Register(decoder PayloadDecoder)

	// Decode decodes a payload in the named format and cleans every page.
	Decode(ctx context.Context, format string, data []byte) (*domain.RawDocument, error)

	// FormatForPath returns the format registered for a file's extension.
	FormatForPath(path string) (string, bool)

	// Formats returns every registered format.
	Formats() []string
}
