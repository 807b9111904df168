package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// ConversionService runs the extraction and layout pipeline.
type ConversionService interface {
	// Convert runs parse, merge, validate, correct and synthesize for one
	// document. When critical issues remain it returns the partial result
	// together with a *domain.ValidationFailureError and no plan.
	Convert(ctx context.Context, doc *domain.RawDocument) (*domain.ConversionResult, error)

	// ConvertPayload decodes a recognizer payload and converts it.
	ConvertPayload(ctx context.Context, format string, data []byte) (*domain.ConversionResult, error)

	// FormatForPath returns the payload format for a file path.
	FormatForPath(path string) (string, bool)

	// Formats returns the supported payload formats.
	Formats() []string
}
