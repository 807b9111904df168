package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure ConversionService implements the interface.
var _ driving.ConversionService = (*ConversionService)(nil)

// Quality penalties per issue kind.
const (
	warningPenalty   = 0.05
	correctedPenalty = 0.1
)

// ConversionService runs a document through parse, merge, validate,
// correct and synthesize, then records the outcome with the pattern store.
type ConversionService struct {
	parser      *FieldParser
	merger      *Merger
	validator   *Validator
	synthesizer *Synthesizer
	patterns    driven.PatternStore
	decoders    driven.DecoderRegistry
}

// NewConversionService creates a conversion service.
// decoders may be nil when only Convert is used.
func NewConversionService(
	patterns driven.PatternStore,
	blocklist driven.Blocklist,
	issues driven.IssueLog,
	decoders driven.DecoderRegistry,
	settings domain.AppSettings,
) *ConversionService {
	var lookup driven.PatternLookup
	if patterns != nil {
		lookup = patterns
	}
	return &ConversionService{
		parser:      NewFieldParser(lookup, settings.Pipeline),
		merger:      NewMerger(),
		validator:   NewValidator(blocklist, issues, settings.Learning),
		synthesizer: NewSynthesizer(lookup, settings.Pipeline, settings.Learning),
		patterns:    patterns,
		decoders:    decoders,
	}
}

// Convert runs the pipeline for one document. The context is checked
// between stages only; a stage that has started runs to completion.
func (s *ConversionService) Convert(ctx context.Context, doc *domain.RawDocument) (*domain.ConversionResult, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, domain.ErrNoPages
	}
	if doc.DocumentType != "" && !doc.DocumentType.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, doc.DocumentType)
	}

	result := &domain.ConversionResult{DocumentID: doc.ID}
	if result.DocumentID == "" {
		result.DocumentID = uuid.New().String()
	}
	logger.Section("Convert " + result.DocumentID)

	pages, err := s.parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		result.Stats.Add(pages[i].Stats)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aborted before merge: %w", err)
	}
	merged := s.merge(pages)
	if doc.DocumentType != "" && doc.DocumentType != domain.DocumentTypeUnknown {
		merged.DocumentType = doc.DocumentType
	}
	result.DocumentType = merged.DocumentType

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aborted before validation: %w", err)
	}
	done := logger.Timed("validate")
	issues, err := s.validator.Validate(ctx, merged)
	done()
	if err != nil {
		return nil, fmt.Errorf("failed to validate document %s: %w", result.DocumentID, err)
	}
	result.Issues = issues
	result.Record = ApplyCorrections(merged, issues)
	result.Unresolved = domain.Unresolved(issues)

	if len(result.Unresolved) > 0 {
		logger.Info("document %s has %d unresolved critical issue(s)", result.DocumentID, len(result.Unresolved))
		return result, &domain.ValidationFailureError{DocumentID: result.DocumentID, Issues: result.Unresolved}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aborted before layout: %w", err)
	}
	done = logger.Timed("synthesize")
	plan, err := s.synthesizer.Synthesize(ctx, result.Record, result.Record.DocumentType.RequiredSections())
	done()
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize layout for %s: %w", result.DocumentID, err)
	}
	result.Plan = plan
	result.Quality = QualityScore(issues)

	s.record(ctx, result)
	return result, nil
}

func (s *ConversionService) parse(ctx context.Context, doc *domain.RawDocument) ([]domain.PageFields, error) {
	defer logger.Timed("parse")()
	pages := make([]domain.PageFields, 0, len(doc.Pages))
	for i := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aborted before page %d: %w", doc.Pages[i].Page, err)
		}
		pf, err := s.parser.Parse(ctx, &doc.Pages[i], doc.DocumentType)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", doc.Pages[i].Page, err)
		}
		pages = append(pages, *pf)
	}
	return pages, nil
}

func (s *ConversionService) merge(pages []domain.PageFields) *domain.MergedRecord {
	defer logger.Timed("merge")()
	return s.merger.Merge(pages)
}

// record stores the outcome against the plan's signature. Failures are
// attached to the result rather than failing the conversion.
func (s *ConversionService) record(ctx context.Context, result *domain.ConversionResult) {
	if s.patterns == nil {
		return
	}
	layout := result.Plan.Structure()
	layout.ColumnSchemas = make(map[int][]string, len(result.Record.Schemas))
	for width, schema := range result.Record.Schemas {
		layout.ColumnSchemas[width] = append([]string(nil), schema...)
	}

	// The outcome is recorded even if the caller's deadline has passed,
	// since the plan has already been produced.
	p, err := s.patterns.RecordOutcome(context.WithoutCancel(ctx), result.Plan.Signature, layout, result.Quality)
	if err != nil {
		var contention *domain.StoreContentionError
		if errors.As(err, &contention) {
			logger.Warn("pattern store unavailable: %v", err)
		} else {
			logger.Warn("failed to record outcome: %v", err)
		}
		result.LearningError = err.Error()
		if p == nil {
			return
		}
	}
	result.PatternID = p.ID
}

// ConvertPayload decodes a recognizer payload and converts it.
func (s *ConversionService) ConvertPayload(
	ctx context.Context,
	format string,
	data []byte,
) (*domain.ConversionResult, error) {
	if s.decoders == nil {
		return nil, fmt.Errorf("%w: no decoders registered", domain.ErrUnsupportedType)
	}
	doc, err := s.decoders.Decode(ctx, format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", format, err)
	}
	return s.Convert(ctx, doc)
}

// FormatForPath returns the payload format for a file path.
func (s *ConversionService) FormatForPath(path string) (string, bool) {
	if s.decoders == nil {
		return "", false
	}
	return s.decoders.FormatForPath(path)
}

// Formats returns the supported payload formats.
func (s *ConversionService) Formats() []string {
	if s.decoders == nil {
		return nil
	}
	return s.decoders.Formats()
}

// QualityScore rates an accepted conversion: each warning costs 0.05 and
// each auto-corrected critical issue 0.1, clamped to [0, 1].
func QualityScore(issues []domain.ValidationIssue) float64 {
	q := 1.0
	for _, is := range issues {
		switch {
		case !is.IsCritical():
			q -= warningPenalty
		case is.AutoCorrectable:
			q -= correctedPenalty
		}
	}
	if q < 0 {
		return 0
	}
	return q
}
