package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// nearestPatternSimilarity is the minimum signature similarity for a
// pattern to bias column resolution on a page.
const nearestPatternSimilarity = 0.5

// FieldParser turns one page of recognizer output into typed fields.
// It is stateless apart from the optional pattern lookup and safe for
// concurrent use.
type FieldParser struct {
	patterns driven.PatternLookup
	pipeline domain.PipelineSettings
}

// NewFieldParser creates a parser. patterns may be nil, in which case
// ambiguous column counts are never biased by learned schemas.
func NewFieldParser(patterns driven.PatternLookup, pipeline domain.PipelineSettings) *FieldParser {
	return &FieldParser{patterns: patterns, pipeline: pipeline}
}

// Parse extracts field records, singletons and sections from one page.
// docType may be empty or unknown, in which case it is inferred from
// the page text.
func (p *FieldParser) Parse(
	ctx context.Context,
	page *domain.RawPageOutput,
	docType domain.DocumentType,
) (*domain.PageFields, error) {
	if page == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if docType == "" || docType == domain.DocumentTypeUnknown {
		docType = inferDocumentType(page)
	}

	text := parseText(page)
	tables := append(append([]domain.RawTable(nil), page.Tables...), text.implicitTables...)

	out := p.parseTables(page.Page, docType, tables, text, nil)

	// Bias ambiguous column counts toward a learned schema.
	if p.patterns != nil && len(out.ambiguous) > 0 {
		if schemas := p.learnedSchemas(out.fields, out.ambiguous); len(schemas) > 0 {
			logger.Debug("page %d: reparsing with learned schemas for widths %v", page.Page, sortedWidths(schemas))
			out = p.parseTables(page.Page, docType, tables, text, schemas)
		}
	}

	pf := out.fields
	logger.Debug("page %d: %s, %d record(s), %d singleton(s), %d section(s), %d unmapped row(s)",
		page.Page, docType, len(pf.Records), len(pf.Singletons), len(pf.Sections), len(pf.Unmapped))
	return pf, nil
}

// learnedSchemas returns recorded column schemas for the ambiguous widths,
// taken from the exact pattern for the page's signature or else the
// nearest pattern of the same document type.
func (p *FieldParser) learnedSchemas(pf *domain.PageFields, ambiguous map[int]bool) map[int][]string {
	rec := NewMerger().Merge([]domain.PageFields{*pf})
	sig := domain.NewSignature(rec.DocumentType, buildBlocks(rec))

	pattern, ok := p.patterns.Lookup(sig)
	if !ok {
		pattern, ok = p.patterns.Nearest(sig, nearestPatternSimilarity)
	}
	if !ok {
		return nil
	}

	schemas := make(map[int][]string)
	for width := range ambiguous {
		if schema, ok := pattern.Layout.ColumnSchemas[width]; ok && len(schema) == width {
			schemas[width] = schema
		}
	}
	return schemas
}

// inferDocumentType votes on keywords across all page text.
func inferDocumentType(page *domain.RawPageOutput) domain.DocumentType {
	var b strings.Builder
	for _, blk := range page.Blocks {
		b.WriteString(blk.Text)
		b.WriteByte('\n')
	}
	for _, t := range page.Tables {
		for _, row := range t.Rows {
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}
	return voteDocumentType(strings.ToLower(b.String()))
}

func voteDocumentType(text string) domain.DocumentType {
	best, bestVotes := domain.DocumentTypeUnknown, 0
	for _, tk := range typeKeywords {
		votes := 0
		for _, kw := range tk.keywords {
			votes += strings.Count(text, kw)
		}
		if votes > bestVotes {
			best, bestVotes = tk.docType, votes
		}
	}
	return best
}

func sortedWidths(m map[int][]string) []int {
	out := make([]int, 0, len(m))
	for w := range m {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// syntheticKey is the entity key used when a row has no name cell.
func syntheticKey(page, table, row int) string {
	return fmt.Sprintf("p%d-t%d-r%d", page, table, row)
}
