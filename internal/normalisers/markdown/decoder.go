// Package markdown decodes the recognizer's raw markdown transcript: the
// response text it produces before any JSON wrapping, with bracketed
// section markers, label lines and pipe tables.
//
// Pages are separated by marker lines such as
//
//	<!-- page 2 -->
//	--- page 2 ---
//	=== 페이지 2 ===
//
// or by a form feed. Text without markers is a single page.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.PayloadDecoder = (*Decoder)(nil)

var (
	pageMarker = regexp.MustCompile(`(?i)^\s*(?:<!--\s*(?:page|페이지)\s*(\d+)\s*-->|[-=]{3,}\s*(?:page|페이지)\s*(\d+)\s*[-=]{3,})\s*$`)
	imageLine  = regexp.MustCompile(`^!\[([^\]]*)\]\([^)]*\)$`)
	typeLine   = regexp.MustCompile(`(?i)^document_type\s*:\s*(\S+)\s*$`)
)

// Decoder handles markdown transcripts.
type Decoder struct{}

// New creates a new markdown transcript decoder.
func New() *Decoder {
	return &Decoder{}
}

// Formats returns the format names this decoder handles.
func (d *Decoder) Formats() []string {
	return []string{"markdown"}
}

// Extensions returns the file extensions this decoder handles.
func (d *Decoder) Extensions() []string {
	return []string{".md", ".markdown", ".txt"}
}

// Decode splits a transcript into pages and blocks. Blank lines separate
// blocks; pipe rows stay inside their block for the parser to collect.
func (d *Decoder) Decode(_ context.Context, data []byte) (*domain.RawDocument, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty transcript", domain.ErrInvalidInput)
	}

	doc := &domain.RawDocument{}
	page := domain.RawPageOutput{}
	var block []string
	started := false

	flushBlock := func() {
		if len(block) > 0 {
			page.Blocks = append(page.Blocks, domain.TextBlock{
				Text: strings.Join(block, "\n"),
				Kind: domain.BlockParagraph,
			})
			block = nil
		}
	}
	flushPage := func(next int) {
		flushBlock()
		if started || len(page.Blocks) > 0 {
			doc.Pages = append(doc.Pages, page)
		}
		page = domain.RawPageOutput{Page: next}
		started = true
	}

	for _, raw := range strings.Split(text, "\n") {
		for i, part := range strings.Split(raw, "\f") {
			if i > 0 {
				flushPage(0)
			}
			line := strings.TrimSpace(part)

			if m := pageMarker.FindStringSubmatch(line); m != nil {
				n, _ := strconv.Atoi(m[1] + m[2])
				flushPage(n)
				continue
			}
			if len(doc.Pages) == 0 && len(page.Blocks) == 0 && len(block) == 0 {
				if m := typeLine.FindStringSubmatch(line); m != nil {
					doc.DocumentType = domain.DocumentType(m[1])
					continue
				}
			}
			if line == "" {
				flushBlock()
				continue
			}
			if m := imageLine.FindStringSubmatch(line); m != nil {
				flushBlock()
				page.Blocks = append(page.Blocks, domain.TextBlock{Text: m[1], Kind: domain.BlockImage})
				continue
			}
			block = append(block, line)
		}
	}
	flushBlock()
	if len(page.Blocks) > 0 {
		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}
