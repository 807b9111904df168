package domain

import "strings"

// BlockKind is the recognizer's hint for a free-text block.
type BlockKind string

// Known block kinds.
const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockTableRow  BlockKind = "table-row"
	BlockListItem  BlockKind = "list-item"
	BlockImage     BlockKind = "image"
)

// Position is an approximate bounding box on the page, in points.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the lower edge of the box.
func (p Position) Bottom() float64 {
	return p.Y + p.Height
}

// TextBlock is one free-text block from the recognizer.
type TextBlock struct {
	// Text is the raw block text.
	Text string `json:"text"`

	// Kind is the recognizer's type hint. Empty means paragraph.
	Kind BlockKind `json:"kind"`

	// Position is nil when the recognizer supplied no coordinates.
	Position *Position `json:"position,omitempty"`
}

// RawTable is a markdown-style table as a list of pipe-delimited rows.
type RawTable struct {
	Rows []string `json:"rows,omitempty"`
}

// RawPageOutput is one page's recognition result.
// It is produced by the external recognizer and consumed once.
type RawPageOutput struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// Blocks are the free-text blocks in reading order.
	Blocks []TextBlock `json:"blocks,omitempty"`

	// Tables are the raw tables found on the page.
	Tables []RawTable `json:"tables,omitempty"`
}

// RowCount returns the number of non-blank table rows on the page.
func (p *RawPageOutput) RowCount() int {
	n := 0
	for _, t := range p.Tables {
		for _, row := range t.Rows {
			if strings.TrimSpace(row) != "" {
				n++
			}
		}
	}
	return n
}

// RawDocument is a whole document as supplied by the caller.
type RawDocument struct {
	// ID identifies the document. Generated when empty.
	ID string `json:"id"`

	// Source is an optional origin hint (file path, job ID).
	Source string `json:"source"`

	// DocumentType overrides type inference when set.
	DocumentType DocumentType `json:"document_type"`

	// Pages are the per-page recognizer outputs in page order.
	Pages []RawPageOutput `json:"pages,omitempty"`
}
