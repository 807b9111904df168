package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Signature is the feature fingerprint used to index learned patterns:
// the document type plus the multiset of content block types.
type Signature struct {
	DocumentType DocumentType      `json:"document_type"`
	BlockTypes   map[BlockType]int `json:"block_types,omitempty"`
}

// NewSignature builds a signature from a list of blocks.
func NewSignature(docType DocumentType, blocks []ContentBlock) Signature {
	counts := make(map[BlockType]int)
	for i := range blocks {
		counts[blocks[i].Type]++
	}
	return Signature{DocumentType: docType, BlockTypes: counts}
}

// Key returns the canonical string form, e.g. "newsletter|heading:1,paragraph:3".
func (s Signature) Key() string {
	kinds := make([]string, 0, len(s.BlockTypes))
	for t, n := range s.BlockTypes {
		if n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s:%d", t, n))
		}
	}
	sort.Strings(kinds)
	return string(s.DocumentType) + "|" + strings.Join(kinds, ",")
}

// Similarity returns the weighted Jaccard similarity of two multisets,
// 0 when the document types differ.
func (s Signature) Similarity(o Signature) float64 {
	if s.DocumentType != o.DocumentType {
		return 0
	}
	var minSum, maxSum int
	seen := make(map[BlockType]bool)
	for t, n := range s.BlockTypes {
		seen[t] = true
		m := o.BlockTypes[t]
		minSum += min(n, m)
		maxSum += max(n, m)
	}
	for t, m := range o.BlockTypes {
		if !seen[t] {
			maxSum += m
		}
	}
	if maxSum == 0 {
		return 1
	}
	return float64(minSum) / float64(maxSum)
}

// Clone returns a deep copy.
func (s Signature) Clone() Signature {
	c := Signature{DocumentType: s.DocumentType, BlockTypes: make(map[BlockType]int, len(s.BlockTypes))}
	for k, v := range s.BlockTypes {
		c.BlockTypes[k] = v
	}
	return c
}

// LayoutStructure is the learnable part of a layout plan.
type LayoutStructure struct {
	// SectionOrder lists section keys in rendering order.
	SectionOrder []string `json:"section_order,omitempty"`

	// Strategies maps section key to chosen strategy.
	Strategies map[string]Strategy `json:"strategies,omitempty"`

	// ColumnSchemas maps a table column count to its field layout.
	ColumnSchemas map[int][]string `json:"column_schemas,omitempty"`
}

// Clone returns a deep copy.
func (l LayoutStructure) Clone() LayoutStructure {
	c := LayoutStructure{
		SectionOrder:  append([]string(nil), l.SectionOrder...),
		Strategies:    make(map[string]Strategy, len(l.Strategies)),
		ColumnSchemas: make(map[int][]string, len(l.ColumnSchemas)),
	}
	for k, v := range l.Strategies {
		c.Strategies[k] = v
	}
	for k, v := range l.ColumnSchemas {
		c.ColumnSchemas[k] = append([]string(nil), v...)
	}
	return c
}

// Pattern is a learned association between a signature and a layout.
// Patterns are immutable once published by the store; updates replace them.
type Pattern struct {
	ID          string          `json:"id"`
	Signature   Signature       `json:"signature"`
	Layout      LayoutStructure `json:"layout"`
	UsageCount  int             `json:"usage_count"`
	SuccessRate float64         `json:"success_rate"`
	Flagged     bool            `json:"flagged"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Clone returns a deep copy.
func (p *Pattern) Clone() *Pattern {
	c := *p
	c.Signature = p.Signature.Clone()
	c.Layout = p.Layout.Clone()
	return &c
}

// PatternStats is the read-only export of a pattern for reporting.
type PatternStats struct {
	ID           string       `json:"id"`
	SignatureKey string       `json:"signature_key"`
	DocumentType DocumentType `json:"document_type"`
	UsageCount   int          `json:"usage_count"`
	SuccessRate  float64      `json:"success_rate"`
	Flagged      bool         `json:"flagged"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Stats returns the reporting view of the pattern.
func (p *Pattern) Stats() PatternStats {
	return PatternStats{
		ID:           p.ID,
		SignatureKey: p.Signature.Key(),
		DocumentType: p.Signature.DocumentType,
		UsageCount:   p.UsageCount,
		SuccessRate:  p.SuccessRate,
		Flagged:      p.Flagged,
		UpdatedAt:    p.UpdatedAt,
	}
}

// EMA applies one exponential moving average step, clamped to [0, 1].
func EMA(current, sample, alpha float64) float64 {
	v := current*(1-alpha) + sample*alpha
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// RatingToQuality maps an operator rating of 1..5 linearly onto 0..1.
func RatingToQuality(rating int) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: rating %d outside 1..5", ErrInvalidInput, rating)
	}
	return float64(rating-1) / 4, nil
}

// ShouldFlag reports whether a pattern has been used enough times with a
// success rate low enough to need operator review.
func (l LearningSettings) ShouldFlag(p *Pattern) bool {
	return p.UsageCount >= l.FlagMinUsage && p.SuccessRate < l.FlagFloor
}
