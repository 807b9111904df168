package domain

import (
	"fmt"
	"strings"
	"time"
)

// IssueCategory classifies a validation issue.
type IssueCategory string

// Issue categories.
const (
	CategoryHallucination   IssueCategory = "hallucination"
	CategoryTitleMismatch   IssueCategory = "title-mismatch"
	CategoryMissingRequired IssueCategory = "missing-required"
	CategoryStructureOrder  IssueCategory = "structure-order"
)

// Severity ranks how serious an issue is.
type Severity string

// Severities.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// CorrectionAction is what an auto-correction does to the target.
type CorrectionAction string

// Correction actions.
const (
	CorrectionReplace CorrectionAction = "replace"
	CorrectionRemove  CorrectionAction = "remove"
	CorrectionInsert  CorrectionAction = "insert"
)

// Correction is a proposed fix for an issue.
type Correction struct {
	Action CorrectionAction `json:"action"`
	Value  string           `json:"value"`
}

// IssueRef points at the offending part of a record.
// Exactly one of EntityKey/Section is usually set; Field names the value.
type IssueRef struct {
	EntityKey string `json:"entity_key"`
	Section   string `json:"section"`
	Field     string `json:"field"`
	Page      int    `json:"page"`
}

func (r IssueRef) String() string {
	var parts []string
	if r.EntityKey != "" {
		parts = append(parts, "entity="+r.EntityKey)
	}
	if r.Section != "" {
		parts = append(parts, "section="+r.Section)
	}
	if r.Field != "" {
		parts = append(parts, "field="+r.Field)
	}
	parts = append(parts, fmt.Sprintf("page=%d", r.Page))
	return strings.Join(parts, " ")
}

// ValidationIssue is a flagged problem in a merged record.
// Issues never mutate the record until corrections are applied explicitly.
type ValidationIssue struct {
	Category IssueCategory `json:"category"`
	Severity Severity      `json:"severity"`
	Ref      IssueRef      `json:"ref"`

	// Text is the offending value, used for blocklist promotion.
	Text string `json:"text"`

	// Message is a human-readable explanation.
	Message string `json:"message"`

	// AutoCorrectable is true when Correction may be applied unattended.
	AutoCorrectable bool `json:"auto_correctable"`

	// Correction is nil when no automatic fix exists.
	Correction *Correction `json:"correction,omitempty"`
}

// IsCritical reports whether the issue is critical.
func (i ValidationIssue) IsCritical() bool {
	return i.Severity == SeverityCritical
}

// Unresolved returns critical issues that cannot be auto-corrected.
func Unresolved(issues []ValidationIssue) []ValidationIssue {
	var out []ValidationIssue
	for _, is := range issues {
		if is.IsCritical() && !is.AutoCorrectable {
			out = append(out, is)
		}
	}
	return out
}

// IssueOccurrence is one appended entry in the issue log.
type IssueOccurrence struct {
	DocumentType DocumentType  `json:"document_type"`
	Category     IssueCategory `json:"category"`
	TextKey      string        `json:"text_key"`
	Text         string        `json:"text"`
	Field        string        `json:"field"`
	Page         int           `json:"page"`
	RecordedAt   time.Time     `json:"recorded_at"`
}

// BlocklistSource records how an entry entered the blocklist.
type BlocklistSource string

// Blocklist sources.
const (
	BlocklistSeed     BlocklistSource = "seed"
	BlocklistPromoted BlocklistSource = "promoted"
	BlocklistOperator BlocklistSource = "operator"
)

// BlocklistEntry is a known fabricated or placeholder phrase.
type BlocklistEntry struct {
	ID string `json:"id"`

	// DocumentType scopes the entry. Empty applies to every type.
	DocumentType DocumentType `json:"document_type"`

	// Phrase is the text as observed.
	Phrase string `json:"phrase"`

	// PhraseKey is TextKey(Phrase), used for matching.
	PhraseKey string `json:"phrase_key"`

	// SafeDefault replaces a matching value. Empty means remove.
	SafeDefault string `json:"safe_default"`

	Source      BlocklistSource `json:"source"`
	Occurrences int             `json:"occurrences"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Applies reports whether the entry covers a document type.
func (e BlocklistEntry) Applies(t DocumentType) bool {
	return e.DocumentType == "" || e.DocumentType == t
}

// DefaultBlocklist returns phrases the recognizer is known to invent.
func DefaultBlocklist() []BlocklistEntry {
	phrases := []string{
		"[설교 제목]",
		"[목사명]",
		"(내용 없음)",
		"내용이 인식되지 않았습니다",
		"lorem ipsum",
	}
	entries := make([]BlocklistEntry, len(phrases))
	for i, p := range phrases {
		entries[i] = BlocklistEntry{
			ID:        fmt.Sprintf("seed-%d", i+1),
			Phrase:    p,
			PhraseKey: TextKey(p),
			Source:    BlocklistSeed,
		}
	}
	return entries
}

// TextKey normalises text for exact-match comparisons: lower case,
// collapsed whitespace, surrounding punctuation trimmed.
func TextKey(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.Trim(s, " .,:;!?\"'")
}
