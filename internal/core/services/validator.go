package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Section value names used in issue refs.
const (
	sectionHeading = "heading"
	sectionBody    = "body"
)

// Validator checks merged records for fabricated content, missing
// fields and ordering problems. It feeds hallucinations into the issue
// log and promotes repeated ones to the blocklist.
type Validator struct {
	blocklist driven.Blocklist
	issues    driven.IssueLog
	learning  domain.LearningSettings
	now       func() time.Time
}

// NewValidator creates a validator. issues may be nil, in which case
// nothing is logged or promoted.
func NewValidator(blocklist driven.Blocklist, issues driven.IssueLog, learning domain.LearningSettings) *Validator {
	return &Validator{blocklist: blocklist, issues: issues, learning: learning, now: time.Now}
}

// value is one checkable string in a record.
type value struct {
	ref  domain.IssueRef
	text string

	// field drives heuristics and safe defaults; empty for section text.
	field string
}

// Validate returns every issue found in rec. The record is not modified.
func (v *Validator) Validate(ctx context.Context, rec *domain.MergedRecord) ([]domain.ValidationIssue, error) {
	if rec == nil {
		return nil, domain.ErrInvalidInput
	}

	var entries []domain.BlocklistEntry
	if v.blocklist != nil {
		var err error
		entries, err = v.blocklist.List(ctx, rec.DocumentType)
		if err != nil {
			return nil, fmt.Errorf("failed to load blocklist: %w", err)
		}
	}

	var issues []domain.ValidationIssue
	for _, val := range collectValues(rec) {
		if is, ok := blocklistIssue(rec.DocumentType, val, entries); ok {
			issues = append(issues, is)
			v.log(ctx, rec.DocumentType, val)
			continue
		}
		if val.field == "" {
			if phrase := summaryPhrase(val.text); phrase != "" {
				issues = append(issues, v.fabricated(ctx, rec.DocumentType, val, "summarising phrase "+phrase))
			}
			continue
		}
		if reason := heuristicIssue(val.field, val.text); reason != "" {
			issues = append(issues, v.fabricated(ctx, rec.DocumentType, val, reason))
		}
	}

	issues = append(issues, titleMismatches(rec)...)
	issues = append(issues, missingRequired(rec)...)
	issues = append(issues, structureOrder(rec)...)

	logger.Debug("validate %s: %d issue(s), %d unresolved", rec.DocumentType, len(issues), len(domain.Unresolved(issues)))
	return issues, nil
}

// collectValues lists every non-empty value in a deterministic order:
// singletons by field, entities in order, then section text.
func collectValues(rec *domain.MergedRecord) []value {
	var out []value

	fields := make([]string, 0, len(rec.Singletons))
	for f := range rec.Singletons {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		s := rec.Singletons[f]
		if s.Value != "" {
			out = append(out, value{ref: domain.IssueRef{Field: f, Page: s.Page}, text: s.Value, field: f})
		}
	}

	for _, e := range rec.OrderedEntities() {
		keys := make([]string, 0, len(e.Fields))
		for f := range e.Fields {
			keys = append(keys, f)
		}
		sort.Strings(keys)
		for _, f := range keys {
			if t := e.Fields[f]; t != "" {
				page := e.Confidence[f].Page
				if page == 0 {
					page = e.Page
				}
				out = append(out, value{
					ref:  domain.IssueRef{EntityKey: e.EntityKey, Field: f, Page: page},
					text: t, field: f,
				})
			}
		}
	}

	for _, s := range rec.Sections {
		if s.Heading != "" {
			out = append(out, value{ref: domain.IssueRef{Section: s.ID, Field: sectionHeading, Page: s.Page}, text: s.Heading})
		}
		if s.Body != "" {
			out = append(out, value{ref: domain.IssueRef{Section: s.ID, Field: sectionBody, Page: s.Page}, text: s.Body})
		}
	}
	return out
}

// blocklistIssue matches a value against blocklist entries by normalised
// containment. The longest matching phrase wins.
func blocklistIssue(docType domain.DocumentType, val value, entries []domain.BlocklistEntry) (domain.ValidationIssue, bool) {
	key := domain.TextKey(val.text)
	var hit *domain.BlocklistEntry
	for i := range entries {
		e := &entries[i]
		if e.PhraseKey == "" || !e.Applies(docType) || !strings.Contains(key, e.PhraseKey) {
			continue
		}
		if hit == nil || len(e.PhraseKey) > len(hit.PhraseKey) {
			hit = e
		}
	}
	if hit == nil {
		return domain.ValidationIssue{}, false
	}

	corr := &domain.Correction{Action: domain.CorrectionRemove}
	if key != hit.PhraseKey {
		if rest := stripPhrase(val.text, hit.Phrase); rest != "" && rest != val.text {
			corr = &domain.Correction{Action: domain.CorrectionReplace, Value: rest}
		}
	}
	if corr.Action == domain.CorrectionRemove {
		if hit.SafeDefault != "" {
			corr = &domain.Correction{Action: domain.CorrectionReplace, Value: hit.SafeDefault}
		} else if def, ok := docType.SafeDefault(val.field); ok {
			corr = &domain.Correction{Action: domain.CorrectionReplace, Value: def}
		}
	}

	return domain.ValidationIssue{
		Category:        domain.CategoryHallucination,
		Severity:        domain.SeverityCritical,
		Ref:             val.ref,
		Text:            val.text,
		Message:         fmt.Sprintf("blocklisted phrase %q", hit.Phrase),
		AutoCorrectable: true,
		Correction:      corr,
	}, true
}

// fabricated builds a heuristic hallucination issue, logs it and
// promotes the text once it has been seen often enough.
func (v *Validator) fabricated(
	ctx context.Context,
	docType domain.DocumentType,
	val value,
	reason string,
) domain.ValidationIssue {
	is := domain.ValidationIssue{
		Category: domain.CategoryHallucination,
		Severity: domain.SeverityCritical,
		Ref:      val.ref,
		Text:     val.text,
		Message:  reason,
	}

	count := v.log(ctx, docType, val)
	if count >= v.learning.PromotionThreshold && v.blocklist != nil {
		entry := &domain.BlocklistEntry{
			ID:           uuid.New().String(),
			DocumentType: docType,
			Phrase:       val.text,
			PhraseKey:    domain.TextKey(val.text),
			Source:       domain.BlocklistPromoted,
			Occurrences:  count,
			CreatedAt:    v.now(),
		}
		if def, ok := docType.SafeDefault(val.field); ok {
			entry.SafeDefault = def
		}
		if err := v.blocklist.Add(ctx, entry); err != nil {
			logger.Warn("failed to promote %q to blocklist: %v", val.text, err)
		} else {
			logger.Info("promoted %q to %s blocklist after %d occurrence(s)", val.text, docType, count)
		}
	}
	return is
}

// log appends a hallucination occurrence and returns the running count.
func (v *Validator) log(ctx context.Context, docType domain.DocumentType, val value) int {
	if v.issues == nil {
		return 0
	}
	count, err := v.issues.Append(ctx, domain.IssueOccurrence{
		DocumentType: docType,
		Category:     domain.CategoryHallucination,
		TextKey:      domain.TextKey(val.text),
		Text:         val.text,
		Field:        val.ref.Field,
		Page:         val.ref.Page,
		RecordedAt:   v.now(),
	})
	if err != nil {
		logger.Warn("failed to log issue occurrence: %v", err)
		return 0
	}
	return count
}

// titleMismatches warns when none of a heading's salient keywords
// appear in its body.
func titleMismatches(rec *domain.MergedRecord) []domain.ValidationIssue {
	var out []domain.ValidationIssue
	for _, s := range rec.Sections {
		if s.Heading == "" || s.Body == "" {
			continue
		}
		kws := keywords(s.Heading, titleStopWords)
		if len(kws) == 0 {
			continue
		}
		body := tokenKey(s.Body)
		found := false
		for _, kw := range kws {
			if strings.Contains(body, tokenKey(kw)) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, domain.ValidationIssue{
				Category: domain.CategoryTitleMismatch,
				Severity: domain.SeverityWarning,
				Ref:      domain.IssueRef{Section: s.ID, Field: sectionHeading, Page: s.Page},
				Text:     s.Heading,
				Message:  fmt.Sprintf("none of %v appear in the section body", kws),
			})
		}
	}
	return out
}

// missingRequired checks required fields, required sections and
// rows that could not be mapped.
func missingRequired(rec *domain.MergedRecord) []domain.ValidationIssue {
	var out []domain.ValidationIssue
	for _, f := range rec.DocumentType.RequiredFields() {
		if rec.Singleton(f) != "" {
			continue
		}
		is := domain.ValidationIssue{
			Category: domain.CategoryMissingRequired,
			Severity: domain.SeverityCritical,
			Ref:      domain.IssueRef{Field: f},
			Message:  fmt.Sprintf("required field %s is missing", f),
		}
		if def, ok := rec.DocumentType.SafeDefault(f); ok {
			is.Severity = domain.SeverityWarning
			is.AutoCorrectable = true
			is.Correction = &domain.Correction{Action: domain.CorrectionInsert, Value: def}
		}
		out = append(out, is)
	}

	for _, id := range rec.DocumentType.RequiredSections() {
		if rec.HasSection(id) {
			continue
		}
		out = append(out, domain.ValidationIssue{
			Category:        domain.CategoryMissingRequired,
			Severity:        domain.SeverityWarning,
			Ref:             domain.IssueRef{Section: id, Field: sectionBody},
			Message:         fmt.Sprintf("required section %s is missing", id),
			AutoCorrectable: true,
			Correction:      &domain.Correction{Action: domain.CorrectionInsert, Value: domain.SectionPlaceholder},
		})
	}

	for _, u := range rec.Unmapped {
		out = append(out, domain.ValidationIssue{
			Category: domain.CategoryMissingRequired,
			Severity: domain.SeverityWarning,
			Ref:      domain.IssueRef{Field: fmt.Sprintf("table %d row %d", u.Table, u.Row), Page: u.Page},
			Text:     u.Text(),
			Message:  "unmapped row: " + u.Reason,
		})
	}
	return out
}

// structureOrder warns for each canonical section that appears after a
// section meant to follow it.
func structureOrder(rec *domain.MergedRecord) []domain.ValidationIssue {
	canon := rec.DocumentType.CanonicalSections()
	index := make(map[string]int, len(canon))
	for i, id := range canon {
		index[id] = i
	}

	var out []domain.ValidationIssue
	maxIdx, maxID := -1, ""
	for _, s := range rec.Sections {
		i, ok := index[s.ID]
		if !ok {
			continue
		}
		if i < maxIdx {
			out = append(out, domain.ValidationIssue{
				Category: domain.CategoryStructureOrder,
				Severity: domain.SeverityWarning,
				Ref:      domain.IssueRef{Section: s.ID, Page: s.Page},
				Message:  fmt.Sprintf("section %s appears after %s", s.ID, maxID),
			})
			continue
		}
		maxIdx, maxID = i, s.ID
	}
	return out
}

// ApplyCorrections returns a corrected copy of rec. Only auto-correctable
// issues with a correction are applied; rec itself is never modified.
func ApplyCorrections(rec *domain.MergedRecord, issues []domain.ValidationIssue) *domain.MergedRecord {
	out := rec.Clone()
	for _, is := range issues {
		if !is.AutoCorrectable || is.Correction == nil {
			continue
		}
		applyCorrection(out, is.Ref, *is.Correction)
	}
	return out
}

func applyCorrection(rec *domain.MergedRecord, ref domain.IssueRef, c domain.Correction) {
	switch {
	case ref.EntityKey != "":
		e, ok := rec.Entities[ref.EntityKey]
		if !ok {
			return
		}
		if c.Action == domain.CorrectionRemove {
			e.Delete(ref.Field)
		} else {
			e.Fields[ref.Field] = c.Value
		}
		rec.Entities[ref.EntityKey] = e

	case ref.Section != "":
		s, ok := rec.Section(ref.Section)
		if !ok {
			if c.Action == domain.CorrectionInsert {
				rec.Sections = append(rec.Sections, domain.SectionText{
					ID:      ref.Section,
					Heading: domain.SectionLabel(ref.Section),
					Body:    c.Value,
					Page:    ref.Page,
					Seq:     len(rec.Sections),
				})
			}
			return
		}
		text := c.Value
		if c.Action == domain.CorrectionRemove {
			text = ""
		}
		if ref.Field == sectionHeading {
			s.Heading = text
		} else {
			s.Body = text
		}

	case ref.Field != "":
		if c.Action == domain.CorrectionRemove {
			delete(rec.Singletons, ref.Field)
			return
		}
		sv := rec.Singletons[ref.Field]
		sv.Value = c.Value
		if sv.Page == 0 {
			sv.Page = ref.Page
		}
		rec.Singletons[ref.Field] = sv
	}
}
