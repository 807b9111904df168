package services

import (
	"sort"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// Merger combines per-page fields into one canonical record.
// Merge is pure: any permutation of the pages yields the same record.
type Merger struct{}

// NewMerger creates a merger.
func NewMerger() *Merger {
	return &Merger{}
}

// candidate is a value with the provenance used for tie-breaks.
type candidate struct {
	value   string
	page    int
	seq     int
	mapping domain.FieldMapping
}

// beats reports whether c should replace cur: longer non-empty wins,
// then lower page, then lower sequence, then lexical order.
func (c candidate) beats(cur candidate) bool {
	lc, lcur := runeLen(c.value), runeLen(cur.value)
	if lc != lcur {
		return lc > lcur
	}
	if c.page != cur.page {
		return c.page < cur.page
	}
	if c.seq != cur.seq {
		return c.seq < cur.seq
	}
	return c.value < cur.value
}

// MergeSingleton resolves two values of the same singleton field.
// Merging a value with itself returns it unchanged.
func MergeSingleton(a, b domain.SingletonValue) domain.SingletonValue {
	ca := candidate{value: a.Value, page: a.Page, seq: a.Seq}
	cb := candidate{value: b.Value, page: b.Page, seq: b.Seq}
	if cb.beats(ca) {
		return b
	}
	return a
}

// Merge reduces the page results of one document into a MergedRecord.
func (m *Merger) Merge(pages []domain.PageFields) *domain.MergedRecord {
	ordered := append([]domain.PageFields(nil), pages...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Page < ordered[j].Page })

	rec := domain.NewMergedRecord(mergeDocumentType(ordered))

	type firstSeen struct{ page, seq int }
	entityFirst := make(map[string]firstSeen)
	sections := make(map[string]*domain.SectionText)
	var sectionIDs []string

	for pi := range ordered {
		pf := &ordered[pi]

		for _, fr := range pf.Records {
			merged, ok := rec.Entities[fr.EntityKey]
			if !ok {
				merged = domain.NewFieldRecord(fr.EntityKey, fr.Page, fr.Seq)
				entityFirst[fr.EntityKey] = firstSeen{fr.Page, fr.Seq}
			} else if f := entityFirst[fr.EntityKey]; fr.Page < f.page || (fr.Page == f.page && fr.Seq < f.seq) {
				entityFirst[fr.EntityKey] = firstSeen{fr.Page, fr.Seq}
				merged.Page, merged.Seq = fr.Page, fr.Seq
			}
			mergeFields(&merged, fr)
			rec.Entities[fr.EntityKey] = merged
		}

		for field, v := range pf.Singletons {
			if cur, ok := rec.Singletons[field]; ok {
				rec.Singletons[field] = MergeSingleton(cur, v)
			} else {
				rec.Singletons[field] = v
			}
		}

		for _, s := range pf.Sections {
			cur, ok := sections[s.ID]
			if !ok {
				cp := s
				if s.Position != nil {
					p := *s.Position
					cp.Position = &p
				}
				sections[s.ID] = &cp
				sectionIDs = append(sectionIDs, s.ID)
				continue
			}
			mergeSection(cur, s)
		}

		rec.Images = append(rec.Images, pf.Images...)
		for _, u := range pf.Unmapped {
			u.Cells = append([]string(nil), u.Cells...)
			rec.Unmapped = append(rec.Unmapped, u)
		}
		for width, schema := range pf.HeaderSchemas {
			if _, ok := rec.Schemas[width]; !ok {
				rec.Schemas[width] = append([]string(nil), schema...)
			}
		}
	}

	for key := range rec.Entities {
		rec.EntityOrder = append(rec.EntityOrder, key)
	}
	sort.Slice(rec.EntityOrder, func(i, j int) bool {
		a, b := entityFirst[rec.EntityOrder[i]], entityFirst[rec.EntityOrder[j]]
		if a.page != b.page {
			return a.page < b.page
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return rec.EntityOrder[i] < rec.EntityOrder[j]
	})

	for _, id := range sectionIDs {
		rec.Sections = append(rec.Sections, *sections[id])
	}
	sort.SliceStable(rec.Sections, func(i, j int) bool {
		a, b := rec.Sections[i], rec.Sections[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})

	sort.SliceStable(rec.Images, func(i, j int) bool {
		a, b := rec.Images[i], rec.Images[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Seq < b.Seq
	})
	sort.SliceStable(rec.Unmapped, func(i, j int) bool {
		a, b := rec.Unmapped[i], rec.Unmapped[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return a.Row < b.Row
	})

	return rec
}

// mergeFields unions fr into merged, keeping the winning value and its tag.
func mergeFields(merged *domain.FieldRecord, fr domain.FieldRecord) {
	for field, v := range fr.Fields {
		next := candidate{value: v, page: fr.Page, seq: fr.Seq, mapping: fr.Confidence[field]}
		if next.mapping.Page != 0 {
			next.page = next.mapping.Page
		}
		curVal, ok := merged.Fields[field]
		if !ok {
			merged.Set(field, v, next.mapping)
			continue
		}
		curMapping := merged.Confidence[field]
		cur := candidate{value: curVal, page: curMapping.Page, seq: merged.Seq, mapping: curMapping}
		if curMapping.Page == 0 {
			cur.page = merged.Page
		}
		if next.beats(cur) {
			merged.Set(field, v, next.mapping)
		}
	}
}

func mergeSection(cur *domain.SectionText, s domain.SectionText) {
	heading := MergeSingleton(
		domain.SingletonValue{Value: cur.Heading, Page: cur.Page, Seq: cur.Seq},
		domain.SingletonValue{Value: s.Heading, Page: s.Page, Seq: s.Seq},
	)
	body := MergeSingleton(
		domain.SingletonValue{Value: cur.Body, Page: cur.Page, Seq: cur.Seq},
		domain.SingletonValue{Value: s.Body, Page: s.Page, Seq: s.Seq},
	)
	cur.Heading, cur.Body = heading.Value, body.Value
	if s.Page < cur.Page || (s.Page == cur.Page && s.Seq < cur.Seq) {
		cur.Page, cur.Seq = s.Page, s.Seq
		if s.Position != nil {
			p := *s.Position
			cur.Position = &p
		}
	}
}

// mergeDocumentType takes the majority known type, ties going to the
// type of the earliest page.
func mergeDocumentType(pages []domain.PageFields) domain.DocumentType {
	votes := make(map[domain.DocumentType]int)
	first := make(map[domain.DocumentType]int)
	for _, pf := range pages {
		t := pf.DocumentType
		if t == "" || t == domain.DocumentTypeUnknown {
			continue
		}
		if _, ok := first[t]; !ok {
			first[t] = pf.Page
		}
		votes[t]++
	}
	best := domain.DocumentTypeUnknown
	for t, n := range votes {
		switch {
		case best == domain.DocumentTypeUnknown:
			best = t
		case n > votes[best]:
			best = t
		case n == votes[best] && first[t] < first[best]:
			best = t
		}
	}
	return best
}
