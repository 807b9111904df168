package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// entityColumnOrder is the display order of schedule columns.
var entityColumnOrder = []string{
	domain.FieldName, domain.FieldTime, domain.FieldPresider, domain.FieldScripture,
	domain.FieldPrayer, domain.FieldOfferingPrayer, domain.FieldHymn, domain.FieldSermonTitle,
	domain.FieldSermonPastor, domain.FieldChoir, domain.FieldConductor, domain.FieldSong,
	domain.FieldAccompanist,
}

// badgeFields are short identifying singletons shown as badges.
var badgeFields = []string{
	domain.FieldChurchName, domain.FieldDate, domain.FieldSlogan,
	domain.FieldSeniorPastor, domain.FieldPublisher,
}

// primarySections carry the document's main text.
var primarySections = map[string]bool{
	domain.SectionVerse:   true,
	domain.SectionSermon:  true,
	domain.SectionPledges: true,
	domain.SectionSummary: true,
}

// Block refs.
const (
	refSectionPrefix  = "section:"
	refSchedulePrefix = "schedule:"
	refUnmappedPrefix = "unmapped:"
	refImagePrefix    = "image:"
	refCandidate      = "candidate"
	refContact        = "contact"
	refDivider        = "divider"
)

// buildBlocks converts a merged record into content blocks in
// declaration order.
func buildBlocks(rec *domain.MergedRecord) []domain.ContentBlock {
	var blocks []domain.ContentBlock

	if v, ok := rec.Singletons[domain.FieldTitle]; ok && v.Value != "" {
		blocks = append(blocks, domain.ContentBlock{
			Type: domain.BlockTypeHeading, Priority: domain.PriorityCritical,
			Ref: domain.FieldTitle, Content: v.Value, Page: v.Page,
		})
	}

	if b, ok := profileBlock(rec); ok {
		blocks = append(blocks, b)
	}

	for _, f := range badgeFields {
		if v, ok := rec.Singletons[f]; ok && v.Value != "" {
			blocks = append(blocks, domain.ContentBlock{
				Type: domain.BlockTypeBadge, Priority: domain.PriorityHigh,
				Ref: f, Content: v.Value, Page: v.Page,
			})
		}
	}

	if v, ok := rec.Singletons[domain.FieldBody]; ok && v.Value != "" {
		blocks = append(blocks, domain.ContentBlock{
			Type: domain.BlockTypeParagraph, Priority: domain.PriorityCritical,
			Ref: domain.FieldBody, Content: v.Value, Page: v.Page,
		})
	}

	tables := scheduleBlocks(rec)
	tablesPlaced := false
	for _, s := range rec.Sections {
		blocks = append(blocks, sectionBlock(s))
		if s.ID == domain.SectionWorship && !tablesPlaced {
			blocks = append(blocks, tables...)
			tablesPlaced = true
		}
	}
	if !tablesPlaced {
		blocks = append(blocks, tables...)
	}

	for _, u := range rec.Unmapped {
		blocks = append(blocks, domain.ContentBlock{
			Type: domain.BlockTypeParagraph, Priority: domain.PriorityLow,
			Ref:     fmt.Sprintf("%sp%d-t%d-r%d", refUnmappedPrefix, u.Page, u.Table, u.Row),
			Content: u.Text(), Page: u.Page,
		})
	}

	for i, img := range rec.Images {
		blocks = append(blocks, domain.ContentBlock{
			Type: domain.BlockTypeImage, Priority: domain.PriorityLow,
			Ref: fmt.Sprintf("%s%d", refImagePrefix, i+1), Content: img.Value, Page: img.Page,
		})
	}

	var contact []string
	for _, f := range domain.ContactFields {
		if v := rec.Singleton(f); v != "" {
			contact = append(contact, f+": "+v)
		}
	}
	if len(contact) > 0 {
		blocks = append(blocks,
			domain.ContentBlock{Type: domain.BlockTypeDivider, Priority: domain.PriorityLow, Ref: refDivider},
			domain.ContentBlock{
				Type: domain.BlockTypeContact, Priority: domain.PriorityLow,
				Ref: refContact, Title: domain.SectionLabel(domain.SectionContact), Items: contact,
			},
		)
	}

	return blocks
}

func profileBlock(rec *domain.MergedRecord) (domain.ContentBlock, bool) {
	name := rec.Singleton(domain.FieldCandidateName)
	number := rec.Singleton(domain.FieldCandidateNumber)
	party := rec.Singleton(domain.FieldParty)
	if name == "" && number == "" && party == "" {
		return domain.ContentBlock{}, false
	}
	var items []string
	if number != "" {
		items = append(items, "기호 "+strings.TrimPrefix(number, "기호 "))
	}
	if party != "" {
		items = append(items, party)
	}
	return domain.ContentBlock{
		Type: domain.BlockTypeProfile, Priority: domain.PriorityCritical,
		Ref: refCandidate, Title: name, Items: items,
		Page: rec.Singletons[domain.FieldCandidateName].Page,
	}, true
}

func sectionBlock(s domain.SectionText) domain.ContentBlock {
	b := domain.ContentBlock{
		Type:     domain.BlockTypeParagraph,
		Priority: domain.PriorityHigh,
		Ref:      refSectionPrefix + s.ID,
		Title:    s.Heading,
		Content:  s.Body,
		Page:     s.Page,
	}
	if b.Title == "" {
		b.Title = domain.SectionLabel(s.ID)
	}
	if primarySections[s.ID] {
		b.Priority = domain.PriorityCritical
	}
	if s.Position != nil {
		p := *s.Position
		b.Position = &p
	}

	lines := strings.Split(s.Body, "\n")
	if s.Body != "" && allBulleted(lines) {
		b.Type = domain.BlockTypeList
		b.Content = ""
		for _, l := range lines {
			b.Items = append(b.Items, strings.TrimSpace(orderedItem.ReplaceAllString(strings.TrimLeft(l, "-•· "), "")))
		}
	}
	return b
}

func allBulleted(lines []string) bool {
	for _, l := range lines {
		if !hasBullet(l) {
			return false
		}
	}
	return len(lines) > 0
}

// scheduleBlocks renders entities as tables, one per distinct column set,
// in order of first appearance.
func scheduleBlocks(rec *domain.MergedRecord) []domain.ContentBlock {
	var blocks []domain.ContentBlock
	index := make(map[string]int)

	for _, e := range rec.OrderedEntities() {
		cols := entityColumns(e)
		sig := strings.Join(cols, ",")
		i, ok := index[sig]
		if !ok {
			ref := fmt.Sprintf("%s%d", refSchedulePrefix, len(cols))
			for n := 2; refTaken(blocks, ref); n++ {
				ref = fmt.Sprintf("%s%d-%d", refSchedulePrefix, len(cols), n)
			}
			blocks = append(blocks, domain.ContentBlock{
				Type: domain.BlockTypeTable, Priority: domain.PriorityMedium,
				Ref: ref, Columns: cols, Page: e.Page,
			})
			i = len(blocks) - 1
			index[sig] = i
		}
		row := make([]string, len(cols))
		for c, f := range cols {
			row[c] = e.Get(f)
		}
		if row[0] == "" {
			row[0] = e.EntityKey
		}
		blocks[i].Rows = append(blocks[i].Rows, row)
	}
	return blocks
}

func refTaken(blocks []domain.ContentBlock, ref string) bool {
	for i := range blocks {
		if blocks[i].Ref == ref {
			return true
		}
	}
	return false
}

// entityColumns lists an entity's fields in display order, name first.
func entityColumns(e domain.FieldRecord) []string {
	cols := []string{domain.FieldName}
	known := make(map[string]bool, len(entityColumnOrder))
	for _, f := range entityColumnOrder {
		known[f] = true
		if f == domain.FieldName {
			continue
		}
		if _, ok := e.Fields[f]; ok {
			cols = append(cols, f)
		}
	}
	var extra []string
	for f := range e.Fields {
		if !known[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}
