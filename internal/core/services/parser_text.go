package services

import (
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// textResult holds what the free-text pass extracted from a page.
type textResult struct {
	singletons     map[string]domain.SingletonValue
	sections       []domain.SectionText
	images         []domain.SingletonValue
	implicitTables []domain.RawTable
	seq            int
}

func (t *textResult) next() int {
	s := t.seq
	t.seq++
	return s
}

// parseText classifies free-text blocks into singletons and sections.
// Consecutive table-row blocks, and pipe rows embedded in paragraphs,
// are collected into implicit tables.
func parseText(page *domain.RawPageOutput) *textResult {
	tr := &textResult{singletons: make(map[string]domain.SingletonValue)}
	current := -1
	var pending []string

	flush := func() {
		if len(pending) > 0 {
			tr.implicitTables = append(tr.implicitTables, domain.RawTable{Rows: pending})
			pending = nil
		}
	}

	for _, blk := range page.Blocks {
		if blk.Kind == domain.BlockTableRow {
			pending = append(pending, blk.Text)
			continue
		}
		flush()

		lines := cleanLines(blk.Text)
		if blk.Kind == domain.BlockImage {
			if len(lines) > 0 {
				tr.images = append(tr.images, domain.SingletonValue{
					Value: strings.Join(lines, " "), Page: page.Page, Seq: tr.next(),
				})
			}
			continue
		}

		for i, line := range lines {
			if strings.HasPrefix(line, "|") {
				pending = append(pending, line)
				continue
			}
			flush()

			if h, ok := headingText(line); ok {
				tr.heading(h, page.Page, blk.Position, &current)
				continue
			}
			if blk.Kind == domain.BlockHeading && i == 0 {
				tr.heading(line, page.Page, blk.Position, &current)
				continue
			}
			if blk.Kind == domain.BlockListItem && !hasBullet(line) {
				line = "- " + line
			}
			tr.line(line, page.Page, current)
		}
	}
	flush()
	return tr
}

// headingText recognises markdown and bracketed headings.
func headingText(line string) (string, bool) {
	m := headingMarker.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	switch {
	case m[2] != "":
		return strings.TrimSpace(m[2]), true
	case m[3] != "":
		return strings.TrimSpace(m[3]), true
	default:
		return strings.TrimSpace(strings.TrimLeft(line, "# ")), true
	}
}

// sectionFor maps a heading to a canonical section ID.
func sectionFor(heading string) string {
	key := tokenKey(heading)
	for _, sk := range sectionKeywords {
		if strings.Contains(key, sk.keyword) {
			return sk.id
		}
	}
	return ""
}

func (t *textResult) heading(h string, page int, pos *domain.Position, current *int) {
	if h == "" {
		return
	}
	id := sectionFor(h)
	if id == "" {
		if _, ok := t.singletons[domain.FieldTitle]; !ok {
			t.setSingleton(domain.FieldTitle, h, page)
			*current = -1
			return
		}
		id = "custom:" + domain.TextKey(h)
	}

	for i := range t.sections {
		if t.sections[i].ID == id {
			*current = i
			return
		}
	}

	sec := domain.SectionText{ID: id, Heading: h, Page: page, Seq: t.next()}
	if pos != nil {
		p := *pos
		sec.Position = &p
	}
	t.sections = append(t.sections, sec)
	*current = len(t.sections) - 1
}

func (t *textResult) line(text string, page, current int) {
	bare := strings.TrimSpace(strings.TrimLeft(text, "-•·"))
	if m := labelPattern.FindStringSubmatch(bare); m != nil {
		if field, ok := labelFields[tokenKey(m[1])]; ok {
			t.setSingleton(field, strings.TrimSpace(m[2]), page)
			return
		}
	}

	if _, ok := t.singletons[domain.FieldDate]; !ok {
		if d := datePattern.FindString(bare); d != "" {
			t.setSingleton(domain.FieldDate, d, page)
			if d == bare {
				return
			}
		}
	}

	if current >= 0 {
		sec := &t.sections[current]
		sec.Body = joinLine(sec.Body, text)
		return
	}

	body, ok := t.singletons[domain.FieldBody]
	if !ok {
		body = domain.SingletonValue{Page: page, Seq: t.next()}
	}
	body.Value = joinLine(body.Value, text)
	t.singletons[domain.FieldBody] = body
}

// setSingleton keeps the longer value when a field repeats on a page.
func (t *textResult) setSingleton(field, value string, page int) {
	if value == "" {
		return
	}
	if cur, ok := t.singletons[field]; ok && runeLen(cur.Value) >= runeLen(value) {
		return
	}
	t.singletons[field] = domain.SingletonValue{Value: value, Page: page, Seq: t.next()}
}

func joinLine(body, line string) string {
	if body == "" {
		return line
	}
	return body + "\n" + line
}

func hasBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "·") ||
		orderedItem.MatchString(line)
}
