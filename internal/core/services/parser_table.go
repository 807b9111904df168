package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

var separatorCell = regexp.MustCompile(`^:?-{2,}:?$`)

type rowKind int

const (
	rowData rowKind = iota
	rowSeparator
	rowHeader
)

type parsedRow struct {
	index  int
	kind   rowKind
	cells  []string
	header *headerMap
}

// headerMap is the column layout read from a header row.
type headerMap struct {
	fields []string
	keyCol int
}

func (h *headerMap) field(col int) (string, bool) {
	if col < len(h.fields) {
		return h.fields[col], true
	}
	return fmt.Sprintf("col_%d", col), false
}

// tableResult is the outcome of parsing every table on a page.
type tableResult struct {
	fields *domain.PageFields

	// ambiguous holds table widths that had no schema to resolve them.
	ambiguous map[int]bool
}

// parseTables maps every table row on the page and assembles the page
// result around the free-text pass. learned supplies column schemas for
// widths the built-in schemas do not cover.
func (p *FieldParser) parseTables(
	page int,
	docType domain.DocumentType,
	tables []domain.RawTable,
	text *textResult,
	learned map[int][]string,
) *tableResult {
	pf := &domain.PageFields{
		Page:          page,
		DocumentType:  docType,
		Singletons:    make(map[string]domain.SingletonValue, len(text.singletons)),
		Sections:      append([]domain.SectionText(nil), text.sections...),
		Images:        append([]domain.SingletonValue(nil), text.images...),
		HeaderSchemas: make(map[int][]string),
	}
	for k, v := range text.singletons {
		pf.Singletons[k] = v
	}
	res := &tableResult{fields: pf, ambiguous: make(map[int]bool)}
	seq := text.seq

	for ti, table := range tables {
		rows := classifyRows(table)
		width := 0
		for _, r := range rows {
			if r.kind == rowData && len(r.cells) > width {
				width = len(r.cells)
			}
		}

		var header *headerMap
		for _, r := range rows {
			pf.Stats.Rows++
			switch r.kind {
			case rowSeparator:
				pf.Stats.Separator++
				continue
			case rowHeader:
				pf.Stats.Header++
				header = r.header
				pf.HeaderSchemas[len(r.cells)] = append([]string(nil), header.fields...)
				continue
			}

			var schema []string
			if header == nil {
				var ok bool
				schema, ok = schemaFor(width, learned)
				if !ok {
					res.ambiguous[width] = true
					schema, ok = schemaFor(len(r.cells), learned)
				}
				if !ok {
					pf.Stats.Unmapped++
					pf.Unmapped = append(pf.Unmapped, domain.UnmappedRow{
						Page:   page,
						Table:  ti,
						Row:    r.index,
						Cells:  r.cells,
						Reason: fmt.Sprintf("no schema for %d columns", len(r.cells)),
					})
					logger.Debug("page %d table %d row %d: unmapped (%d columns)", page, ti, r.index, len(r.cells))
					continue
				}
			}

			rec := mapRow(page, ti, r, header, schema, seq)
			seq++
			pf.Stats.Mapped++
			for _, m := range rec.Confidence {
				switch m.Source {
				case domain.MappingPositional:
					pf.Stats.Positional++
				case domain.MappingContent:
					pf.Stats.ContentInferred++
				}
			}
			pf.Records = append(pf.Records, rec)
		}
	}
	return res
}

func schemaFor(width int, learned map[int][]string) ([]string, bool) {
	if s, ok := learned[width]; ok {
		return s, true
	}
	s, ok := positionalSchemas[width]
	return s, ok
}

// classifyRows splits rows into cells and tags separators and headers.
// Only the first non-separator row of a table can be a header; every
// later row is data. Blank rows are dropped and not counted.
func classifyRows(table domain.RawTable) []parsedRow {
	var rows []parsedRow
	first := true
	for i, raw := range table.Rows {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		r := parsedRow{index: i, cells: splitCells(raw)}
		switch {
		case isSeparatorRow(r.cells):
			r.kind = rowSeparator
		case first:
			first = false
			if h := detectHeader(r.cells); h != nil {
				r.kind = rowHeader
				r.header = h
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// splitCells splits a markdown pipe row and cleans every cell.
func splitCells(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, part := range parts {
		cells[i] = cleanText(part)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCell.MatchString(strings.ReplaceAll(c, " ", "")) {
			return false
		}
		seen = true
	}
	return seen
}

// detectHeader returns a header map when at least two cells are known
// field-name tokens and they make up at least half of the non-empty cells.
func detectHeader(cells []string) *headerMap {
	matched, nonEmpty := 0, 0
	fields := make([]string, len(cells))
	used := make(map[string]bool)
	for i, c := range cells {
		fields[i] = fmt.Sprintf("col_%d", i)
		if c == "" {
			continue
		}
		nonEmpty++
		if f := matchHeaderToken(c); f != "" && !used[f] {
			fields[i] = f
			used[f] = true
			matched++
		} else if k := tokenKey(c); k != "" {
			fields[i] = k
		}
	}
	if matched < 2 || matched*2 < nonEmpty {
		return nil
	}

	h := &headerMap{fields: fields}
	for i, f := range fields {
		if f == domain.FieldName {
			h.keyCol = i
			break
		}
	}
	return h
}

// matchHeaderToken maps a header cell to a field name. Short cells may
// contain a token; the longest contained token wins.
func matchHeaderToken(cell string) string {
	k := tokenKey(cell)
	if f, ok := headerTokens[k]; ok {
		return f
	}
	if runeLen(k) > 6 {
		return ""
	}
	for _, tok := range headerTokensByLength {
		if runeLen(tok) >= 2 && strings.Contains(k, tok) {
			return headerTokens[tok]
		}
	}
	return ""
}

// mapRow builds a FieldRecord from a data row using the header map when
// present, else the positional schema, then runs the content override.
func mapRow(page, table int, r parsedRow, header *headerMap, schema []string, seq int) domain.FieldRecord {
	rec := domain.NewFieldRecord("", page, seq)
	colField := make([]string, len(r.cells))
	keyCol := 0

	if header != nil {
		keyCol = header.keyCol
		for i, c := range r.cells {
			f, fromHeader := header.field(i)
			if fromHeader {
				rec.Set(f, c, domain.HeaderMatched(i, page))
			} else {
				rec.Set(f, c, domain.PositionalFallback(i, page))
			}
			colField[i] = f
		}
	} else {
		for i, f := range schema {
			v := ""
			if i < len(r.cells) {
				v = r.cells[i]
				colField[i] = f
			}
			rec.Set(f, v, domain.PositionalFallback(i, page))
		}
	}

	applyContentOverride(&rec, r.cells, colField, keyCol, page)

	key := ""
	if keyCol < len(r.cells) {
		key = r.cells[keyCol]
	}
	if key == "" {
		key = syntheticKey(page, table, r.index)
	}
	rec.EntityKey = key
	return rec
}

// applyContentOverride re-maps cells whose content implies a role.
// A content match beats a positional mapping and confirms it when they
// agree. It never beats a header mapping, except to fill an empty target.
// The key column is never moved.
func applyContentOverride(rec *domain.FieldRecord, cells, colField []string, keyCol, page int) {
	for i, v := range cells {
		f := colField[i]
		if i == keyCol || v == "" || f == "" {
			continue
		}
		target := contentRole(v)
		if target == "" {
			continue
		}
		cur, ok := rec.Confidence[f]
		if !ok || rec.Fields[f] != v {
			// Already moved by an earlier swap.
			continue
		}

		if target == f {
			if cur.Source == domain.MappingPositional {
				rec.Confidence[f] = domain.ContentInferred(i, page)
			}
			continue
		}
		if target == domain.FieldSermonPastor && domain.PersonFields[f] {
			continue
		}

		if cur.Source == domain.MappingHeader {
			if rec.Fields[target] == "" {
				rec.Set(target, v, domain.ContentInferred(i, page))
			}
			continue
		}

		other, hasOther := rec.Fields[target]
		if hasOther && other != "" && contentRole(other) == target {
			continue
		}
		otherMapping := rec.Confidence[target]
		rec.Set(target, v, domain.ContentInferred(i, page))
		if hasOther && other != "" {
			rec.Set(f, other, domain.PositionalFallback(otherMapping.Column, page))
		} else {
			rec.Set(f, "", domain.PositionalFallback(i, page))
		}
	}
}
