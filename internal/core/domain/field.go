package domain

import (
	"fmt"
	"strings"
)

// Field names shared by the parser, validator and synthesizer.
const (
	// Entity-keyed schedule fields.
	FieldName           = "name"
	FieldTime           = "time"
	FieldPresider       = "presider"
	FieldScripture      = "scripture"
	FieldPrayer         = "prayer"
	FieldOfferingPrayer = "offering_prayer"
	FieldHymn           = "hymn"
	FieldSermonTitle    = "sermon_title"
	FieldSermonPastor   = "sermon_pastor"
	FieldChoir          = "choir"
	FieldConductor      = "conductor"
	FieldSong           = "song"
	FieldAccompanist    = "accompanist"

	// Document-level singleton fields.
	FieldTitle           = "title"
	FieldDate            = "date"
	FieldSlogan          = "slogan"
	FieldBody            = "body"
	FieldChurchName      = "church_name"
	FieldSeniorPastor    = "senior_pastor"
	FieldCandidateName   = "candidate_name"
	FieldCandidateNumber = "candidate_number"
	FieldParty           = "party"
	FieldPublisher       = "publisher"
	FieldAddress         = "address"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldWebsite         = "website"
)

// PersonFields are entity fields whose values name a person.
var PersonFields = map[string]bool{
	FieldPresider:       true,
	FieldPrayer:         true,
	FieldOfferingPrayer: true,
	FieldSermonPastor:   true,
	FieldConductor:      true,
	FieldAccompanist:    true,
}

// ContactFields are singletons rendered in the footer.
var ContactFields = []string{FieldAddress, FieldPhone, FieldEmail, FieldWebsite}

// MappingSource tags how a column was assigned to a field.
type MappingSource string

// Mapping sources, weakest first.
const (
	MappingPositional MappingSource = "positional-fallback"
	MappingContent    MappingSource = "content-inferred"
	MappingHeader     MappingSource = "header-matched"
)

// FieldMapping is the tagged confidence of one extracted field value.
type FieldMapping struct {
	// Source is the mapping variant.
	Source MappingSource `json:"source"`

	// Column is the 0-based source column, -1 for free text.
	Column int `json:"column"`

	// Page is the page the value came from.
	Page int `json:"page"`
}

// HeaderMatched builds a header-matched mapping.
func HeaderMatched(column, page int) FieldMapping {
	return FieldMapping{Source: MappingHeader, Column: column, Page: page}
}

// PositionalFallback builds a positional-fallback mapping.
func PositionalFallback(column, page int) FieldMapping {
	return FieldMapping{Source: MappingPositional, Column: column, Page: page}
}

// ContentInferred builds a content-inferred mapping.
func ContentInferred(column, page int) FieldMapping {
	return FieldMapping{Source: MappingContent, Column: column, Page: page}
}

// Rank orders mapping sources: header > content > positional.
func (m FieldMapping) Rank() int {
	switch m.Source {
	case MappingHeader:
		return 3
	case MappingContent:
		return 2
	case MappingPositional:
		return 1
	default:
		return 0
	}
}

func (m FieldMapping) String() string {
	return fmt.Sprintf("%s(col=%d,page=%d)", m.Source, m.Column, m.Page)
}

// FieldRecord is one entity occurrence extracted from a page,
// typically a single schedule table row.
type FieldRecord struct {
	// EntityKey joins occurrences of the same unit across pages.
	EntityKey string `json:"entity_key"`

	// Fields maps field name to value. Values may be empty.
	Fields map[string]string `json:"fields,omitempty"`

	// Confidence holds the mapping tag for each field.
	Confidence map[string]FieldMapping `json:"confidence,omitempty"`

	// Page is the page the record was first seen on.
	Page int `json:"page"`

	// Seq is the declaration order within the page.
	Seq int `json:"seq"`
}

// NewFieldRecord creates an empty record for an entity.
func NewFieldRecord(key string, page, seq int) FieldRecord {
	return FieldRecord{
		EntityKey:  key,
		Fields:     make(map[string]string),
		Confidence: make(map[string]FieldMapping),
		Page:       page,
		Seq:        seq,
	}
}

// Set assigns a value and its mapping tag.
func (r *FieldRecord) Set(field, value string, mapping FieldMapping) {
	r.Fields[field] = value
	r.Confidence[field] = mapping
}

// Delete removes a field and its tag.
func (r *FieldRecord) Delete(field string) {
	delete(r.Fields, field)
	delete(r.Confidence, field)
}

// Get returns a field value, empty when absent.
func (r *FieldRecord) Get(field string) string {
	return r.Fields[field]
}

// Clone returns a deep copy.
func (r FieldRecord) Clone() FieldRecord {
	c := r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	c.Confidence = make(map[string]FieldMapping, len(r.Confidence))
	for k, v := range r.Confidence {
		c.Confidence[k] = v
	}
	return c
}

// SingletonValue is a document-level field value with its provenance.
type SingletonValue struct {
	Value string `json:"value"`
	Page  int    `json:"page"`
	Seq   int    `json:"seq"`
}

// SectionText is a headed run of free text.
type SectionText struct {
	// ID is the canonical section identifier, or a generated one.
	ID string `json:"id"`

	// Heading is the heading text as printed.
	Heading string `json:"heading"`

	// Body is the accumulated paragraph text.
	Body string `json:"body"`

	// Page and Seq locate the section's first appearance.
	Page int `json:"page"`
	Seq  int `json:"seq"`

	// Position is the heading position, if known.
	Position *Position `json:"position,omitempty"`
}

// UnmappedRow is a table row that matched no schema.
// It is kept so validation can surface the gap.
type UnmappedRow struct {
	Page   int      `json:"page"`
	Table  int      `json:"table"`
	Row    int      `json:"row"`
	Cells  []string `json:"cells,omitempty"`
	Reason string   `json:"reason"`
}

// Text joins the row cells for display.
func (u UnmappedRow) Text() string {
	return strings.Join(u.Cells, " | ")
}

// ParseStats counts how every table row on a page was handled.
type ParseStats struct {
	Rows      int `json:"rows"`
	Header    int `json:"header"`
	Separator int `json:"separator"`
	Mapped    int `json:"mapped"`
	Unmapped  int `json:"unmapped"`

	// Positional counts fields tagged positional-fallback.
	Positional int `json:"positional"`

	// ContentInferred counts fields tagged content-inferred.
	ContentInferred int `json:"content_inferred"`
}

// Balanced reports whether every row is accounted for.
func (s ParseStats) Balanced() bool {
	return s.Rows == s.Header+s.Separator+s.Mapped+s.Unmapped
}

// Add accumulates another page's counts.
func (s *ParseStats) Add(o ParseStats) {
	s.Rows += o.Rows
	s.Header += o.Header
	s.Separator += o.Separator
	s.Mapped += o.Mapped
	s.Unmapped += o.Unmapped
	s.Positional += o.Positional
	s.ContentInferred += o.ContentInferred
}

// PageFields is the parser's output for one page.
type PageFields struct {
	Page         int                       `json:"page"`
	DocumentType DocumentType              `json:"document_type"`
	Records      []FieldRecord             `json:"records,omitempty"`
	Singletons   map[string]SingletonValue `json:"singletons,omitempty"`
	Sections     []SectionText             `json:"sections,omitempty"`
	Images       []SingletonValue          `json:"images,omitempty"`
	Unmapped     []UnmappedRow             `json:"unmapped,omitempty"`

	// HeaderSchemas maps a column count to the field layout read
	// from a header row on this page.
	HeaderSchemas map[int][]string `json:"header_schemas,omitempty"`

	Stats ParseStats `json:"stats"`
}
