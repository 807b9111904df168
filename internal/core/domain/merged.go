package domain

// MergedRecord is the canonical document-level record produced by merging
// all pages. Every entity key seen on any page appears exactly once.
type MergedRecord struct {
	DocumentType DocumentType `json:"document_type"`

	// Entities maps entity key to its merged record.
	Entities map[string]FieldRecord `json:"entities,omitempty"`

	// EntityOrder lists entity keys by first appearance (page, seq).
	EntityOrder []string `json:"entity_order,omitempty"`

	// Singletons holds document-level fields with provenance.
	Singletons map[string]SingletonValue `json:"singletons,omitempty"`

	// Sections are the merged free-text sections in first-appearance order.
	Sections []SectionText `json:"sections,omitempty"`

	// Images are image references in first-appearance order.
	Images []SingletonValue `json:"images,omitempty"`

	// Unmapped are table rows no schema could place.
	Unmapped []UnmappedRow `json:"unmapped,omitempty"`

	// Schemas are the column layouts read from header rows.
	Schemas map[int][]string `json:"schemas,omitempty"`
}

// NewMergedRecord creates an empty record.
func NewMergedRecord(docType DocumentType) *MergedRecord {
	return &MergedRecord{
		DocumentType: docType,
		Entities:     make(map[string]FieldRecord),
		Singletons:   make(map[string]SingletonValue),
		Schemas:      make(map[int][]string),
	}
}

// Singleton returns a singleton value, empty when absent.
func (m *MergedRecord) Singleton(field string) string {
	return m.Singletons[field].Value
}

// Section returns the section with the given ID.
func (m *MergedRecord) Section(id string) (*SectionText, bool) {
	for i := range m.Sections {
		if m.Sections[i].ID == id {
			return &m.Sections[i], true
		}
	}
	return nil, false
}

// HasSection reports whether a section is present. A worship schedule
// table satisfies the worship section.
func (m *MergedRecord) HasSection(id string) bool {
	if s, ok := m.Section(id); ok && (s.Body != "" || s.Heading != "") {
		return true
	}
	return id == SectionWorship && len(m.Entities) > 0
}

// OrderedEntities returns entity records in EntityOrder.
func (m *MergedRecord) OrderedEntities() []FieldRecord {
	out := make([]FieldRecord, 0, len(m.EntityOrder))
	for _, key := range m.EntityOrder {
		if rec, ok := m.Entities[key]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Clone returns a deep copy so corrections never touch the original.
func (m *MergedRecord) Clone() *MergedRecord {
	c := &MergedRecord{
		DocumentType: m.DocumentType,
		Entities:     make(map[string]FieldRecord, len(m.Entities)),
		EntityOrder:  append([]string(nil), m.EntityOrder...),
		Singletons:   make(map[string]SingletonValue, len(m.Singletons)),
		Sections:     make([]SectionText, len(m.Sections)),
		Images:       append([]SingletonValue(nil), m.Images...),
		Unmapped:     make([]UnmappedRow, len(m.Unmapped)),
		Schemas:      make(map[int][]string, len(m.Schemas)),
	}
	for k, v := range m.Entities {
		c.Entities[k] = v.Clone()
	}
	for k, v := range m.Singletons {
		c.Singletons[k] = v
	}
	for i, s := range m.Sections {
		if s.Position != nil {
			p := *s.Position
			s.Position = &p
		}
		c.Sections[i] = s
	}
	for i, u := range m.Unmapped {
		u.Cells = append([]string(nil), u.Cells...)
		c.Unmapped[i] = u
	}
	for k, v := range m.Schemas {
		c.Schemas[k] = append([]string(nil), v...)
	}
	return c
}
