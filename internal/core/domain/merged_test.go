package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergedRecord_CloneIsDeep(t *testing.T) {
	rec := NewMergedRecord(DocumentTypeChurch)
	fr := NewFieldRecord("1부", 1, 0)
	fr.Set(FieldSermonTitle, "A", PositionalFallback(2, 1))
	rec.Entities["1부"] = fr
	rec.EntityOrder = []string{"1부"}
	rec.Singletons[FieldTitle] = SingletonValue{Value: "주보", Page: 1}
	rec.Sections = []SectionText{{ID: SectionNews, Body: "body", Position: &Position{Y: 10}}}

	c := rec.Clone()
	c.Entities["1부"].Fields[FieldSermonTitle] = "changed"
	c.Singletons[FieldTitle] = SingletonValue{Value: "x"}
	c.Sections[0].Position.Y = 99

	assert.Equal(t, "A", rec.Entities["1부"].Fields[FieldSermonTitle])
	assert.Equal(t, "주보", rec.Singleton(FieldTitle))
	assert.Equal(t, 10.0, rec.Sections[0].Position.Y)
}

func TestParseStats_Balanced(t *testing.T) {
	s := ParseStats{Rows: 5, Header: 1, Separator: 1, Mapped: 2, Unmapped: 1}
	assert.True(t, s.Balanced())

	s.Mapped = 1
	assert.False(t, s.Balanced())
}

func TestDocumentType_Tables(t *testing.T) {
	assert.Equal(t, []string{FieldTitle, FieldDate}, DocumentTypeChurch.RequiredFields())
	assert.Equal(t, []string{FieldTitle, FieldCandidateName}, DocumentTypeElection.RequiredFields())

	def, ok := DocumentTypeNewsletter.SafeDefault(FieldTitle)
	assert.True(t, ok)
	assert.Equal(t, "소식지", def)

	_, ok = DocumentTypeChurch.SafeDefault(FieldDate)
	assert.False(t, ok)

	assert.False(t, DocumentType("flyer").IsValid())
}

func TestTextKey(t *testing.T) {
	assert.Equal(t, "ooo 목사", TextKey("  OOO   목사. "))
	assert.Equal(t, TextKey("Lorem  Ipsum"), TextKey("lorem ipsum"))
}
