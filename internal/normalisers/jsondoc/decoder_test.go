package jsondoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestDecoder_Metadata(t *testing.T) {
	d := New()
	assert.Equal(t, []string{"json"}, d.Formats())
	assert.Equal(t, []string{".json"}, d.Extensions())
}

func TestDecode_DocumentObject(t *testing.T) {
	payload := `{
		"id": "doc-1",
		"document_type": "church_bulletin",
		"pages": [{
			"page": 1,
			"blocks": [
				{"text": "주일예배", "kind": "heading", "position": {"x": 0, "y": 10, "width": 300, "height": 20}},
				{"text": "설교: 믿음의 길"}
			],
			"tables": [{"rows": ["| 순서 | 내용 |", "| 기도 | 홍길동 |"]}]
		}]
	}`

	doc, err := New().Decode(context.Background(), []byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, domain.DocumentTypeChurch, doc.DocumentType)
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	require.Len(t, page.Blocks, 2)
	assert.Equal(t, domain.BlockHeading, page.Blocks[0].Kind)
	require.NotNil(t, page.Blocks[0].Position)
	assert.InDelta(t, 10, page.Blocks[0].Position.Y, 1e-9)
	assert.Nil(t, page.Blocks[1].Position)
	require.Len(t, page.Tables, 1)
	assert.Len(t, page.Tables[0].Rows, 2)
}

func TestDecode_PageArray(t *testing.T) {
	payload := `[{"blocks": [{"text": "a"}]}, {"blocks": [{"text": "b"}]}]`

	doc, err := New().Decode(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 2)
	assert.Empty(t, doc.ID)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"malformed object", `{"pages": [`},
		{"wrong type", `{"pages": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Decode(context.Background(), []byte(tt.payload))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
