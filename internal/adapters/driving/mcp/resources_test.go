package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestExtractPatternID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid", uri: "folio://patterns/pat-123", expected: "pat-123"},
		{name: "invalid prefix", uri: "file://patterns/pat-123", expected: ""},
		{name: "nested path", uri: "folio://patterns/pat-123/extra", expected: ""},
		{name: "empty id", uri: "folio://patterns/", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPatternID(tt.uri))
		})
	}
}

func TestExtractDocumentType(t *testing.T) {
	assert.Equal(t, domain.DocumentTypeElection, extractDocumentType("folio://blocklist/election_flyer"))
	assert.Equal(t, domain.DocumentType(""), extractDocumentType("folio://patterns/election_flyer"))
}

func TestHandlePatternsResource(t *testing.T) {
	t.Run("without learning returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Conversion: &mockConversionService{}})
		require.NoError(t, err)

		result, err := server.handlePatternsResource(context.Background(), makeReadResourceRequest("folio://patterns"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists pattern stats", func(t *testing.T) {
		learning := &mockLearningService{stats: []domain.PatternStats{{ID: "a", UsageCount: 3}}}
		server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
		require.NoError(t, err)

		result, err := server.handlePatternsResource(context.Background(), makeReadResourceRequest("folio://patterns"))
		require.NoError(t, err)

		var got []domain.PatternStats
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("service error", func(t *testing.T) {
		learning := &mockLearningService{err: errors.New("boom")}
		server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
		require.NoError(t, err)

		_, err = server.handlePatternsResource(context.Background(), makeReadResourceRequest("folio://patterns"))
		assert.Error(t, err)
	})
}

func TestHandleBlocklistResources(t *testing.T) {
	learning := &mockLearningService{entries: []domain.BlocklistEntry{
		{ID: "b1", Phrase: "[목사명]", DocumentType: domain.DocumentTypeChurch},
	}}
	server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
	require.NoError(t, err)

	t.Run("all types", func(t *testing.T) {
		result, err := server.handleBlocklistResource(context.Background(), makeReadResourceRequest("folio://blocklist"))
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentType(""), learning.lastType)
		assert.Contains(t, result.Contents[0].Text, "[목사명]")
	})

	t.Run("one type", func(t *testing.T) {
		uri := "folio://blocklist/church_bulletin"
		result, err := server.handleTypedBlocklistResource(context.Background(), makeReadResourceRequest(uri))
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentTypeChurch, learning.lastType)
		assert.Equal(t, uri, result.Contents[0].URI)
	})

	t.Run("unknown type is not found", func(t *testing.T) {
		uri := "folio://blocklist/recipe"
		_, err := server.handleTypedBlocklistResource(context.Background(), makeReadResourceRequest(uri))
		assert.Error(t, err)
	})
}

func TestHandlePatternResource(t *testing.T) {
	learning := &mockLearningService{pattern: &domain.Pattern{ID: "pat-7", UsageCount: 2}}
	server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
	require.NoError(t, err)

	result, err := server.handlePatternResource(context.Background(), makeReadResourceRequest("folio://patterns/pat-7"))
	require.NoError(t, err)
	assert.Equal(t, "pat-7", learning.lastID)

	var got domain.Pattern
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	assert.Equal(t, 2, got.UsageCount)

	learning.err = domain.ErrNotFound
	_, err = server.handlePatternResource(context.Background(), makeReadResourceRequest("folio://patterns/missing"))
	assert.Error(t, err)

	_, err = server.handlePatternResource(context.Background(), makeReadResourceRequest("folio://patterns/"))
	assert.Error(t, err)
}

func TestResourcesWithoutLearning(t *testing.T) {
	server, err := NewServer(&Ports{Conversion: &mockConversionService{}})
	require.NoError(t, err)

	result, err := server.handleBlocklistResource(context.Background(), makeReadResourceRequest("folio://blocklist"))
	require.NoError(t, err)
	assert.Equal(t, "[]", result.Contents[0].Text)

	_, err = server.handlePatternResource(context.Background(), makeReadResourceRequest("folio://patterns/x"))
	assert.Error(t, err)
	_, err = server.handleTypedBlocklistResource(context.Background(),
		makeReadResourceRequest("folio://blocklist/newsletter"))
	assert.Error(t, err)
}
