package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func sampleResult() *domain.ConversionResult {
	return &domain.ConversionResult{
		DocumentID:   "doc-1",
		DocumentType: domain.DocumentTypeChurch,
		Quality:      0.95,
		PatternID:    "pat-1",
		Plan: &domain.LayoutPlan{
			DocumentType: domain.DocumentTypeChurch,
			Sections: []domain.LayoutSection{
				{Key: "hero", Strategy: domain.StrategyHero, Blocks: make([]domain.ContentBlock, 2)},
				{Key: "table:schedule:3", Strategy: domain.StrategyTableSection, Title: "예배 안내",
					Blocks: make([]domain.ContentBlock, 1)},
			},
		},
		Issues: []domain.ValidationIssue{{
			Category: domain.CategoryStructureOrder,
			Severity: domain.SeverityWarning,
			Ref:      domain.IssueRef{Section: "verse", Page: 2},
			Message:  "section out of order",
		}},
	}
}

func TestHandleConvert(t *testing.T) {
	t.Run("summarises accepted document", func(t *testing.T) {
		conv := &mockConversionService{result: sampleResult()}
		server, err := NewServer(&Ports{Conversion: conv})
		require.NoError(t, err)

		_, out, err := server.handleConvert(context.Background(), nil, ConvertInput{Payload: `{"pages":[]}`})
		require.NoError(t, err)

		assert.Equal(t, "json", conv.lastFormat)
		assert.Equal(t, `{"pages":[]}`, string(conv.lastData))
		assert.True(t, out.Accepted)
		assert.Equal(t, "doc-1", out.DocumentID)
		assert.Equal(t, "church_bulletin", out.DocumentType)
		assert.Equal(t, "pat-1", out.PatternID)
		require.Len(t, out.Sections, 2)
		assert.Equal(t, SectionOutput{Key: "hero", Strategy: "hero", Blocks: 2}, out.Sections[0])
		assert.Equal(t, "table-section", out.Sections[1].Strategy)
		require.Len(t, out.Issues, 1)
		assert.Equal(t, "section=verse page=2", out.Issues[0].Ref)
		assert.False(t, out.Issues[0].Corrected)
	})

	t.Run("passes explicit format", func(t *testing.T) {
		conv := &mockConversionService{result: sampleResult()}
		server, err := NewServer(&Ports{Conversion: conv})
		require.NoError(t, err)

		_, _, err = server.handleConvert(context.Background(), nil, ConvertInput{Payload: "a: 1", Format: "yaml"})
		require.NoError(t, err)
		assert.Equal(t, "yaml", conv.lastFormat)
	})

	t.Run("validation failure is not a tool error", func(t *testing.T) {
		partial := &domain.ConversionResult{
			DocumentID:   "doc-2",
			DocumentType: domain.DocumentTypeChurch,
			Unresolved: []domain.ValidationIssue{{
				Category: domain.CategoryMissingRequired,
				Severity: domain.SeverityCritical,
				Ref:      domain.IssueRef{Field: "date"},
			}},
		}
		partial.Issues = partial.Unresolved
		conv := &mockConversionService{
			result: partial,
			err:    &domain.ValidationFailureError{Issues: partial.Unresolved},
		}
		server, err := NewServer(&Ports{Conversion: conv})
		require.NoError(t, err)

		_, out, err := server.handleConvert(context.Background(), nil, ConvertInput{Payload: "{}"})
		require.NoError(t, err)
		assert.False(t, out.Accepted)
		assert.Equal(t, 1, out.Unresolved)
		assert.Empty(t, out.Sections)
	})

	t.Run("decode error is returned", func(t *testing.T) {
		conv := &mockConversionService{err: domain.ErrUnsupportedType}
		server, err := NewServer(&Ports{Conversion: conv})
		require.NoError(t, err)

		_, _, err = server.handleConvert(context.Background(), nil, ConvertInput{Payload: "x", Format: "pdf"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestHandleRecordFeedback(t *testing.T) {
	sig := domain.Signature{DocumentType: domain.DocumentTypeChurch}
	learning := &mockLearningService{pattern: &domain.Pattern{
		ID:          "pat-1",
		Signature:   sig,
		UsageCount:  4,
		SuccessRate: 0.8,
	}}
	server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
	require.NoError(t, err)

	_, out, err := server.handleRecordFeedback(context.Background(), nil, FeedbackInput{PatternID: "pat-1", Rating: 5})
	require.NoError(t, err)

	assert.Equal(t, "pat-1", learning.lastID)
	assert.Equal(t, 5, learning.lastScore)
	assert.Equal(t, "pat-1", out.ID)
	assert.Equal(t, sig.Key(), out.SignatureKey)
	assert.Equal(t, 4, out.UsageCount)
	assert.InDelta(t, 0.8, out.SuccessRate, 1e-9)

	learning.err = domain.ErrNotFound
	_, _, err = server.handleRecordFeedback(context.Background(), nil, FeedbackInput{PatternID: "missing", Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandlePatternReports(t *testing.T) {
	stats := []domain.PatternStats{
		{ID: "a", UsageCount: 9, SuccessRate: 0.9},
		{ID: "b", UsageCount: 6, SuccessRate: 0.2, Flagged: true},
	}
	learning := &mockLearningService{stats: stats, flagged: stats[1:]}
	server, err := NewServer(&Ports{Conversion: &mockConversionService{}, Learning: learning})
	require.NoError(t, err)

	_, all, err := server.handlePatternStats(context.Background(), nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Count)
	assert.Equal(t, stats, all.Patterns)

	_, flagged, err := server.handleFlaggedPatterns(context.Background(), nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, flagged.Count)
	assert.Equal(t, "b", flagged.Patterns[0].ID)

	learning.err = errors.New("store closed")
	_, _, err = server.handlePatternStats(context.Background(), nil, StatsInput{})
	assert.Error(t, err)
	_, _, err = server.handleFlaggedPatterns(context.Background(), nil, StatsInput{})
	assert.Error(t, err)
}
