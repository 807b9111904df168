package mcp

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// mockConversionService is a mock implementation of driving.ConversionService.
type mockConversionService struct {
	result     *domain.ConversionResult
	err        error
	lastFormat string
	lastData   []byte
}

func (m *mockConversionService) Convert(_ context.Context, _ *domain.RawDocument) (*domain.ConversionResult, error) {
	return m.result, m.err
}

func (m *mockConversionService) ConvertPayload(
	_ context.Context,
	format string,
	data []byte,
) (*domain.ConversionResult, error) {
	m.lastFormat = format
	m.lastData = data
	return m.result, m.err
}

func (m *mockConversionService) FormatForPath(_ string) (string, bool) {
	return "json", true
}

func (m *mockConversionService) Formats() []string {
	return []string{"json"}
}

// mockLearningService is a mock implementation of driving.LearningService.
type mockLearningService struct {
	pattern   *domain.Pattern
	stats     []domain.PatternStats
	flagged   []domain.PatternStats
	entries   []domain.BlocklistEntry
	history   []domain.IssueOccurrence
	err       error
	lastType  domain.DocumentType
	lastID    string
	lastScore int
}

func (m *mockLearningService) RecordFeedback(_ context.Context, id string, rating int) (*domain.Pattern, error) {
	m.lastID = id
	m.lastScore = rating
	return m.pattern, m.err
}

func (m *mockLearningService) GetPattern(_ context.Context, id string) (*domain.Pattern, error) {
	m.lastID = id
	return m.pattern, m.err
}

func (m *mockLearningService) ListPatterns(_ context.Context) ([]domain.PatternStats, error) {
	return m.stats, m.err
}

func (m *mockLearningService) FlaggedPatterns(_ context.Context) ([]domain.PatternStats, error) {
	return m.flagged, m.err
}

func (m *mockLearningService) ListBlocklist(
	_ context.Context,
	docType domain.DocumentType,
) ([]domain.BlocklistEntry, error) {
	m.lastType = docType
	return m.entries, m.err
}

func (m *mockLearningService) AddBlocklist(
	_ context.Context,
	docType domain.DocumentType,
	phrase, safeDefault string,
) (*domain.BlocklistEntry, error) {
	m.lastType = docType
	return &domain.BlocklistEntry{DocumentType: docType, Phrase: phrase, SafeDefault: safeDefault}, m.err
}

func (m *mockLearningService) RemoveBlocklist(_ context.Context, id string) error {
	m.lastID = id
	return m.err
}

func (m *mockLearningService) IssueHistory(
	_ context.Context,
	docType domain.DocumentType,
) ([]domain.IssueOccurrence, error) {
	m.lastType = docType
	return m.history, m.err
}
