package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// defaultFormat is used when convert_document is called without a format.
const defaultFormat = "json"

// ConvertInput is the input schema for the convert_document tool.
type ConvertInput struct {
	Payload string `json:"payload" jsonschema:"the recognizer output for one document"`
	Format  string `json:"format,omitempty" jsonschema:"payload format: json, yaml or markdown (default json)"`
}

// ConvertOutput is the output schema for the convert_document tool.
type ConvertOutput struct {
	DocumentID    string          `json:"document_id"`
	DocumentType  string          `json:"document_type"`
	Accepted      bool            `json:"accepted"`
	Quality       float64         `json:"quality"`
	PatternID     string          `json:"pattern_id,omitempty"`
	Sections      []SectionOutput `json:"sections,omitempty"`
	Issues        []IssueOutput   `json:"issues,omitempty"`
	Unresolved    int             `json:"unresolved"`
	LearningError string          `json:"learning_error,omitempty"`
}

// SectionOutput summarises one section of a layout plan.
type SectionOutput struct {
	Key      string `json:"key"`
	Strategy string `json:"strategy"`
	Title    string `json:"title,omitempty"`
	Blocks   int    `json:"blocks"`
}

// IssueOutput is one validation issue.
type IssueOutput struct {
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Ref       string `json:"ref"`
	Message   string `json:"message"`
	Corrected bool   `json:"corrected"`
}

// FeedbackInput is the input schema for the record_feedback tool.
type FeedbackInput struct {
	PatternID string `json:"pattern_id" jsonschema:"the pattern to rate"`
	Rating    int    `json:"rating" jsonschema:"operator rating from 1 (poor) to 5 (excellent)"`
}

// PatternOutput is the updated state of a rated pattern.
type PatternOutput struct {
	ID           string  `json:"id"`
	SignatureKey string  `json:"signature_key"`
	UsageCount   int     `json:"usage_count"`
	SuccessRate  float64 `json:"success_rate"`
	Flagged      bool    `json:"flagged"`
}

// StatsInput is the (empty) input schema for the pattern report tools.
type StatsInput struct{}

// StatsOutput is the output schema for pattern_stats and flagged_patterns.
type StatsOutput struct {
	Patterns []domain.PatternStats `json:"patterns"`
	Count    int                   `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "convert_document",
		Description: "Convert one recognized bulletin, flyer or newsletter into a validated mobile layout plan",
	}, s.handleConvert)

	if s.ports.Learning == nil {
		return
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_feedback",
		Description: "Rate the layout produced by a learned pattern",
	}, s.handleRecordFeedback)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pattern_stats",
		Description: "List learned layout patterns with usage and success rate",
	}, s.handlePatternStats)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "flagged_patterns",
		Description: "List learned layout patterns flagged for review",
	}, s.handleFlaggedPatterns)
}

// handleConvert handles the convert_document tool invocation. A document
// that fails validation is reported with accepted=false rather than as
// a tool error.
func (s *Server) handleConvert(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConvertInput,
) (*mcp.CallToolResult, ConvertOutput, error) {
	format := input.Format
	if format == "" {
		format = defaultFormat
	}

	result, err := s.ports.Conversion.ConvertPayload(ctx, format, []byte(input.Payload))
	if err != nil && !errors.Is(err, domain.ErrValidationFailed) {
		return nil, ConvertOutput{}, err
	}
	if result == nil {
		return nil, ConvertOutput{}, err
	}

	output := ConvertOutput{
		DocumentID:    result.DocumentID,
		DocumentType:  string(result.DocumentType),
		Accepted:      err == nil,
		Quality:       result.Quality,
		PatternID:     result.PatternID,
		Unresolved:    len(result.Unresolved),
		LearningError: result.LearningError,
	}
	if result.Plan != nil {
		for i := range result.Plan.Sections {
			sec := &result.Plan.Sections[i]
			output.Sections = append(output.Sections, SectionOutput{
				Key:      sec.Key,
				Strategy: string(sec.Strategy),
				Title:    sec.Title,
				Blocks:   len(sec.Blocks),
			})
		}
	}
	for _, is := range result.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Category:  string(is.Category),
			Severity:  string(is.Severity),
			Ref:       is.Ref.String(),
			Message:   is.Message,
			Corrected: is.AutoCorrectable && is.Correction != nil,
		})
	}

	return nil, output, nil
}

// handleRecordFeedback handles the record_feedback tool invocation.
func (s *Server) handleRecordFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FeedbackInput,
) (*mcp.CallToolResult, PatternOutput, error) {
	p, err := s.ports.Learning.RecordFeedback(ctx, input.PatternID, input.Rating)
	if err != nil {
		return nil, PatternOutput{}, err
	}
	return nil, PatternOutput{
		ID:           p.ID,
		SignatureKey: p.Signature.Key(),
		UsageCount:   p.UsageCount,
		SuccessRate:  p.SuccessRate,
		Flagged:      p.Flagged,
	}, nil
}

func (s *Server) handlePatternStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Learning.ListPatterns(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{Patterns: stats, Count: len(stats)}, nil
}

func (s *Server) handleFlaggedPatterns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Learning.FlaggedPatterns(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{Patterns: stats, Count: len(stats)}, nil
}
