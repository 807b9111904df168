package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/folio/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for folio resources.
	uriScheme = "folio://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "patterns",
		Name:        "patterns",
		Description: "Statistics for every learned layout pattern",
		MIMEType:    mimeJSON,
	}, s.handlePatternsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "blocklist",
		Name:        "blocklist",
		Description: "Known hallucinated phrases across all document types",
		MIMEType:    mimeJSON,
	}, s.handleBlocklistResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "patterns/{patternId}",
		Name:        "pattern",
		Description: "A single learned pattern with its layout structure",
		MIMEType:    mimeJSON,
	}, s.handlePatternResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "blocklist/{documentType}",
		Name:        "blocklist-by-type",
		Description: "Blocklist entries that apply to one document type",
		MIMEType:    mimeJSON,
	}, s.handleTypedBlocklistResource)
}

// handlePatternsResource returns pattern statistics.
func (s *Server) handlePatternsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Learning == nil {
		return jsonResult(req.Params.URI, []byte("[]")), nil
	}

	stats, err := s.ports.Learning.ListPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	return marshalResult(req.Params.URI, stats)
}

// handleBlocklistResource returns every blocklist entry.
func (s *Server) handleBlocklistResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Learning == nil {
		return jsonResult(req.Params.URI, []byte("[]")), nil
	}

	entries, err := s.ports.Learning.ListBlocklist(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing blocklist: %w", err)
	}
	return marshalResult(req.Params.URI, entries)
}

// handlePatternResource returns one pattern.
func (s *Server) handlePatternResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Learning == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// folio://patterns/{patternId}
	id := extractPatternID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	p, err := s.ports.Learning.GetPattern(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting pattern: %w", err)
	}
	return marshalResult(req.Params.URI, p)
}

// handleTypedBlocklistResource returns blocklist entries for one type.
func (s *Server) handleTypedBlocklistResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Learning == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docType := extractDocumentType(req.Params.URI)
	if !docType.IsValid() {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entries, err := s.ports.Learning.ListBlocklist(ctx, docType)
	if err != nil {
		return nil, fmt.Errorf("listing blocklist: %w", err)
	}
	return marshalResult(req.Params.URI, entries)
}

func marshalResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return jsonResult(uri, data), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}
}

// extractPatternID extracts the pattern ID from folio://patterns/{patternId}.
func extractPatternID(uri string) string {
	return extractSegment(uri, uriScheme+"patterns/")
}

// extractDocumentType extracts the type from folio://blocklist/{documentType}.
func extractDocumentType(uri string) domain.DocumentType {
	return domain.DocumentType(extractSegment(uri, uriScheme+"blocklist/"))
}

func extractSegment(uri, prefix string) string {
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(uri, prefix)
	if strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
