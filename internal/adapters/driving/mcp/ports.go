package mcp

import (
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Conversion runs the extraction and layout pipeline.
	Conversion driving.ConversionService

	// Learning exposes pattern statistics, feedback and the blocklist.
	Learning driving.LearningService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Conversion == nil {
		return ErrMissingConversionService
	}
	// Learning is optional; its tools are not registered without it.
	return nil
}
