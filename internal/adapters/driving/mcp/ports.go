package mcp

import (
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search locates excerpt text in the document.
	Search driving.SearchService

	// Resolver resolves full excerpt ranges.
	Resolver driving.ResolverService

	// Editor applies scoped section edits.
	Editor driving.EditorService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Resolver and Editor are optional; their tools are registered only
	// when present.
	return nil
}
