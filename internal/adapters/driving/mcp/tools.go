package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
)

// SearchInput is the input schema for the search_text tool.
type SearchInput struct {
	Excerpt string `json:"excerpt" jsonschema:"the excerpt text to locate in the document"`
	Section string `json:"section,omitempty" jsonschema:"section heading the excerpt is expected under"`
}

// SearchOutput is the output schema for the search_text tool.
type SearchOutput struct {
	Matches []MatchOutput `json:"matches"`
	Count   int           `json:"count"`
}

// MatchOutput represents a single scored match.
type MatchOutput struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Confidence int    `json:"confidence"`
	Type       string `json:"type"`
	Context    string `json:"context,omitempty"`
}

// ResolveInput is the input schema for the resolve_range tool.
type ResolveInput struct {
	Excerpt string `json:"excerpt" jsonschema:"the excerpt text to resolve to a single contiguous range"`
	Section string `json:"section,omitempty" jsonschema:"section heading the excerpt is expected under"`
}

// ResolveOutput is the output schema for the resolve_range tool.
type ResolveOutput struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ApplyChangesInput is the input schema for the apply_changes tool.
type ApplyChangesInput struct {
	Heading  string        `json:"heading" jsonschema:"heading of the section to edit"`
	Changes  []ChangeInput `json:"changes" jsonschema:"ordered find/replace pairs to apply within the section"`
	Tracking bool          `json:"tracking,omitempty" jsonschema:"request native change tracking"`
}

// ChangeInput is one find/replace pair.
type ChangeInput struct {
	Find    string `json:"find" jsonschema:"text to locate within the section"`
	Replace string `json:"replace" jsonschema:"replacement text"`
}

// ApplyChangesOutput is the output schema for the apply_changes tool.
type ApplyChangesOutput struct {
	Applied int `json:"applied"`
	Total   int `json:"total"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_text",
		Description: "Locate excerpt text in the document through the cascading search tiers",
	}, s.handleSearch)

	if s.ports.Resolver != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "resolve_range",
			Description: "Resolve the full validated document range covering an excerpt",
		}, s.handleResolve)
	}

	if s.ports.Editor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "apply_changes",
			Description: "Apply scoped find/replace edits within a named section",
		}, s.handleApplyChanges)
	}
}

// handleSearch handles the search_text tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	matches, err := s.ports.Search.Search(ctx, input.Excerpt, input.Section)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Matches: make([]MatchOutput, len(matches)),
		Count:   len(matches),
	}
	for i := range matches {
		output.Matches[i] = MatchOutput{
			Start:      matches[i].Range.Start,
			End:        matches[i].Range.End,
			Confidence: matches[i].Confidence,
			Type:       matches[i].Type.String(),
			Context:    matches[i].Context,
		}
	}

	return nil, output, nil
}

// handleResolve handles the resolve_range tool invocation.
func (s *Server) handleResolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	r, err := s.ports.Resolver.Resolve(ctx, input.Excerpt, input.Section)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	return nil, ResolveOutput{Start: r.Start, End: r.End}, nil
}

// handleApplyChanges handles the apply_changes tool invocation.
func (s *Server) handleApplyChanges(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApplyChangesInput,
) (*mcp.CallToolResult, ApplyChangesOutput, error) {
	changes := make([]domain.SectionChange, len(input.Changes))
	for i, c := range input.Changes {
		changes[i] = domain.SectionChange{Find: c.Find, Replace: c.Replace}
	}

	opts := driving.EditOptions{Tracking: input.Tracking}
	applied, err := s.ports.Editor.ApplyChanges(ctx, input.Heading, changes, opts)
	if err != nil {
		return nil, ApplyChangesOutput{}, err
	}

	return nil, ApplyChangesOutput{Applied: applied, Total: len(changes)}, nil
}
