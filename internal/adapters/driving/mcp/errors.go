// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// Redline CLI. It exposes the search, resolve and edit operations as tools so
// AI assistants can re-anchor and apply reviewed edits directly.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
