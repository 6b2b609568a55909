// Package domain defines the core business entities for Redline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - SectionReview: One reviewed contract section (edits, legacy pair, or insertion)
//   - SectionChange: One atomic scoped find/replace within a section
//   - SearchMatch: A confidence-scored match candidate in the live document
//   - Range: A capability token referring to a span of document text
//   - ReviewSession: The applied-state set for one review run
//
// It also holds the pure text algorithms (Normalize, Similarity) that the
// search tiers and range validation are built on.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
