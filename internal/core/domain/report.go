package domain

import (
	"fmt"
	"strings"
)

// SectionOutcome records what happened to one section during a batch apply.
type SectionOutcome struct {
	// Key is the section's applied-state key.
	Key string

	// Changes is the number of individual edits applied within the section.
	Changes int

	// Tracked is true when the host's native change tracking captured the
	// edits; false when manual visual markup was used instead.
	Tracked bool
}

// SectionFailure records one section that could not be applied.
type SectionFailure struct {
	// Key is the section's applied-state key.
	Key string

	// Reason is the human-readable failure cause.
	Reason string
}

// ApplyReport summarises a batch apply. Failures are collected, not thrown:
// a batch with failures still commits its successes (partial apply, no
// rollback).
type ApplyReport struct {
	// SessionID is the review session the batch ran under.
	SessionID string

	// Applied lists sections successfully mutated, in apply order.
	Applied []SectionOutcome

	// Failed lists sections that could not be applied.
	Failed []SectionFailure

	// Skipped lists sections left untouched because the session had
	// already applied them.
	Skipped []string
}

// ChangesApplied returns the total number of individual edits across all
// applied sections.
func (r *ApplyReport) ChangesApplied() int {
	total := 0
	for _, o := range r.Applied {
		total += o.Changes
	}
	return total
}

// SectionResolution records where a proposed section change would land,
// without mutating anything. Produced by dry runs.
type SectionResolution struct {
	// Key is the section's applied-state key.
	Key string

	// Found is true when a target range was located.
	Found bool

	// Confidence is the best match confidence (0-100).
	Confidence int

	// Type is the search tier that located the target.
	Type MatchType

	// Context is a snippet of the located text for reviewer confirmation.
	Context string

	// Reason explains a failed resolution.
	Reason string
}

// Summary returns the one-line user-visible result, e.g.
// "Applied 3 sections (7 changes); failed: [LIMITATION OF LIABILITY]".
func (r *ApplyReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d sections (%d changes)", len(r.Applied), r.ChangesApplied())

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "; skipped %d already applied", len(r.Skipped))
	}

	if len(r.Failed) > 0 {
		keys := make([]string, len(r.Failed))
		for i, f := range r.Failed {
			keys[i] = f.Key
		}
		fmt.Fprintf(&b, "; failed: [%s]", strings.Join(keys, ", "))
	}

	return b.String()
}
