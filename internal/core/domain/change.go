package domain

import (
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// RiskLevel classifies a reviewed section.
type RiskLevel string

// Risk levels assigned by the upstream analysis.
const (
	// RiskLow means the section needs no attention.
	RiskLow RiskLevel = "low"

	// RiskMedium means the section should be reviewed.
	RiskMedium RiskLevel = "medium"

	// RiskHigh means the section requires changes.
	RiskHigh RiskLevel = "high"
)

// IsValid returns true if the risk level is recognised.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the risk level.
func (r RiskLevel) Description() string {
	switch r {
	case RiskLow:
		return "Low risk"
	case RiskMedium:
		return "Medium risk"
	case RiskHigh:
		return "High risk"
	default:
		return unknownDescription
	}
}

// SectionChange is one atomic, scoped find/replace within a section.
// Immutable once produced by the upstream analysis.
type SectionChange struct {
	// Find is the text to locate within the section. Must not exceed the
	// host's query-length limit; longer values are truncated at a word
	// boundary before searching.
	Find string

	// Replace is the replacement text.
	Replace string

	// Rationale explains why the change was proposed.
	Rationale string
}

// NewSection is a directive to insert an entirely new section, as opposed
// to replacing existing text.
type NewSection struct {
	// Title is the heading of the new section.
	Title string

	// InsertAfter is the heading of the existing section the new content
	// goes after.
	InsertAfter string

	// Content is the body of the new section.
	Content string

	// Rationale explains why the section was proposed.
	Rationale string
}

// SectionKind discriminates the three section-review variants. Modelling
// the variants as a tagged union keeps dispatch exhaustive: adding a fourth
// variant forces every switch to be revisited.
type SectionKind string

// Section review variants.
const (
	// SectionKindChanges carries a list of scoped find/replace pairs.
	SectionKindChanges SectionKind = "changes"

	// SectionKindLegacy carries a whole-section original/revised text pair.
	SectionKindLegacy SectionKind = "legacy"

	// SectionKindInsertion carries a new-section directive.
	SectionKindInsertion SectionKind = "insertion"
)

// IsValid returns true if the section kind is recognised.
func (k SectionKind) IsValid() bool {
	switch k {
	case SectionKindChanges, SectionKindLegacy, SectionKindInsertion:
		return true
	default:
		return false
	}
}

// SectionReview describes one reviewed contract section.
type SectionReview struct {
	// Heading is the section heading text, also the applied-state key.
	Heading string

	// Risk is the analysis risk classification.
	Risk RiskLevel

	// Kind selects which variant fields below are meaningful.
	Kind SectionKind

	// Changes holds the scoped edits (SectionKindChanges).
	Changes []SectionChange

	// OriginalText and RevisedText hold the whole-section pair
	// (SectionKindLegacy).
	OriginalText string
	RevisedText  string

	// Insertion holds the new-section directive (SectionKindInsertion).
	Insertion *NewSection

	// Rationale explains the proposed change at section level.
	Rationale string
}

// Validate checks that the review's variant fields are consistent with
// its Kind.
func (s *SectionReview) Validate() error {
	if strings.TrimSpace(s.Heading) == "" && s.Kind != SectionKindInsertion {
		return fmt.Errorf("%w: section heading is required", ErrInvalidInput)
	}

	switch s.Kind {
	case SectionKindChanges:
		if len(s.Changes) == 0 {
			return fmt.Errorf("%w: section %q has no changes", ErrInvalidInput, s.Heading)
		}
		for i, c := range s.Changes {
			if strings.TrimSpace(c.Find) == "" {
				return fmt.Errorf("%w: section %q change %d has empty find text", ErrInvalidInput, s.Heading, i)
			}
		}
	case SectionKindLegacy:
		if strings.TrimSpace(s.OriginalText) == "" {
			return fmt.Errorf("%w: section %q has no original text", ErrInvalidInput, s.Heading)
		}
	case SectionKindInsertion:
		if s.Insertion == nil {
			return fmt.Errorf("%w: section %q marked as insertion without content", ErrInvalidInput, s.Heading)
		}
		if strings.TrimSpace(s.Insertion.InsertAfter) == "" {
			return fmt.Errorf("%w: new section %q has no insertion anchor", ErrInvalidInput, s.Insertion.Title)
		}
		if strings.TrimSpace(s.Insertion.Content) == "" {
			return fmt.Errorf("%w: new section %q has no content", ErrInvalidInput, s.Insertion.Title)
		}
	default:
		return fmt.Errorf("%w: unknown section kind %q", ErrInvalidInput, s.Kind)
	}

	return nil
}

// Key returns the applied-state key for the section. Insertions are keyed
// by their new title since they have no existing heading.
func (s *SectionReview) Key() string {
	if s.Kind == SectionKindInsertion && s.Insertion != nil {
		return s.Insertion.Title
	}
	return s.Heading
}

// AnchorHeading returns the heading used to locate the section in the
// document: the existing heading for edits, the insertion anchor for new
// sections.
func (s *SectionReview) AnchorHeading() string {
	if s.Kind == SectionKindInsertion && s.Insertion != nil {
		return s.Insertion.InsertAfter
	}
	return s.Heading
}

// Review is the full payload produced by one upstream analysis run.
type Review struct {
	// ID identifies the analysis run.
	ID string

	// DocumentURI is the document the review targets.
	DocumentURI string

	// Sections are the reviewed sections, in analysis order.
	Sections []SectionReview

	// CreatedAt is when the analysis was produced.
	CreatedAt time.Time
}

// Validate checks the whole payload.
func (r *Review) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("%w: review has no sections", ErrInvalidInput)
	}
	for i := range r.Sections {
		if err := r.Sections[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
