package domain

// MatchType identifies which search tier produced a match.
type MatchType string

// Match types, in descending order of precision.
const (
	// MatchExact is a verbatim hit on the full excerpt.
	MatchExact MatchType = "exact"

	// MatchTruncated is a verbatim hit on the excerpt truncated to the
	// host's query-length limit.
	MatchTruncated MatchType = "truncated"

	// MatchNormalized is a hit on the typographically normalised excerpt.
	MatchNormalized MatchType = "normalized"

	// MatchWildcard is a hit on a wildcard pattern built from the
	// excerpt's leading significant words.
	MatchWildcard MatchType = "wildcard"

	// MatchFuzzy is a hit on a short literal phrase of leading significant
	// words; the least precise tier.
	MatchFuzzy MatchType = "fuzzy"

	// MatchSectionHeading is a hit resolved through a section-heading
	// anchor plus the excerpt's trailing phrase.
	MatchSectionHeading MatchType = "section_heading"
)

// IsValid returns true if the match type is recognised.
func (m MatchType) IsValid() bool {
	switch m {
	case MatchExact, MatchTruncated, MatchNormalized, MatchWildcard,
		MatchFuzzy, MatchSectionHeading:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MatchType) String() string {
	return string(m)
}

// Range is a capability token referring to a span of document text.
//
// Start and End are byte offsets into the host document's flattened text.
// Rev is the document revision the offsets were resolved against: any host
// call made with a Range whose Rev no longer matches the live document fails
// with ErrStaleRange. Ranges must therefore be re-resolved after every
// mutation, never cached across one.
type Range struct {
	// Start is the inclusive byte offset of the span.
	Start int

	// End is the exclusive byte offset of the span.
	End int

	// Rev is the document revision this range was resolved against.
	Rev uint64
}

// Len returns the span length in bytes.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsZero returns true for the zero-value range.
func (r Range) IsZero() bool {
	return r == Range{}
}

// RangeOrder describes the relative position of two ranges.
type RangeOrder int

// Relative range positions.
const (
	// RangeBefore means a ends at or before b starts.
	RangeBefore RangeOrder = iota

	// RangeAfter means a starts at or after b ends.
	RangeAfter

	// RangeContains means a fully encloses b.
	RangeContains

	// RangeInside means a is fully enclosed by b.
	RangeInside

	// RangeOverlaps means a and b overlap without containment.
	RangeOverlaps

	// RangeEqual means a and b cover the same span.
	RangeEqual
)

// FindOptions configures a host document search.
type FindOptions struct {
	// MatchCase requires case-sensitive matching.
	MatchCase bool

	// MatchWholeWord requires matches to start and end on word boundaries.
	MatchWholeWord bool

	// MatchWildcards treats '*' in the query as a multi-character wildcard.
	MatchWildcards bool
}

// Markup describes manual visual markup applied to a range when the host's
// native change tracking is unavailable.
type Markup struct {
	// Underline draws an underline across the range.
	Underline bool

	// Color is the font colour as a hex string, e.g. "#B91C1C".
	Color string
}

// SearchMatch is one confidence-scored candidate produced by a search call.
//
// Matches are ephemeral: the embedded Range is only valid until the next
// document mutation and must be re-resolved before any later use.
type SearchMatch struct {
	// Range locates the matched text in the live document.
	Range Range

	// Text is the matched text as found in the document.
	Text string

	// Context is up to 200 characters of the enclosing paragraph, used to
	// disambiguate when multiple candidates are returned.
	Context string

	// Confidence is the 0-100 acceptance score for this candidate.
	Confidence int

	// Type identifies the search tier that produced the match.
	Type MatchType
}
