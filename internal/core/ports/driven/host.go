package driven

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// DocumentHost is the abstraction over the word-processing host's document
// object model. Implementations own the document text; core services only
// hold transient domain.Range tokens resolved fresh before each use.
//
// Every mutating call bumps the document revision. Any call receiving a
// Range from an earlier revision must fail with domain.ErrStaleRange; the
// engine's re-search-before-apply discipline depends on hosts enforcing
// this.
type DocumentHost interface {
	// QueryLimit returns the host's maximum search query length in bytes.
	// Longer queries must be truncated by the caller before searching.
	QueryLimit() int

	// Search finds occurrences of query in the whole document, in
	// document order.
	Search(ctx context.Context, query string, opts domain.FindOptions) ([]domain.Range, error)

	// SearchIn finds occurrences of query within scope, in document order.
	SearchIn(ctx context.Context, scope domain.Range, query string, opts domain.FindOptions) ([]domain.Range, error)

	// Text returns the document text covered by r.
	Text(ctx context.Context, r domain.Range) (string, error)

	// Paragraph expands r to the boundaries of its enclosing paragraph(s).
	Paragraph(ctx context.Context, r domain.Range) (domain.Range, error)

	// Expand returns the range spanning from the start of from to the end
	// of to.
	Expand(ctx context.Context, from, to domain.Range) (domain.Range, error)

	// Compare reports the position of a relative to b.
	Compare(ctx context.Context, a, b domain.Range) (domain.RangeOrder, error)

	// Replace substitutes the text covered by r and returns the range of
	// the replacement text at the new document revision.
	Replace(ctx context.Context, r domain.Range, text string) (domain.Range, error)

	// InsertAfter inserts text immediately after r and returns the range
	// of the inserted text at the new document revision. Blank lines in
	// text start new paragraphs.
	InsertAfter(ctx context.Context, r domain.Range, text string) (domain.Range, error)

	// SetTracking toggles the host's native change-tracking mode.
	// Returns domain.ErrTrackingUnsupported when the host version cannot
	// track changes; callers then fall back to manual markup.
	SetTracking(ctx context.Context, enabled bool) error

	// Mark applies manual visual markup to r so a reviewer can spot an
	// untracked edit.
	Mark(ctx context.Context, r domain.Range, m domain.Markup) error

	// DocumentEnd returns the zero-length range at the end of the document.
	DocumentEnd(ctx context.Context) (domain.Range, error)
}
