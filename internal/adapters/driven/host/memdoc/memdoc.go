package memdoc

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
)

// Ensure Document implements the interface.
var _ driven.DocumentHost = (*Document)(nil)

// DefaultQueryLimit mirrors the query-length ceiling of desktop word
// processors; queries longer than this are rejected, not truncated.
const DefaultQueryLimit = 255

// Revision is one tracked edit against the document.
type Revision struct {
	// Offset is the byte offset of the edit in the current document text.
	Offset int

	// Deleted is the text removed by the edit, empty for pure insertions.
	Deleted string

	// Inserted is the text added by the edit, empty for pure deletions.
	Inserted string
}

// Mark is manual visual markup recorded against a span of the document.
type Mark struct {
	Start  int
	End    int
	Markup domain.Markup
}

// Document is an in-memory document host backed by a plain text buffer.
// All methods are safe for concurrent use.
type Document struct {
	mu sync.Mutex

	text       string
	rev        uint64
	queryLimit int

	tracking          bool
	trackingSupported bool

	revisions []Revision
	marks     []Mark
}

// Option configures a Document.
type Option func(*Document)

// WithQueryLimit overrides the default search query length limit.
func WithQueryLimit(n int) Option {
	return func(d *Document) { d.queryLimit = n }
}

// WithoutTracking simulates a host that cannot track changes natively.
func WithoutTracking() Option {
	return func(d *Document) { d.trackingSupported = false }
}

// New creates a document over the given text.
func New(text string, opts ...Option) *Document {
	d := &Document{
		text:              text,
		queryLimit:        DefaultQueryLimit,
		trackingSupported: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromFile creates a document from a plain-text file.
func FromFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return New(string(data), opts...), nil
}

// QueryLimit returns the maximum search query length in bytes.
func (d *Document) QueryLimit() int {
	return d.queryLimit
}

// Search finds occurrences of query in the whole document.
func (d *Document) Search(_ context.Context, query string, opts domain.FindOptions) ([]domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search(d.text, 0, query, opts)
}

// SearchIn finds occurrences of query within scope.
func (d *Document) SearchIn(_ context.Context, scope domain.Range, query string, opts domain.FindOptions) ([]domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(scope); err != nil {
		return nil, err
	}
	return d.search(d.text[scope.Start:scope.End], scope.Start, query, opts)
}

// Text returns the document text covered by r.
func (d *Document) Text(_ context.Context, r domain.Range) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(r); err != nil {
		return "", err
	}
	return d.text[r.Start:r.End], nil
}

// Paragraph expands r to the boundaries of its enclosing paragraph(s).
func (d *Document) Paragraph(_ context.Context, r domain.Range) (domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(r); err != nil {
		return domain.Range{}, err
	}
	start := strings.LastIndexByte(d.text[:r.Start], '\n') + 1
	end := r.End
	if i := strings.IndexByte(d.text[r.End:], '\n'); i >= 0 {
		end = r.End + i
	} else {
		end = len(d.text)
	}
	return domain.Range{Start: start, End: end, Rev: d.rev}, nil
}

// Expand returns the range spanning from the start of from to the end of to.
func (d *Document) Expand(_ context.Context, from, to domain.Range) (domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(from); err != nil {
		return domain.Range{}, err
	}
	if err := d.checkRange(to); err != nil {
		return domain.Range{}, err
	}
	if to.End < from.Start {
		return domain.Range{}, domain.ErrInvalidRange
	}
	return domain.Range{Start: from.Start, End: to.End, Rev: d.rev}, nil
}

// Compare reports the position of a relative to b.
func (d *Document) Compare(_ context.Context, a, b domain.Range) (domain.RangeOrder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(a); err != nil {
		return 0, err
	}
	if err := d.checkRange(b); err != nil {
		return 0, err
	}
	switch {
	case a.Start == b.Start && a.End == b.End:
		return domain.RangeEqual, nil
	case a.End <= b.Start:
		return domain.RangeBefore, nil
	case a.Start >= b.End:
		return domain.RangeAfter, nil
	case a.Start <= b.Start && a.End >= b.End:
		return domain.RangeContains, nil
	case b.Start <= a.Start && b.End >= a.End:
		return domain.RangeInside, nil
	default:
		return domain.RangeOverlaps, nil
	}
}

// Replace substitutes the text covered by r and returns the range of the
// replacement text at the new document revision.
func (d *Document) Replace(_ context.Context, r domain.Range, text string) (domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(r); err != nil {
		return domain.Range{}, err
	}
	deleted := d.text[r.Start:r.End]
	d.splice(r.Start, r.End, text)
	if d.tracking {
		d.revisions = append(d.revisions, Revision{Offset: r.Start, Deleted: deleted, Inserted: text})
	}
	d.rev++
	return domain.Range{Start: r.Start, End: r.Start + len(text), Rev: d.rev}, nil
}

// InsertAfter inserts text immediately after r and returns the range of the
// inserted text at the new document revision.
func (d *Document) InsertAfter(_ context.Context, r domain.Range, text string) (domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(r); err != nil {
		return domain.Range{}, err
	}
	d.splice(r.End, r.End, text)
	if d.tracking {
		d.revisions = append(d.revisions, Revision{Offset: r.End, Inserted: text})
	}
	d.rev++
	return domain.Range{Start: r.End, End: r.End + len(text), Rev: d.rev}, nil
}

// SetTracking toggles native change tracking.
func (d *Document) SetTracking(_ context.Context, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.trackingSupported {
		return domain.ErrTrackingUnsupported
	}
	d.tracking = enabled
	return nil
}

// Mark records manual visual markup against r.
func (d *Document) Mark(_ context.Context, r domain.Range, m domain.Markup) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRange(r); err != nil {
		return err
	}
	d.marks = append(d.marks, Mark{Start: r.Start, End: r.End, Markup: m})
	return nil
}

// DocumentEnd returns the zero-length range at the end of the document.
func (d *Document) DocumentEnd(_ context.Context) (domain.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.Range{Start: len(d.text), End: len(d.text), Rev: d.rev}, nil
}

// Contents returns the current document text.
func (d *Document) Contents() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Revisions returns the tracked edits recorded so far, in application order.
// Offsets are relative to the current document text.
func (d *Document) Revisions() []Revision {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Revision, len(d.revisions))
	copy(out, d.revisions)
	return out
}

// Marks returns the manual markup recorded so far.
func (d *Document) Marks() []Mark {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Mark, len(d.marks))
	copy(out, d.marks)
	return out
}

// search runs a compiled pattern over haystack, offsetting results by base.
// Callers hold d.mu.
func (d *Document) search(haystack string, base int, query string, opts domain.FindOptions) ([]domain.Range, error) {
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(query) > d.queryLimit {
		return nil, fmt.Errorf("%w: query exceeds host limit of %d bytes", domain.ErrInvalidInput, d.queryLimit)
	}

	re, err := regexp.Compile(buildPattern(query, opts))
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}

	var ranges []domain.Range
	for _, loc := range re.FindAllStringIndex(haystack, -1) {
		ranges = append(ranges, domain.Range{
			Start: base + loc[0],
			End:   base + loc[1],
			Rev:   d.rev,
		})
	}
	return ranges, nil
}

// buildPattern translates a host query into a regular expression. Wildcard
// segments never cross a paragraph break.
func buildPattern(query string, opts domain.FindOptions) string {
	var b strings.Builder
	if !opts.MatchCase {
		b.WriteString("(?i)")
	}
	if opts.MatchWholeWord {
		b.WriteString(`\b`)
	}
	if opts.MatchWildcards {
		parts := strings.Split(query, "*")
		for i, part := range parts {
			if i > 0 {
				b.WriteString(`[^\n]*?`)
			}
			b.WriteString(regexp.QuoteMeta(part))
		}
	} else {
		b.WriteString(regexp.QuoteMeta(query))
	}
	if opts.MatchWholeWord {
		b.WriteString(`\b`)
	}
	return b.String()
}

// splice replaces d.text[start:end] with repl and shifts recorded revision
// and mark offsets that sit at or beyond the edit. Callers hold d.mu.
func (d *Document) splice(start, end int, repl string) {
	delta := len(repl) - (end - start)
	d.text = d.text[:start] + repl + d.text[end:]
	if delta == 0 {
		return
	}
	for i := range d.revisions {
		if d.revisions[i].Offset >= end {
			d.revisions[i].Offset += delta
		}
	}
	for i := range d.marks {
		if d.marks[i].Start >= end {
			d.marks[i].Start += delta
			d.marks[i].End += delta
		}
	}
}

// checkRange validates a range token against the live document.
// Callers hold d.mu.
func (d *Document) checkRange(r domain.Range) error {
	if r.Rev != d.rev {
		return domain.ErrStaleRange
	}
	if r.Start < 0 || r.End > len(d.text) || r.Start > r.End {
		return domain.ErrInvalidRange
	}
	return nil
}
