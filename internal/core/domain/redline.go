package domain

// RedlineOp classifies one segment of a redline between an original and a
// revised text.
type RedlineOp int

// Redline operations.
const (
	// RedlineEqual is text common to both versions.
	RedlineEqual RedlineOp = iota

	// RedlineDelete is text removed from the original.
	RedlineDelete

	// RedlineInsert is text added in the revision.
	RedlineInsert
)

// RedlineSegment is one run of a rendered redline.
type RedlineSegment struct {
	// Op says whether the text is unchanged, deleted, or inserted.
	Op RedlineOp

	// Text is the segment content.
	Text string
}
