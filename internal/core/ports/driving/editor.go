package driving

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// EditOptions configures how section edits are applied.
type EditOptions struct {
	// Tracking requests the host's native change-tracking mode. When the
	// host cannot track changes the editor degrades to manual markup.
	Tracking bool

	// EndHeading, when set, bounds the section scope: edits only match
	// between the section heading and the first occurrence of EndHeading.
	// When empty the scope runs to the end of the document.
	EndHeading string
}

// EditorService applies edits within a section or inserts new sections.
// It performs no applied-state bookkeeping; callers track which sections
// have already been applied.
type EditorService interface {
	// ApplyChanges applies the ordered find/replace pairs within the
	// section under heading and returns the number applied. Unresolvable
	// changes are logged and skipped, never fatal.
	ApplyChanges(ctx context.Context, heading string, changes []domain.SectionChange, opts EditOptions) (int, error)

	// InsertSection inserts content immediately after the section under
	// afterHeading, wrapped with blank-line separators.
	InsertSection(ctx context.Context, afterHeading, content string, opts EditOptions) error
}
