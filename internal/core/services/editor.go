package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// Ensure EditorService implements the interface.
var _ driving.EditorService = (*EditorService)(nil)

// manualMarkup is the visual fallback applied to edits when the host's
// native change tracking is unavailable.
var manualMarkup = domain.Markup{
	Underline: true,
	Color:     "#C0392B",
}

// EditorService applies scoped find/replace edits within a section and
// inserts new sections. It holds no applied-state: whether a section has
// already been applied is the caller's bookkeeping, which keeps retries
// caller-controlled.
type EditorService struct {
	host   driven.DocumentHost
	tuning domain.Tuning
}

// NewEditorService creates a new section editor.
func NewEditorService(host driven.DocumentHost, tuning domain.Tuning) *EditorService {
	return &EditorService{
		host:   host,
		tuning: tuning,
	}
}

// ApplyChanges applies the ordered find/replace pairs within the section
// under heading and returns the number applied. Each change re-resolves the
// section scope fresh: ranges from before the previous replacement are
// stale and must never be reused.
func (e *EditorService) ApplyChanges(
	ctx context.Context, heading string, changes []domain.SectionChange, opts driving.EditOptions,
) (int, error) {
	logger.Section("Apply Section Changes")
	logger.Debug("Section %q: %d changes", heading, len(changes))

	tracked, err := e.enableTracking(ctx, opts.Tracking)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i, change := range changes {
		find := change.Find
		if limit := e.host.QueryLimit(); len(find) > limit {
			logger.Warn("Change %d: find text exceeds host limit of %d bytes, truncating", i, limit)
			find = domain.TruncateAtWord(find, limit)
		}

		target, err := e.Locate(ctx, heading, find, opts.EndHeading)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Change %d: %q not found in section %q, skipping", i, snippet(find, 40), heading)
				continue
			}
			return applied, fmt.Errorf("locate change %d: %w", i, err)
		}

		replaced, err := e.host.Replace(ctx, target, change.Replace)
		if err != nil {
			return applied, fmt.Errorf("replace change %d: %w", i, err)
		}

		if !tracked {
			if err := e.host.Mark(ctx, replaced, manualMarkup); err != nil {
				logger.Warn("Change %d: manual markup failed: %v", i, err)
			}
		}

		applied++
		logger.Debug("Change %d applied", i)
	}

	logger.Info("Applied %d of %d changes in section %q", applied, len(changes), heading)
	return applied, nil
}

// InsertSection inserts content immediately after the end of the paragraph
// enclosing afterHeading, wrapped with blank-line separators.
func (e *EditorService) InsertSection(
	ctx context.Context, afterHeading, content string, opts driving.EditOptions,
) error {
	logger.Section("Insert Section")

	tracked, err := e.enableTracking(ctx, opts.Tracking)
	if err != nil {
		return err
	}

	// The first content line is the new section's title. Refuse to insert
	// a second copy so re-running a batch in a fresh session stays safe.
	if title := strings.TrimSpace(firstLine(content)); title != "" {
		existing, err := e.host.Search(ctx, title, domain.FindOptions{})
		if err != nil {
			return fmt.Errorf("title search: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("section %q: %w", title, domain.ErrAlreadyExists)
		}
	}

	anchors, err := e.host.Search(ctx, afterHeading, domain.FindOptions{})
	if err != nil {
		return fmt.Errorf("anchor search: %w", err)
	}
	if len(anchors) == 0 {
		return fmt.Errorf("insertion anchor %q: %w", afterHeading, domain.ErrNotFound)
	}

	para, err := e.host.Paragraph(ctx, anchors[0])
	if err != nil {
		return fmt.Errorf("anchor paragraph: %w", err)
	}

	block := "\n" + content + "\n"
	inserted, err := e.host.InsertAfter(ctx, para, block)
	if err != nil {
		return fmt.Errorf("insert after %q: %w", afterHeading, err)
	}

	if !tracked {
		if err := e.host.Mark(ctx, inserted, manualMarkup); err != nil {
			logger.Warn("Manual markup on inserted section failed: %v", err)
		}
	}

	logger.Info("Inserted %d bytes after %q", inserted.Len(), afterHeading)
	return nil
}

// Locate finds the first occurrence of find within the section scope,
// retrying with the normalised form. The scope is resolved fresh on every
// call so the result is valid at the current document revision.
func (e *EditorService) Locate(ctx context.Context, heading, find, endHeading string) (domain.Range, error) {
	scope, err := e.sectionScope(ctx, heading, endHeading)
	if err != nil {
		return domain.Range{}, err
	}

	ranges, err := e.host.SearchIn(ctx, scope, find, domain.FindOptions{MatchCase: true})
	if err != nil {
		return domain.Range{}, err
	}
	if len(ranges) == 0 {
		if normalized := domain.Normalize(find); normalized != find {
			ranges, err = e.host.SearchIn(ctx, scope, normalized, domain.FindOptions{})
			if err != nil {
				return domain.Range{}, err
			}
		}
	}
	if len(ranges) == 0 {
		return domain.Range{}, domain.ErrNotFound
	}
	return ranges[0], nil
}

// sectionScope bounds the section: from the end of the heading match to the
// next occurrence of endHeading, or the document end.
func (e *EditorService) sectionScope(ctx context.Context, heading, endHeading string) (domain.Range, error) {
	headings, err := e.host.Search(ctx, heading, domain.FindOptions{})
	if err != nil {
		return domain.Range{}, err
	}
	if len(headings) == 0 {
		return domain.Range{}, fmt.Errorf("section heading %q: %w", heading, domain.ErrNotFound)
	}
	h := headings[0]

	docEnd, err := e.host.DocumentEnd(ctx)
	if err != nil {
		return domain.Range{}, err
	}

	tail, err := e.host.Expand(ctx, h, docEnd)
	if err != nil {
		return domain.Range{}, err
	}

	end := tail.End
	if endHeading != "" {
		boundaries, err := e.host.SearchIn(ctx, tail, endHeading, domain.FindOptions{})
		if err != nil {
			return domain.Range{}, err
		}
		for _, b := range boundaries {
			if b.Start > h.End {
				end = b.Start
				break
			}
		}
	}

	return domain.Range{Start: h.End, End: end, Rev: h.Rev}, nil
}

// enableTracking turns on native change tracking when requested, degrading
// to manual markup when the host cannot track changes. Returns whether
// native tracking is active.
func (e *EditorService) enableTracking(ctx context.Context, want bool) (bool, error) {
	if !want {
		return false, nil
	}
	switch err := e.host.SetTracking(ctx, true); {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrTrackingUnsupported):
		logger.Warn("Native change tracking unavailable, falling back to manual markup")
		return false, nil
	default:
		return false, fmt.Errorf("enable tracking: %w", err)
	}
}

// firstLine returns text up to the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
