package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// anchoredSection is a section with its resolved document position and the
// heading that bounds its scope.
type anchoredSection struct {
	section    domain.SectionReview
	pos        int // Start offset of the anchor heading; -1 when unresolved.
	endHeading string
}

// ReviewService orchestrates batch application of a review. Sections are
// applied one at a time, in reverse document order, so that an applied edit
// never shifts the offsets of a not-yet-applied one; there are no stable
// range identities across mutations to rely on instead.
type ReviewService struct {
	host     driven.DocumentHost
	search   *SearchService
	resolver *ResolverService
	editor   *EditorService
	redline  *RedlineService
	sessions driven.SessionStore
	tuning   domain.Tuning
}

// NewReviewService creates a new review service.
// The session store is optional; without it applied-state is in-memory only.
func NewReviewService(
	host driven.DocumentHost,
	search *SearchService,
	resolver *ResolverService,
	editor *EditorService,
	redline *RedlineService,
	tuning domain.Tuning,
) *ReviewService {
	return &ReviewService{
		host:     host,
		search:   search,
		resolver: resolver,
		editor:   editor,
		redline:  redline,
		tuning:   tuning,
	}
}

// SetSessionStore sets the store used to persist applied-state.
func (s *ReviewService) SetSessionStore(store driven.SessionStore) {
	s.sessions = store
}

// ApplyAll applies every pending section of the review. Failures are
// collected and reported; successes are committed and never rolled back.
func (s *ReviewService) ApplyAll(
	ctx context.Context, review *domain.Review, session *domain.ReviewSession, tracking bool,
) (*domain.ApplyReport, error) {
	if review == nil || session == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Batch Apply")
	logger.Debug("Review %s: %d sections, session %s (%d already applied)",
		review.ID, len(review.Sections), session.ID, session.AppliedCount())

	tracked, err := s.detectTracking(ctx, tracking)
	if err != nil {
		return nil, err
	}

	ordered, err := s.orderSections(ctx, review.Sections)
	if err != nil {
		return nil, err
	}

	report := &domain.ApplyReport{SessionID: session.ID}

	for _, anchored := range ordered {
		key := anchored.section.Key()

		if session.IsApplied(key) {
			logger.Debug("Section %q already applied, skipping", key)
			report.Skipped = append(report.Skipped, key)
			continue
		}

		changes, err := s.applySection(ctx, anchored, tracking)
		if err != nil {
			logger.Warn("Section %q failed: %v", key, err)
			report.Failed = append(report.Failed, domain.SectionFailure{
				Key:    key,
				Reason: err.Error(),
			})
			continue
		}

		session.MarkApplied(key)
		report.Applied = append(report.Applied, domain.SectionOutcome{
			Key:     key,
			Changes: changes,
			Tracked: tracked,
		})
	}

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, session); err != nil {
			logger.Warn("Persisting session %s failed: %v", session.ID, err)
		}
	}

	logger.Info("%s", report.Summary())
	return report, nil
}

// DryRun resolves every section's target without mutating the document.
func (s *ReviewService) DryRun(ctx context.Context, review *domain.Review) ([]domain.SectionResolution, error) {
	if review == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Dry Run")

	resolutions := make([]domain.SectionResolution, 0, len(review.Sections))
	for i := range review.Sections {
		resolutions = append(resolutions, s.resolveSection(ctx, &review.Sections[i]))
	}
	return resolutions, nil
}

// resolveSection produces a read-only resolution for one section.
func (s *ReviewService) resolveSection(ctx context.Context, sec *domain.SectionReview) domain.SectionResolution {
	res := domain.SectionResolution{Key: sec.Key()}

	switch sec.Kind {
	case domain.SectionKindChanges:
		located := 0
		for _, change := range sec.Changes {
			find := domain.TruncateAtWord(change.Find, s.host.QueryLimit())
			if _, err := s.editor.Locate(ctx, sec.Heading, find, ""); err == nil {
				located++
			}
		}
		if located == 0 {
			res.Reason = "could not locate any change in section"
			return res
		}
		res.Found = true
		res.Type = domain.MatchExact
		res.Confidence = 100 * located / len(sec.Changes)
		res.Context = fmt.Sprintf("%d of %d changes located", located, len(sec.Changes))

	case domain.SectionKindLegacy:
		matches, err := s.search.Search(ctx, sec.OriginalText, sec.Heading)
		if err != nil {
			res.Reason = err.Error()
			return res
		}
		if len(matches) == 0 {
			res.Reason = "could not locate text in document"
			return res
		}
		res.Found = true
		res.Type = matches[0].Type
		res.Confidence = matches[0].Confidence
		res.Context = matches[0].Context

	case domain.SectionKindInsertion:
		anchors, err := s.host.Search(ctx, sec.Insertion.InsertAfter, domain.FindOptions{})
		if err != nil {
			res.Reason = err.Error()
			return res
		}
		if len(anchors) == 0 {
			res.Reason = fmt.Sprintf("insertion anchor %q not found", sec.Insertion.InsertAfter)
			return res
		}
		res.Found = true
		res.Type = domain.MatchSectionHeading
		res.Confidence = 100

	default:
		res.Reason = fmt.Sprintf("unknown section kind %q", sec.Kind)
	}

	return res
}

// orderSections resolves each section's anchor position, assigns the next
// resolved heading as its scope boundary, and returns the sections in
// reverse document order. Unresolvable anchors sort last so their failures
// are reported after real work is done.
func (s *ReviewService) orderSections(ctx context.Context, sections []domain.SectionReview) ([]anchoredSection, error) {
	anchored := make([]anchoredSection, 0, len(sections))

	for _, sec := range sections {
		pos := -1
		ranges, err := s.host.Search(ctx, sec.AnchorHeading(), domain.FindOptions{})
		if err != nil {
			return nil, fmt.Errorf("anchor search for %q: %w", sec.AnchorHeading(), err)
		}
		if len(ranges) > 0 {
			pos = ranges[0].Start
		}
		anchored = append(anchored, anchoredSection{section: sec, pos: pos})
	}

	// Assign scope boundaries in ascending document order.
	byPos := make([]*anchoredSection, 0, len(anchored))
	for i := range anchored {
		if anchored[i].pos >= 0 {
			byPos = append(byPos, &anchored[i])
		}
	}
	sort.SliceStable(byPos, func(i, j int) bool { return byPos[i].pos < byPos[j].pos })
	for i := 0; i < len(byPos)-1; i++ {
		byPos[i].endHeading = byPos[i+1].section.AnchorHeading()
	}

	// Reverse document order for application; unresolved anchors last.
	sort.SliceStable(anchored, func(i, j int) bool {
		pi, pj := anchored[i].pos, anchored[j].pos
		if pi < 0 {
			return false
		}
		if pj < 0 {
			return true
		}
		return pi > pj
	})

	return anchored, nil
}

// applySection dispatches on the section variant and returns the number of
// individual edits applied.
func (s *ReviewService) applySection(ctx context.Context, anchored anchoredSection, tracking bool) (int, error) {
	sec := anchored.section
	opts := driving.EditOptions{Tracking: tracking, EndHeading: anchored.endHeading}

	switch sec.Kind {
	case domain.SectionKindChanges:
		applied, err := s.editor.ApplyChanges(ctx, sec.Heading, sec.Changes, opts)
		if err != nil {
			return 0, err
		}
		if applied == 0 {
			return 0, errors.New("could not locate any change in section")
		}
		return applied, nil

	case domain.SectionKindLegacy:
		return s.applyLegacy(ctx, sec, opts)

	case domain.SectionKindInsertion:
		content := sec.Insertion.Title + "\n" + sec.Insertion.Content
		if err := s.editor.InsertSection(ctx, sec.Insertion.InsertAfter, content, opts); err != nil {
			return 0, err
		}
		return 1, nil

	default:
		return 0, fmt.Errorf("%w: unknown section kind %q", domain.ErrInvalidInput, sec.Kind)
	}
}

// applyLegacy applies an original/revised pair: first as a single validated
// whole-range replacement, then falling back to diff-derived scoped edits
// when the full range cannot be resolved.
func (s *ReviewService) applyLegacy(ctx context.Context, sec domain.SectionReview, opts driving.EditOptions) (int, error) {
	target, err := s.resolver.Resolve(ctx, sec.OriginalText, sec.Heading)
	if err == nil {
		tracked, err := s.editor.enableTracking(ctx, opts.Tracking)
		if err != nil {
			return 0, err
		}
		replaced, err := s.host.Replace(ctx, target, sec.RevisedText)
		if err != nil {
			return 0, fmt.Errorf("replace section text: %w", err)
		}
		if !tracked {
			if err := s.host.Mark(ctx, replaced, manualMarkup); err != nil {
				logger.Warn("Manual markup failed: %v", err)
			}
		}
		return 1, nil
	}

	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidationFailed) {
		return 0, err
	}

	logger.Info("Full-range resolution failed for %q, deriving scoped edits from diff", sec.Heading)

	changes := s.redline.ExtractEdits(sec.OriginalText, sec.RevisedText)
	if len(changes) == 0 {
		return 0, errors.New("could not locate text in document")
	}

	applied, err := s.editor.ApplyChanges(ctx, sec.Heading, changes, opts)
	if err != nil {
		return 0, err
	}
	if applied == 0 {
		return 0, errors.New("could not locate text in document")
	}
	return applied, nil
}

// detectTracking reports whether native tracking will capture the batch.
func (s *ReviewService) detectTracking(ctx context.Context, want bool) (bool, error) {
	if !want {
		return false, nil
	}
	switch err := s.host.SetTracking(ctx, true); {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrTrackingUnsupported):
		logger.Warn("Native change tracking unavailable for this host")
		return false, nil
	default:
		return false, fmt.Errorf("enable tracking: %w", err)
	}
}
