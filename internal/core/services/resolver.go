package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// Ensure ResolverService implements the interface.
var _ driving.ResolverService = (*ResolverService)(nil)

// ResolverService locates the single contiguous live range for an excerpt.
// Excerpts within the host's query limit delegate to the cascading search;
// longer excerpts are resolved by anchoring start and end phrases
// independently and expanding between them.
//
// A geometrically successful expansion is never trusted on its own: the
// result must pass length, ending, and interior validation or resolution
// fails closed. Returning nothing is always preferable to returning a wrong
// range, which would leave unreplaced orphan fragments after a mutation.
type ResolverService struct {
	host   driven.DocumentHost
	search *SearchService
	tuning domain.Tuning
}

// NewResolverService creates a new full-range resolver.
func NewResolverService(host driven.DocumentHost, search *SearchService, tuning domain.Tuning) *ResolverService {
	return &ResolverService{
		host:   host,
		search: search,
		tuning: tuning,
	}
}

// Resolve returns the validated live range covering the excerpt.
func (r *ResolverService) Resolve(ctx context.Context, excerpt, sectionHint string) (domain.Range, error) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return domain.Range{}, domain.ErrInvalidInput
	}

	logger.Section("Full-Range Resolution")
	limit := r.host.QueryLimit()

	// Heading-anchored resolution first when a hint is available.
	if sectionHint != "" && len(excerpt) > limit {
		matches, err := r.search.headingSearch(ctx, excerpt, sectionHint)
		if err != nil {
			return domain.Range{}, fmt.Errorf("heading resolution: %w", err)
		}
		if len(matches) > 0 {
			logger.Info("Resolved via section heading anchor")
			return matches[0].Range, nil
		}
	}

	// Short excerpts delegate to the cascading search.
	if len(excerpt) <= limit {
		matches, err := r.search.Search(ctx, excerpt, sectionHint)
		if err != nil {
			return domain.Range{}, err
		}
		if len(matches) == 0 {
			return domain.Range{}, domain.ErrNotFound
		}
		return matches[0].Range, nil
	}

	// Anchor-based resolution for long excerpts.
	start, err := r.findStartAnchor(ctx, excerpt)
	if err != nil {
		return domain.Range{}, err
	}

	candidate, err := r.expandToEndAnchor(ctx, excerpt, start)
	if err != nil {
		return domain.Range{}, err
	}

	if err := r.validate(ctx, candidate, excerpt); err == nil {
		logger.Info("Resolved %d-byte range via start/end anchors", candidate.Len())
		return candidate, nil
	} else {
		logger.Debug("Candidate failed validation: %v", err)
	}

	// Last resort: extend to whole paragraph boundaries and accept only if
	// the extension provably contains the excerpt. Anything less certain
	// fails closed.
	extended, err := r.host.Paragraph(ctx, candidate)
	if err != nil {
		return domain.Range{}, fmt.Errorf("paragraph extension: %w", err)
	}
	extText, err := r.host.Text(ctx, extended)
	if err != nil {
		return domain.Range{}, fmt.Errorf("paragraph extension: %w", err)
	}
	if strings.Contains(domain.Normalize(extText), domain.Normalize(excerpt)) {
		logger.Info("Resolved via paragraph-boundary extension")
		return extended, nil
	}

	logger.Warn("Refusing candidate range: validation failed and extension does not contain excerpt")
	return domain.Range{}, domain.ErrValidationFailed
}

// findStartAnchor locates the excerpt's opening phrase, retrying with a
// shorter phrase and then a normalised one. Phrase lengths are clamped to
// the host's query limit so a host with a small limit degrades to not
// found instead of rejecting the query.
func (r *ResolverService) findStartAnchor(ctx context.Context, excerpt string) (domain.Range, error) {
	limit := r.host.QueryLimit()
	queries := []struct {
		q    string
		opts domain.FindOptions
	}{
		{domain.HeadText(excerpt, min(r.tuning.StartPhraseLen, limit)), domain.FindOptions{MatchCase: true}},
		{domain.HeadText(excerpt, min(r.tuning.StartRetryLen, limit)), domain.FindOptions{MatchCase: true}},
		{domain.HeadText(domain.Normalize(excerpt), min(r.tuning.StartRetryLen, limit)), domain.FindOptions{}},
	}

	for _, query := range queries {
		ranges, err := r.host.Search(ctx, query.q, query.opts)
		if err != nil {
			return domain.Range{}, fmt.Errorf("start anchor search: %w", err)
		}
		if len(ranges) > 0 {
			logger.Debug("Start anchor found with %d-byte phrase", len(query.q))
			return ranges[0], nil
		}
	}

	logger.Debug("No start anchor found")
	return domain.Range{}, domain.ErrNotFound
}

// expandToEndAnchor searches for the excerpt's closing phrase and, among
// matches positioned at or after the start anchor, picks the expansion whose
// length is closest to the expected length. The scan short-circuits once a
// candidate lands within the short-circuit tolerance.
func (r *ResolverService) expandToEndAnchor(ctx context.Context, excerpt string, start domain.Range) (domain.Range, error) {
	endPhrase := domain.TailText(excerpt, min(r.tuning.EndPhraseLen, r.host.QueryLimit()))

	ends, err := r.host.Search(ctx, endPhrase, domain.FindOptions{})
	if err != nil {
		return domain.Range{}, fmt.Errorf("end anchor search: %w", err)
	}
	if len(ends) == 0 {
		ends, err = r.host.Search(ctx, domain.Normalize(endPhrase), domain.FindOptions{})
		if err != nil {
			return domain.Range{}, fmt.Errorf("end anchor search: %w", err)
		}
	}
	if len(ends) == 0 {
		logger.Debug("No end anchor found")
		return domain.Range{}, domain.ErrNotFound
	}

	expected := len(domain.Normalize(excerpt))

	var best domain.Range
	bestDiff := -1

	for _, end := range ends {
		ord, err := r.host.Compare(ctx, end, start)
		if err != nil {
			return domain.Range{}, err
		}
		if ord == domain.RangeBefore {
			continue
		}

		cand, err := r.host.Expand(ctx, start, end)
		if err != nil {
			continue // End anchor incompatible with start; try the next.
		}
		text, err := r.host.Text(ctx, cand)
		if err != nil {
			return domain.Range{}, err
		}

		diff := len(domain.Normalize(text)) - expected
		if diff < 0 {
			diff = -diff
		}

		if bestDiff < 0 || diff < bestDiff {
			best = cand
			bestDiff = diff
		}
		if float64(diff) <= r.tuning.ShortCircuitTol*float64(expected) {
			logger.Debug("End anchor within short-circuit tolerance")
			break
		}
	}

	if bestDiff < 0 {
		logger.Debug("No end anchor at or after the start anchor")
		return domain.Range{}, domain.ErrNotFound
	}
	return best, nil
}

// validate confirms a candidate range before it may be returned: normalised
// length within tolerance, trailing bytes matching the excerpt's, and the
// excerpt's middle phrase present in the found text.
func (r *ResolverService) validate(ctx context.Context, cand domain.Range, excerpt string) error {
	text, err := r.host.Text(ctx, cand)
	if err != nil {
		return err
	}

	nf := domain.Normalize(text)
	ne := domain.Normalize(excerpt)

	if !withinTolerance(len(nf), len(ne), r.tuning.LengthTol) {
		return fmt.Errorf("%w: found length %d vs expected %d", domain.ErrValidationFailed, len(nf), len(ne))
	}

	if suffix(nf, r.tuning.EndMatchLen) != suffix(ne, r.tuning.EndMatchLen) {
		return fmt.Errorf("%w: ending text does not match", domain.ErrValidationFailed)
	}

	middle := domain.Normalize(domain.MiddleText(excerpt, r.tuning.MiddlePhraseLen))
	if middle != "" && !strings.Contains(nf, middle) {
		return fmt.Errorf("%w: middle phrase not present in found text", domain.ErrValidationFailed)
	}

	return nil
}

// suffix returns the last n bytes of s.
func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
