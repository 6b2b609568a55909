package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Base confidences for tiers whose hits are not similarity-scored.
const (
	exactConfidence      = 100
	normalizedConfidence = 95
	headingConfidence    = 90
)

// SearchService locates excerpt text in the live document by cascading
// through search tiers of descending precision, short-circuiting on the
// first tier that yields an accepted match.
type SearchService struct {
	host   driven.DocumentHost
	tuning domain.Tuning
}

// NewSearchService creates a new cascading search service.
func NewSearchService(host driven.DocumentHost, tuning domain.Tuning) *SearchService {
	return &SearchService{
		host:   host,
		tuning: tuning,
	}
}

// Search returns confidence-scored match candidates for the excerpt,
// ordered by descending confidence. The result may be empty; search never
// mutates the document.
func (s *SearchService) Search(ctx context.Context, excerpt, sectionHint string) ([]domain.SearchMatch, error) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return nil, domain.ErrInvalidInput
	}

	logger.Section("Cascading Search")
	logger.Debug("Excerpt: %d bytes, hint: %q", len(excerpt), sectionHint)

	limit := s.host.QueryLimit()
	long := len(excerpt) > limit

	// Tier 1: section heading anchor, only useful for long excerpts.
	if sectionHint != "" && long {
		matches, err := s.headingSearch(ctx, excerpt, sectionHint)
		if err != nil {
			return nil, fmt.Errorf("heading search: %w", err)
		}
		if len(matches) > 0 {
			logger.Info("Tier section_heading: %d matches", len(matches))
			return matches, nil
		}
	}

	// Tier 2: exact, or truncated-to-limit for long excerpts.
	floored := 0
	matches, rejected, err := s.literalTier(ctx, excerpt, excerpt,
		domain.MatchExact, domain.MatchTruncated,
		domain.FindOptions{MatchCase: true}, exactConfidence)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}
	if len(matches) > 0 {
		logger.Info("Tier %s: %d matches", matches[0].Type, len(matches))
		return matches, nil
	}
	floored += rejected

	// Tier 3: typographically normalised excerpt.
	if normalized := domain.Normalize(excerpt); normalized != excerpt {
		matches, rejected, err = s.literalTier(ctx, normalized, excerpt,
			domain.MatchNormalized, domain.MatchNormalized,
			domain.FindOptions{}, normalizedConfidence)
		if err != nil {
			return nil, fmt.Errorf("normalized search: %w", err)
		}
		if len(matches) > 0 {
			logger.Info("Tier normalized: %d matches", len(matches))
			return matches, nil
		}
		floored += rejected
	}

	// Tier 4: wildcard pattern from leading significant words.
	matches, rejected, err = s.wildcardTier(ctx, excerpt)
	if err != nil {
		return nil, fmt.Errorf("wildcard search: %w", err)
	}
	if len(matches) > 0 {
		logger.Info("Tier wildcard: %d matches", len(matches))
		return matches, nil
	}
	floored += rejected

	// Tier 5: fuzzy phrase of leading significant words.
	matches, rejected, err = s.fuzzyTier(ctx, excerpt)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	if len(matches) > 0 {
		logger.Info("Tier fuzzy: %d matches", len(matches))
		return matches, nil
	}
	floored += rejected

	if floored > 0 {
		logger.Info("All %d candidates scored below their tier floors", floored)
		return nil, domain.ErrLowConfidence
	}
	logger.Info("No tier produced an acceptable match")
	return []domain.SearchMatch{}, nil
}

// literalTier searches for query verbatim, truncating to the host limit
// when needed. full is the complete excerpt used for confidence scoring;
// long-excerpt candidates are scored against their enclosing paragraph and
// filtered below the paragraph floor. The rejected count reports how many
// raw hits the floor discarded.
func (s *SearchService) literalTier(
	ctx context.Context,
	query, full string,
	shortType, truncType domain.MatchType,
	opts domain.FindOptions,
	baseConfidence int,
) ([]domain.SearchMatch, int, error) {
	limit := s.host.QueryLimit()
	long := len(full) > limit

	matchType := shortType
	if len(query) > limit {
		query = domain.TruncateAtWord(query, limit)
		matchType = truncType
		logger.Debug("Query truncated to %d bytes at word boundary", len(query))
	}

	ranges, err := s.host.Search(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	var matches []domain.SearchMatch
	rejected := 0
	for _, r := range ranges {
		m, ok, err := s.scoreCandidate(ctx, r, full, long, matchType, baseConfidence, s.tuning.ParagraphFloor)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			rejected++
			continue
		}
		matches = append(matches, m)
	}

	sortByConfidence(matches)
	return matches, rejected, nil
}

// wildcardTier builds a pattern from the first few significant words joined
// by the wildcard token and accepts candidates scoring at or above the
// wildcard floor against the full excerpt.
func (s *SearchService) wildcardTier(ctx context.Context, excerpt string) ([]domain.SearchMatch, int, error) {
	words := domain.SignificantWords(excerpt, s.tuning.WildcardWords)
	if len(words) < 2 {
		return nil, 0, nil
	}

	pattern := strings.Join(words, "*")
	logger.Debug("Wildcard pattern: %q", pattern)

	ranges, err := s.host.Search(ctx, pattern, domain.FindOptions{MatchWildcards: true})
	if err != nil {
		return nil, 0, err
	}

	var matches []domain.SearchMatch
	rejected := 0
	for _, r := range ranges {
		m, ok, err := s.scoreCandidate(ctx, r, excerpt, true, domain.MatchWildcard, 0, s.tuning.WildcardFloor)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			rejected++
			continue
		}
		matches = append(matches, m)
	}

	sortByConfidence(matches)
	return matches, rejected, nil
}

// fuzzyTier searches for a short literal phrase of leading significant
// words. Accepted confidences are floored to reflect the tier's lower
// precision.
func (s *SearchService) fuzzyTier(ctx context.Context, excerpt string) ([]domain.SearchMatch, int, error) {
	words := domain.SignificantWords(excerpt, s.tuning.FuzzyWords)
	if len(words) == 0 {
		return nil, 0, nil
	}

	phrase := domain.TruncateAtWord(strings.Join(words, " "), s.tuning.FuzzyPhraseMax)
	logger.Debug("Fuzzy phrase: %q", phrase)

	ranges, err := s.host.Search(ctx, phrase, domain.FindOptions{})
	if err != nil {
		return nil, 0, err
	}

	var matches []domain.SearchMatch
	rejected := 0
	for _, r := range ranges {
		m, ok, err := s.scoreCandidate(ctx, r, excerpt, true, domain.MatchFuzzy, 0, s.tuning.FuzzyFloor)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			rejected++
			continue
		}
		if m.Confidence < s.tuning.FuzzyConfidence {
			m.Confidence = s.tuning.FuzzyConfidence
		}
		matches = append(matches, m)
	}

	sortByConfidence(matches)
	return matches, rejected, nil
}

// headingSearch anchors on the section heading, searches for the excerpt's
// trailing phrase after it, and accepts the heading-to-tail span when its
// normalised length is close enough to the excerpt's.
func (s *SearchService) headingSearch(ctx context.Context, excerpt, heading string) ([]domain.SearchMatch, error) {
	headings, err := s.host.Search(ctx, heading, domain.FindOptions{})
	if err != nil {
		return nil, err
	}
	if len(headings) == 0 {
		logger.Debug("Heading %q not found", heading)
		return nil, nil
	}

	tail := domain.TailText(excerpt, min(s.tuning.HeadingTailLen, s.host.QueryLimit()))
	expected := len(domain.Normalize(excerpt))

	docEnd, err := s.host.DocumentEnd(ctx)
	if err != nil {
		return nil, err
	}

	var matches []domain.SearchMatch
	for _, h := range headings {
		scope, err := s.host.Expand(ctx, h, docEnd)
		if err != nil {
			return nil, err
		}

		tails, err := s.host.SearchIn(ctx, scope, tail, domain.FindOptions{})
		if err != nil {
			return nil, err
		}

		for _, t := range tails {
			ord, err := s.host.Compare(ctx, t, h)
			if err != nil {
				return nil, err
			}
			if ord != domain.RangeAfter {
				continue
			}

			cand, err := s.host.Expand(ctx, h, t)
			if err != nil {
				return nil, err
			}
			text, err := s.host.Text(ctx, cand)
			if err != nil {
				return nil, err
			}

			found := len(domain.Normalize(text))
			if !withinTolerance(found, expected, s.tuning.HeadingLengthTol) {
				logger.Debug("Heading span length %d outside tolerance of %d", found, expected)
				continue
			}

			matches = append(matches, domain.SearchMatch{
				Range:      cand,
				Text:       text,
				Context:    snippet(text, s.tuning.ContextLen),
				Confidence: headingConfidence,
				Type:       domain.MatchSectionHeading,
			})
			break // One acceptable span per heading occurrence.
		}
	}

	sortByConfidence(matches)
	return matches, nil
}

// scoreCandidate builds a SearchMatch for a raw hit. Long excerpts are
// scored against the hit's enclosing paragraph; candidates below floor are
// filtered out (treated as low confidence, identical to not found).
func (s *SearchService) scoreCandidate(
	ctx context.Context,
	r domain.Range,
	full string,
	scored bool,
	matchType domain.MatchType,
	baseConfidence, floor int,
) (domain.SearchMatch, bool, error) {
	para, err := s.host.Paragraph(ctx, r)
	if err != nil {
		return domain.SearchMatch{}, false, err
	}
	paraText, err := s.host.Text(ctx, para)
	if err != nil {
		return domain.SearchMatch{}, false, err
	}

	confidence := baseConfidence
	if scored {
		confidence = domain.Similarity(paraText, full)
		if confidence < floor {
			logger.Debug("Candidate at %d scored %d, below floor %d", r.Start, confidence, floor)
			return domain.SearchMatch{}, false, nil
		}
	}

	text, err := s.host.Text(ctx, r)
	if err != nil {
		return domain.SearchMatch{}, false, err
	}

	return domain.SearchMatch{
		Range:      r,
		Text:       text,
		Context:    snippet(paraText, s.tuning.ContextLen),
		Confidence: confidence,
		Type:       matchType,
	}, true, nil
}

// sortByConfidence orders matches by descending confidence, stably so that
// document order breaks ties.
func sortByConfidence(matches []domain.SearchMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
}

// snippet returns at most n bytes of s.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so a multi-byte character is never split.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// withinTolerance reports whether found is within tol (relative) of expected.
func withinTolerance(found, expected int, tol float64) bool {
	diff := found - expected
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= tol*float64(expected)
}
