package services

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// RedlineService converts a legacy whole-section original/revised pair into
// precise, scoped find/replace edits, and renders redline segments for
// preview. Both texts are normalised before diffing so quote and dash
// styles never surface as spurious edits.
type RedlineService struct {
	tuning domain.Tuning
	dmp    *diffmatchpatch.DiffMatchPatch
}

// NewRedlineService creates a new redline service.
func NewRedlineService(tuning domain.Tuning) *RedlineService {
	return &RedlineService{
		tuning: tuning,
		dmp:    diffmatchpatch.New(),
	}
}

// ExtractEdits diffs the original against the revised text and groups each
// deletion with its following insertion into one replacement. Each edit is
// expanded with one significant word of context on both sides so it anchors
// reliably, and edits whose find text is shorter than the minimum are
// dropped: a very short find is too likely to match the wrong spot.
func (s *RedlineService) ExtractEdits(original, revised string) []domain.SectionChange {
	diffs := s.semanticDiff(original, revised)

	var edits []domain.SectionChange
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		if d.Type != diffmatchpatch.DiffDelete {
			// Pure insertions have no anchor text of their own and are
			// skipped; grouped insertions are consumed below.
			continue
		}

		deleted := d.Text
		inserted := ""
		if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
			inserted = diffs[i+1].Text
		}

		if strings.TrimSpace(deleted) == "" && strings.TrimSpace(inserted) == "" {
			continue
		}

		before := contextWord(diffs, i, -1)
		after := contextWord(diffs, i, +1)

		find := strings.TrimSpace(before + deleted + after)
		replace := strings.TrimSpace(before + inserted + after)

		if find == "" || find == replace {
			continue
		}
		if len(find) < s.tuning.MinFindLen {
			logger.Debug("Dropping short edit %q", find)
			continue
		}

		edits = append(edits, domain.SectionChange{
			Find:    find,
			Replace: replace,
		})
	}

	logger.Debug("Extracted %d edits from legacy pair", len(edits))
	return edits
}

// Segments returns the redline between original and revised as ordered
// equal/delete/insert runs, for preview rendering.
func (s *RedlineService) Segments(original, revised string) []domain.RedlineSegment {
	diffs := s.semanticDiff(original, revised)

	segments := make([]domain.RedlineSegment, 0, len(diffs))
	for _, d := range diffs {
		var op domain.RedlineOp
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = domain.RedlineDelete
		case diffmatchpatch.DiffInsert:
			op = domain.RedlineInsert
		default:
			op = domain.RedlineEqual
		}
		segments = append(segments, domain.RedlineSegment{Op: op, Text: d.Text})
	}
	return segments
}

// semanticDiff runs a character diff on the normalised texts and cleans it
// up to word-ish boundaries.
func (s *RedlineService) semanticDiff(original, revised string) []diffmatchpatch.Diff {
	diffs := s.dmp.DiffMain(domain.Normalize(original), domain.Normalize(revised), false)
	return s.dmp.DiffCleanupSemantic(diffs)
}

// contextWord returns one anchoring word from the nearest equal segment in
// the given direction: the last word before the edit, or the first word
// after it, skipping the grouped insertion. Words of one or two characters
// anchor poorly and yield no context.
func contextWord(diffs []diffmatchpatch.Diff, i, dir int) string {
	for j := i + dir; j >= 0 && j < len(diffs); j += dir {
		if diffs[j].Type != diffmatchpatch.DiffEqual {
			continue
		}
		words := strings.Fields(diffs[j].Text)
		if len(words) == 0 {
			return ""
		}
		if dir < 0 {
			if w := words[len(words)-1]; len(w) > 2 {
				return w + " "
			}
			return ""
		}
		if w := words[0]; len(w) > 2 {
			return " " + w
		}
		return ""
	}
	return ""
}
