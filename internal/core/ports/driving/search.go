package driving

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// SearchService locates excerpt text in the live document through the
// cascading tier strategy.
type SearchService interface {
	// Search returns confidence-scored match candidates for the excerpt,
	// ordered by descending confidence. The optional sectionHint names the
	// heading the excerpt is expected under. An empty result means no tier
	// produced an acceptable candidate.
	Search(ctx context.Context, excerpt, sectionHint string) ([]domain.SearchMatch, error)
}
