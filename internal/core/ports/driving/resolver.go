package driving

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// ResolverService locates the single contiguous live range corresponding to
// an excerpt, including excerpts too long for direct host search.
type ResolverService interface {
	// Resolve returns the validated live range for the excerpt.
	// Fails closed: returns domain.ErrNotFound or domain.ErrValidationFailed
	// rather than an unvalidated range that could corrupt unrelated text.
	Resolve(ctx context.Context, excerpt, sectionHint string) (domain.Range, error)
}
