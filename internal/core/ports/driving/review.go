package driving

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// ReviewService orchestrates whole-review operations: batch apply and
// read-only resolution.
type ReviewService interface {
	// ApplyAll applies every pending section of the review, in reverse
	// document order, skipping sections the session has already applied.
	// Failures are collected in the report; successes are committed and
	// never rolled back.
	ApplyAll(ctx context.Context, review *domain.Review, session *domain.ReviewSession, tracking bool) (*domain.ApplyReport, error)

	// DryRun resolves every section's target range without mutating the
	// document.
	DryRun(ctx context.Context, review *domain.Review) ([]domain.SectionResolution, error)
}
