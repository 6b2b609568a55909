package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

func newReviewService(doc *memdoc.Document, tuning domain.Tuning) *ReviewService {
	search := NewSearchService(doc, tuning)
	resolver := NewResolverService(doc, search, tuning)
	editor := NewEditorService(doc, tuning)
	redline := NewRedlineService(tuning)
	return NewReviewService(doc, search, resolver, editor, redline, tuning)
}

func changesSection(heading, find, replace string) domain.SectionReview {
	return domain.SectionReview{
		Heading: heading,
		Risk:    domain.RiskMedium,
		Kind:    domain.SectionKindChanges,
		Changes: []domain.SectionChange{{Find: find, Replace: replace}},
	}
}

func TestApplyAllAppliesInReverseDocumentOrder(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			changesSection("1. TERM", "within 30 days", "within 60 days"),
			changesSection("2. PAYMENT", "payable in euros", "payable in dollars"),
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	require.Len(t, report.Applied, 2)
	assert.Equal(t, "2. PAYMENT", report.Applied[0].Key)
	assert.Equal(t, "1. TERM", report.Applied[1].Key)
	assert.Empty(t, report.Failed)
	assert.True(t, report.Applied[0].Tracked)

	contents := doc.Contents()
	assert.Contains(t, contents, "Payment is due within 60 days")
	assert.Contains(t, contents, "payable in dollars")
	// Section 2's own "30 days" sentence is outside section 1's scope.
	assert.Contains(t, contents, "dollars. Payment is due within 30 days")

	assert.True(t, session.IsApplied("1. TERM"))
	assert.True(t, session.IsApplied("2. PAYMENT"))
}

func TestApplyAllSkipsAlreadyApplied(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			changesSection("1. TERM", "within 30 days", "within 60 days"),
			changesSection("2. PAYMENT", "payable in euros", "payable in dollars"),
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")
	session.MarkApplied("1. TERM")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"1. TERM"}, report.Skipped)
	require.Len(t, report.Applied, 1)
	assert.Equal(t, "2. PAYMENT", report.Applied[0].Key)

	// The skipped section's text is untouched.
	assert.Contains(t, doc.Contents(), "Payment is due within 30 days of invoice.\n2. PAYMENT")
}

func TestApplyAllCollectsFailures(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			changesSection("7. EXPORT CONTROL", "anything", "something"),
			changesSection("1. TERM", "within 30 days", "within 60 days"),
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "7. EXPORT CONTROL", report.Failed[0].Key)
	assert.NotEmpty(t, report.Failed[0].Reason)

	require.Len(t, report.Applied, 1)
	assert.Equal(t, "1. TERM", report.Applied[0].Key)

	assert.False(t, session.IsApplied("7. EXPORT CONTROL"))
	assert.True(t, session.IsApplied("1. TERM"))
}

func TestApplyAllInsertion(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			{
				Kind: domain.SectionKindInsertion,
				Risk: domain.RiskHigh,
				Insertion: &domain.NewSection{
					Title:       "2A. DATA PROTECTION",
					InsertAfter: "2. PAYMENT",
					Content:     "Each party shall comply with applicable data protection law.",
				},
			},
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	require.Len(t, report.Applied, 1)
	assert.Equal(t, "2A. DATA PROTECTION", report.Applied[0].Key)
	assert.Equal(t, 1, report.Applied[0].Changes)

	contents := doc.Contents()
	assert.Contains(t, contents, "2A. DATA PROTECTION\nEach party shall comply")
	assert.Less(t, strings.Index(contents, "2. PAYMENT"), strings.Index(contents, "2A. DATA PROTECTION"))
	assert.True(t, session.IsApplied("2A. DATA PROTECTION"))
}

func TestApplyAllLegacyWholeRange(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			{
				Heading:      "3. NOTICES",
				Kind:         domain.SectionKindLegacy,
				OriginalText: "Notices must be in writing.",
				RevisedText:  "Notices must be in writing and may be sent by email.",
			},
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	require.Len(t, report.Applied, 1)
	assert.Equal(t, 1, report.Applied[0].Changes)
	assert.Contains(t, doc.Contents(), "Notices must be in writing and may be sent by email.")
}

func TestApplyAllLegacyFallsBackToScopedEdits(t *testing.T) {
	s1 := "The aggregate liability of the Supplier to the Customer under this Agreement shall not exceed the total charges paid by the Customer in the preceding twelve months."
	s3 := "Nothing in this clause limits or excludes the obligation of the Customer to pay the charges due to the Supplier under this Agreement for Services already delivered."

	// The document's middle sentence was rewritten at some point, so the
	// whole-range candidate is far longer than the original text and
	// resolution fails closed; the diff-derived edit in the final sentence
	// still lands.
	original := s1 + " This cap is an aggregate cap. " + s3
	docBody := s1 + " This cap shall not apply to any amounts payable under the indemnity provisions or to losses arising from wilful default or abandonment of the Services. " + s3
	revised := s1 + " This cap is an aggregate cap. " + strings.Replace(s3, "to pay the charges due", "to pay all outstanding charges due", 1)

	doc := memdoc.New("5. LIABILITY\n" + docBody + "\nNEXT SECTION")
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			{
				Heading:      "5. LIABILITY",
				Kind:         domain.SectionKindLegacy,
				OriginalText: original,
				RevisedText:  revised,
			},
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	require.Len(t, report.Applied, 1)
	assert.GreaterOrEqual(t, report.Applied[0].Changes, 1)

	contents := doc.Contents()
	assert.Contains(t, contents, "pay all outstanding charges due")
	// The rewritten middle sentence the original never matched is intact.
	assert.Contains(t, contents, "wilful default or abandonment")
	assert.NotContains(t, contents, "This cap is an aggregate cap.")
}

func TestApplyAllPersistsSession(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	store := memory.NewSessionStore()
	svc.SetSessionStore(store)

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			changesSection("1. TERM", "within 30 days", "within 60 days"),
		},
	}
	session := domain.NewReviewSession("s1", "contract.docx")

	_, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)

	saved, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, saved.IsApplied("1. TERM"))

	// A rerun with the same session applies nothing further.
	report, err := svc.ApplyAll(context.Background(), review, session, true)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Equal(t, []string{"1. TERM"}, report.Skipped)
}

func TestApplyAllInvalidInput(t *testing.T) {
	svc := newReviewService(memdoc.New("text"), domain.DefaultTuning())
	session := domain.NewReviewSession("s1", "doc")

	_, err := svc.ApplyAll(context.Background(), nil, session, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ApplyAll(context.Background(), &domain.Review{ID: "r1"}, nil, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ApplyAll(context.Background(), &domain.Review{ID: "r1"}, session, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDryRunResolvesWithoutMutating(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	svc := newReviewService(doc, domain.DefaultTuning())

	review := &domain.Review{
		ID: "r1",
		Sections: []domain.SectionReview{
			{
				Heading: "1. TERM",
				Kind:    domain.SectionKindChanges,
				Changes: []domain.SectionChange{
					{Find: "within 30 days", Replace: "within 60 days"},
					{Find: "no such text anywhere", Replace: "x"},
				},
			},
			{
				Heading:      "2. PAYMENT",
				Kind:         domain.SectionKindLegacy,
				OriginalText: "All fees are payable in euros.",
				RevisedText:  "All fees are payable in dollars.",
			},
			{
				Kind: domain.SectionKindInsertion,
				Insertion: &domain.NewSection{
					Title:       "2A. DATA PROTECTION",
					InsertAfter: "3. NOTICES",
					Content:     "content",
				},
			},
			changesSection("9. MISSING", "anything", "something"),
		},
	}

	resolutions, err := svc.DryRun(context.Background(), review)
	require.NoError(t, err)
	require.Len(t, resolutions, 4)

	assert.True(t, resolutions[0].Found)
	assert.Equal(t, 50, resolutions[0].Confidence)
	assert.Equal(t, "1 of 2 changes located", resolutions[0].Context)

	assert.True(t, resolutions[1].Found)
	assert.Equal(t, domain.MatchExact, resolutions[1].Type)
	assert.Equal(t, 100, resolutions[1].Confidence)

	assert.True(t, resolutions[2].Found)
	assert.Equal(t, domain.MatchSectionHeading, resolutions[2].Type)

	assert.False(t, resolutions[3].Found)
	assert.NotEmpty(t, resolutions[3].Reason)

	// Nothing moved.
	assert.Equal(t, editorTestDoc, doc.Contents())
	assert.Empty(t, doc.Revisions())
}
