package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driving"
)

const editorTestDoc = "1. TERM\n" +
	"This Agreement continues until terminated. Payment is due within 30 days of invoice.\n" +
	"2. PAYMENT\n" +
	"All fees are payable in euros. Payment is due within 30 days of invoice.\n" +
	"3. NOTICES\n" +
	"Notices must be in writing."

func TestApplyChangesScopedToSection(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	changes := []domain.SectionChange{
		{Find: "Payment is due within 30 days", Replace: "Payment is due within 60 days"},
	}
	applied, err := e.ApplyChanges(context.Background(), "1. TERM", changes,
		driving.EditOptions{Tracking: true, EndHeading: "2. PAYMENT"})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	contents := doc.Contents()
	// Only the occurrence inside section 1 changes.
	assert.Equal(t, 1, strings.Count(contents, "within 60 days"))
	assert.Less(t, strings.Index(contents, "within 60 days"), strings.Index(contents, "2. PAYMENT"))
	assert.Contains(t, contents, "All fees are payable in euros. Payment is due within 30 days of invoice.")
}

func TestApplyChangesRecordsRevisionsWhenTracking(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	changes := []domain.SectionChange{{Find: "30 days", Replace: "60 days"}}
	applied, err := e.ApplyChanges(context.Background(), "1. TERM", changes,
		driving.EditOptions{Tracking: true, EndHeading: "2. PAYMENT"})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	assert.NotEmpty(t, doc.Revisions())
	assert.Empty(t, doc.Marks())
}

func TestApplyChangesFallsBackToManualMarkup(t *testing.T) {
	doc := memdoc.New(editorTestDoc, memdoc.WithoutTracking())
	e := NewEditorService(doc, domain.DefaultTuning())

	changes := []domain.SectionChange{{Find: "30 days", Replace: "60 days"}}
	applied, err := e.ApplyChanges(context.Background(), "1. TERM", changes,
		driving.EditOptions{Tracking: true, EndHeading: "2. PAYMENT"})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	marks := doc.Marks()
	require.Len(t, marks, 1)
	assert.True(t, marks[0].Markup.Underline)
	assert.Equal(t, "#C0392B", marks[0].Markup.Color)
}

func TestApplyChangesNormalizedRetry(t *testing.T) {
	doc := memdoc.New("DEFINITIONS\nthe Supplier's obligation to deliver")
	e := NewEditorService(doc, domain.DefaultTuning())

	// Curly apostrophe in the find text, plain one in the document.
	changes := []domain.SectionChange{
		{Find: "the Supplier’s obligation", Replace: "the Supplier's duty"},
	}
	applied, err := e.ApplyChanges(context.Background(), "DEFINITIONS", changes, driving.EditOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Contains(t, doc.Contents(), "the Supplier's duty to deliver")
}

func TestApplyChangesSkipsUnlocatable(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	changes := []domain.SectionChange{
		{Find: "no such text anywhere", Replace: "x"},
		{Find: "30 days", Replace: "45 days"},
	}
	applied, err := e.ApplyChanges(context.Background(), "1. TERM", changes,
		driving.EditOptions{EndHeading: "2. PAYMENT"})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Contains(t, doc.Contents(), "within 45 days")
}

func TestApplyChangesMissingHeading(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	// A missing heading makes every change unlocatable; the batch reports
	// zero applied rather than failing outright.
	changes := []domain.SectionChange{{Find: "30 days", Replace: "60 days"}}
	applied, err := e.ApplyChanges(context.Background(), "9. ARBITRATION", changes, driving.EditOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, editorTestDoc, doc.Contents())
}

func TestInsertSection(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	content := "2A. DATA PROTECTION\nEach party shall comply with applicable data protection law."
	err := e.InsertSection(context.Background(), "2. PAYMENT", content, driving.EditOptions{Tracking: true})
	require.NoError(t, err)

	contents := doc.Contents()
	assert.Contains(t, contents, content)
	// New content lands after the anchor heading's paragraph and before
	// the payment body.
	assert.Less(t, strings.Index(contents, "2. PAYMENT"), strings.Index(contents, "2A. DATA PROTECTION"))
	assert.Less(t, strings.Index(contents, "2A. DATA PROTECTION"), strings.Index(contents, "All fees are payable"))
}

func TestInsertSectionAnchorMissing(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	err := e.InsertSection(context.Background(), "MISSING HEADING", "content", driving.EditOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocateScopeEndsAtNextHeading(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	// "Payment" appears in section 2's body and heading; scoped to
	// section 1 the only hit is section 1's sentence.
	r, err := e.Locate(context.Background(), "1. TERM", "Payment is due", "2. PAYMENT")
	require.NoError(t, err)

	text, err := doc.Text(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "Payment is due", text)
	assert.Less(t, r.Start, strings.Index(editorTestDoc, "2. PAYMENT"))
}

func TestInsertSectionRefusesDuplicateTitle(t *testing.T) {
	doc := memdoc.New(editorTestDoc)
	e := NewEditorService(doc, domain.DefaultTuning())

	err := e.InsertSection(context.Background(), "1. TERM", "2. PAYMENT\nDuplicate body.", driving.EditOptions{})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, editorTestDoc, doc.Contents())
}
