package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// reviewPayload is the JSON shape produced by the upstream analysis.
type reviewPayload struct {
	ID       string           `json:"id"`
	Document string           `json:"document"`
	Sections []sectionPayload `json:"sections"`
}

type sectionPayload struct {
	Heading      string             `json:"heading"`
	RiskLevel    string             `json:"risk_level"`
	Rationale    string             `json:"rationale,omitempty"`
	Changes      []changePayload    `json:"changes,omitempty"`
	OriginalText string             `json:"original_text,omitempty"`
	RevisedText  string             `json:"revised_text,omitempty"`
	NewSection   *newSectionPayload `json:"new_section,omitempty"`
}

type changePayload struct {
	Find      string `json:"find"`
	Replace   string `json:"replace"`
	Rationale string `json:"rationale,omitempty"`
}

type newSectionPayload struct {
	Title       string `json:"title"`
	InsertAfter string `json:"insert_after"`
	Content     string `json:"content"`
	Rationale   string `json:"rationale,omitempty"`
}

// loadReview reads and validates a review payload file.
func loadReview(path string) (*domain.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading review payload: %w", err)
	}
	review, err := parseReview(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return review, nil
}

// parseReview converts payload JSON into the domain model, inferring each
// section's variant from which fields are populated. A section carrying
// scoped changes uses them even when a legacy text pair is also present.
func parseReview(data []byte) (*domain.Review, error) {
	var payload reviewPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:          payload.ID,
		DocumentURI: payload.Document,
		CreatedAt:   time.Now(),
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	for _, sec := range payload.Sections {
		section := domain.SectionReview{
			Heading:   sec.Heading,
			Risk:      domain.RiskLevel(sec.RiskLevel),
			Rationale: sec.Rationale,
		}

		switch {
		case len(sec.Changes) > 0:
			section.Kind = domain.SectionKindChanges
			for _, c := range sec.Changes {
				section.Changes = append(section.Changes, domain.SectionChange{
					Find:      c.Find,
					Replace:   c.Replace,
					Rationale: c.Rationale,
				})
			}
		case sec.NewSection != nil:
			section.Kind = domain.SectionKindInsertion
			section.Insertion = &domain.NewSection{
				Title:       sec.NewSection.Title,
				InsertAfter: sec.NewSection.InsertAfter,
				Content:     sec.NewSection.Content,
				Rationale:   sec.NewSection.Rationale,
			}
		default:
			section.Kind = domain.SectionKindLegacy
			section.OriginalText = sec.OriginalText
			section.RevisedText = sec.RevisedText
		}

		review.Sections = append(review.Sections, section)
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}
	return review, nil
}
