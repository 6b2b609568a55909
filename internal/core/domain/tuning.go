package domain

// Tuning holds the engine's acceptance thresholds and phrase sizes.
// The defaults are calibrated against the Similarity scorer's behaviour;
// individual values can be overridden from configuration.
type Tuning struct {
	// ParagraphFloor is the minimum similarity between a candidate's
	// enclosing paragraph and the full excerpt for long-excerpt searches.
	ParagraphFloor int

	// WildcardFloor is the minimum similarity for wildcard-tier candidates.
	WildcardFloor int

	// FuzzyFloor is the minimum similarity for fuzzy-phrase candidates.
	FuzzyFloor int

	// FuzzyConfidence is the floor applied to the reported confidence of
	// accepted fuzzy matches, reflecting the tier's lower precision.
	FuzzyConfidence int

	// WildcardWords is how many leading significant words form the
	// wildcard pattern.
	WildcardWords int

	// FuzzyWords is how many leading significant words form the fuzzy
	// phrase.
	FuzzyWords int

	// FuzzyPhraseMax caps the fuzzy phrase length in bytes.
	FuzzyPhraseMax int

	// HeadingTailLen is how many trailing excerpt bytes are searched for
	// after a heading anchor.
	HeadingTailLen int

	// HeadingLengthTol is the relative length tolerance for
	// heading-anchored resolution (0.25 = 25%).
	HeadingLengthTol float64

	// StartPhraseLen and StartRetryLen size the start anchor phrase and
	// its shorter retry.
	StartPhraseLen int
	StartRetryLen  int

	// EndPhraseLen sizes the end anchor phrase.
	EndPhraseLen int

	// MiddlePhraseLen sizes the interior validation phrase.
	MiddlePhraseLen int

	// LengthTol is the relative length tolerance for full-range
	// validation (0.20 = 20%).
	LengthTol float64

	// ShortCircuitTol stops the end-anchor scan early once a candidate is
	// within this relative distance of the expected length (0.05 = 5%).
	ShortCircuitTol float64

	// EndMatchLen is how many trailing bytes must match during full-range
	// validation.
	EndMatchLen int

	// ContextLen caps the context snippet carried by each match.
	ContextLen int

	// MinFindLen drops diff-derived edits whose find text is shorter than
	// this; very short finds are too likely to match the wrong spot.
	MinFindLen int
}

// DefaultTuning returns the reference thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		ParagraphFloor:   40,
		WildcardFloor:    30,
		FuzzyFloor:       25,
		FuzzyConfidence:  50,
		WildcardWords:    5,
		FuzzyWords:       8,
		FuzzyPhraseMax:   100,
		HeadingTailLen:   80,
		HeadingLengthTol: 0.25,
		StartPhraseLen:   150,
		StartRetryLen:    80,
		EndPhraseLen:     100,
		MiddlePhraseLen:  80,
		LengthTol:        0.20,
		ShortCircuitTol:  0.05,
		EndMatchLen:      50,
		ContextLen:       200,
		MinFindLen:       10,
	}
}
