package services

import (
	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
)

// TuningFromConfig builds tuning parameters from configuration, falling back
// to the defaults for any key that is absent.
func TuningFromConfig(cfg driven.ConfigStore) domain.Tuning {
	t := domain.DefaultTuning()
	if cfg == nil {
		return t
	}

	readInt(cfg, "search.paragraph_floor", &t.ParagraphFloor)
	readInt(cfg, "search.wildcard_floor", &t.WildcardFloor)
	readInt(cfg, "search.fuzzy_floor", &t.FuzzyFloor)
	readInt(cfg, "search.fuzzy_confidence", &t.FuzzyConfidence)
	readInt(cfg, "search.wildcard_words", &t.WildcardWords)
	readInt(cfg, "search.fuzzy_words", &t.FuzzyWords)
	readInt(cfg, "search.fuzzy_phrase_max", &t.FuzzyPhraseMax)
	readInt(cfg, "search.heading_tail_len", &t.HeadingTailLen)
	readFloat(cfg, "search.heading_length_tol", &t.HeadingLengthTol)
	readInt(cfg, "resolve.start_phrase_len", &t.StartPhraseLen)
	readInt(cfg, "resolve.start_retry_len", &t.StartRetryLen)
	readInt(cfg, "resolve.end_phrase_len", &t.EndPhraseLen)
	readInt(cfg, "resolve.middle_phrase_len", &t.MiddlePhraseLen)
	readFloat(cfg, "resolve.length_tol", &t.LengthTol)
	readFloat(cfg, "resolve.short_circuit_tol", &t.ShortCircuitTol)
	readInt(cfg, "resolve.end_match_len", &t.EndMatchLen)
	readInt(cfg, "search.context_len", &t.ContextLen)
	readInt(cfg, "edit.min_find_len", &t.MinFindLen)

	return t
}

func readInt(cfg driven.ConfigStore, key string, dst *int) {
	if _, ok := cfg.Get(key); ok {
		*dst = cfg.GetInt(key)
	}
}

func readFloat(cfg driven.ConfigStore, key string, dst *float64) {
	if _, ok := cfg.Get(key); ok {
		*dst = cfg.GetFloat(key)
	}
}
