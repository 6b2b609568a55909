package domain

import "strings"

// Normalize canonicalises typographic variants so that excerpt text and live
// document text can be compared reliably. It maps curly quotes to straight
// quotes, dash variants to hyphens, exotic spaces to regular spaces, the
// ellipsis character to three periods, and newlines to spaces, then collapses
// whitespace runs and trims.
//
// Normalize is pure, total, and idempotent:
// Normalize(Normalize(s)) == Normalize(s) for all s.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch r {
		// Curly double quotes and double primes.
		case '“', '”', '„', '‟', '″', '‶':
			b.WriteByte('"')
		// Curly single quotes and single primes.
		case '‘', '’', '‚', '‛', '′', '‵':
			b.WriteByte('\'')
		// En/em dashes, horizontal bar, minus sign.
		case '‐', '‑', '‒', '–', '—', '―', '−':
			b.WriteByte('-')
		// Non-breaking, figure, narrow and other exotic spaces.
		case ' ', ' ', ' ', ' ', ' ', ' ',
			' ', ' ', ' ', ' ', ' ', ' ',
			'​', ' ', ' ', '　':
			b.WriteByte(' ')
		// Ellipsis.
		case '…':
			b.WriteString("...")
		// All newline variants become a single space.
		case '\n', '\r', ' ', ' ':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	// Collapse whitespace runs and trim.
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity computes a 0-100 confidence score between two text spans.
//
// The score is a containment/word-overlap heuristic, not an edit distance:
// 100 for equality after normalisation, a length ratio when one normalised
// string contains the other, and otherwise the bag-of-words overlap
// (order-insensitive, duplicate-insensitive). Tier acceptance thresholds
// throughout the search engine are calibrated against this exact behaviour,
// so it must not be swapped for Levenshtein or similar.
func Similarity(a, b string) int {
	na := strings.ToLower(Normalize(a))
	nb := strings.ToLower(Normalize(b))

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	// Containment heuristic: score by relative length.
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shorter, longer := len(na), len(nb)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 100 * shorter / longer
	}

	// Bag-of-words overlap.
	setA := wordSet(na)
	setB := wordSet(nb)

	maxSize := len(setA)
	if len(setB) > maxSize {
		maxSize = len(setB)
	}
	if maxSize == 0 {
		return 0
	}

	common := 0
	for w := range setA {
		if setB[w] {
			common++
		}
	}

	return 100 * common / maxSize
}

// wordSet returns the set of whitespace-delimited words in s.
func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// SignificantWords returns up to max words of s that are longer than two
// characters. Short words (articles, prepositions) carry little anchoring
// value and are skipped.
func SignificantWords(s string, max int) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) <= 2 {
			continue
		}
		words = append(words, w)
		if len(words) == max {
			break
		}
	}
	return words
}

// TruncateAtWord truncates s to at most limit bytes, cutting at the last
// word boundary before the limit. Returns s unchanged when it already fits.
func TruncateAtWord(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}

	cut := s[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// HeadText returns the first n bytes of s cut at a word boundary.
func HeadText(s string, n int) string {
	return TruncateAtWord(s, n)
}

// TailText returns the last n bytes of s, cut forward to the first word
// boundary so the result starts on a whole word.
func TailText(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}

	tail := s[len(s)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// MiddleText returns roughly n bytes centred on the textual midpoint of s,
// cut to word boundaries. Used for interior validation of resolved ranges.
func MiddleText(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}

	start := (len(s) - n) / 2
	mid := s[start : start+n]

	// Trim partial words on both ends.
	if idx := strings.IndexByte(mid, ' '); idx >= 0 {
		mid = mid[idx+1:]
	}
	if idx := strings.LastIndexByte(mid, ' '); idx > 0 {
		mid = mid[:idx]
	}
	return strings.TrimSpace(mid)
}
