// Package scorer rates how well a span of text fuzzily matches a query.
//
// Raw scores come from github.com/sahilm/fuzzy, which rewards matched
// characters that are adjacent, follow a separator or start a camelCase hump,
// and charges one point per unmatched character of the candidate. Its match
// is greedy, so every alignment starting on the query's first rune is scored
// and the best one wins. Scores are
// normalized against the query matched with itself, so a span identical to
// the query scores exactly 1 and everything is clamped to [0, 1].
package scorer

import (
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Scorer scores text against a fixed query. It is safe for concurrent use.
type Scorer struct {
	query     string
	reference float64
}

// New prepares a scorer for query, computing its normalization reference once.
func New(query string) *Scorer {
	s := &Scorer{query: query, reference: 1}
	if ref, _, ok := s.raw(query); ok && ref > 0 {
		s.reference = ref
	}
	return s
}

// Query returns the query this scorer was built for.
func (s *Scorer) Query() string { return s.query }

// Reference is the raw score that normalizes to 1.
func (s *Scorer) Reference() float64 { return s.reference }

// Score returns the normalized score of text in [0, 1] and the byte offsets of
// the matched characters within text. Text that does not contain the query as
// a subsequence scores 0 with no offsets.
func (s *Scorer) Score(text string) (float64, []int) {
	raw, indexes, ok := s.raw(text)
	if !ok {
		return 0, nil
	}
	return Normalize(raw, s.reference), indexes
}

// Normalize maps a raw score onto [0, 1] relative to reference. It is
// monotonic in raw.
func Normalize(raw, reference float64) float64 {
	if reference <= 0 {
		reference = 1
	}
	n := raw / reference
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

func (s *Scorer) raw(text string) (float64, []int, bool) {
	if s.query == "" || text == "" {
		return 0, nil, false
	}
	first, _ := utf8.DecodeRuneInString(s.query)
	first = unicode.ToLower(first)

	var (
		best    float64
		indexes []int
		found   bool
	)
	// fuzzy matches greedily from the left, so try every alignment that
	// starts on the query's first rune and keep the best one.
	for off, r := range text {
		if unicode.ToLower(r) != first {
			continue
		}
		score, idx, ok := s.align(text[off:])
		if !ok {
			// A suffix without a match has no matching suffix either.
			break
		}
		if !found || score > best {
			best, found = score, true
			indexes = idx
			for i := range indexes {
				indexes[i] += off
			}
		}
		if best >= s.reference {
			break
		}
	}
	if !found {
		// fuzzy folds a few runes unicode.ToLower does not.
		return s.align(text)
	}
	return best, indexes, found
}

// align scores the greedy match of the query in text.
func (s *Scorer) align(text string) (float64, []int, bool) {
	matches := fuzzy.Find(s.query, []string{text})
	if len(matches) == 0 {
		return 0, nil, false
	}
	m := matches[0]

	// Undo the per-unmatched-character penalty so long windows are not
	// punished for their length.
	score := float64(m.Score + len(text) - len(m.MatchedIndexes))
	score *= SpreadPenalty(m.MatchedIndexes, len(s.query))
	return score, m.MatchedIndexes, true
}

// SpreadPenalty is 1 when the matched offsets span no more than queryLen
// bytes and queryLen/span otherwise, so scattered matches rank below tight ones.
func SpreadPenalty(indexes []int, queryLen int) float64 {
	if len(indexes) <= 1 || queryLen <= 0 {
		return 1
	}
	lo, hi := indexes[0], indexes[0]
	for _, i := range indexes[1:] {
		lo = min(lo, i)
		hi = max(hi, i)
	}
	spread := float64(hi-lo+1) / float64(queryLen)
	if spread <= 1 {
		return 1
	}
	return 1 / spread
}
