// Package matching implements candidate generation, fast matching and
// conflict detection over the supplier and bank registries.
package matching

import (
	"strings"
	"unicode/utf8"
)

// Raw-score constants for the structural similarity components.
const (
	scoreExact     = 1.0
	scorePrefix    = 0.85
	scoreSubstring = 0.75

	// boundedMaxRunes is the ceiling under which BoundedSimilarity may use
	// its fixed-size buffers. Inputs longer than this fall back to the
	// thorough path so the two variants stay semantically identical.
	boundedMaxRunes = 64
)

// Scorer provides the string comparison algorithms shared by the
// candidate generator and the fast matcher. All scores are in [0,1].
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity is the thorough edit-distance ratio, safe for arbitrary
// input: 1 - levenshtein(a,b) / max(len(a), len(b)), computed over runes.
func (s *Scorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// BoundedSimilarity has identical semantics to Similarity but avoids
// per-call allocation for short strings. It exists for the fast matcher's
// per-record loop over trusted catalog names; inputs beyond the bound
// take the thorough path.
func (s *Scorer) BoundedSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if utf8.RuneCountInString(a) > boundedMaxRunes || utf8.RuneCountInString(b) > boundedMaxRunes {
		return s.Similarity(a, b)
	}

	var raBuf, rbBuf [boundedMaxRunes]rune
	ra := appendRunes(raBuf[:0], a)
	rb := appendRunes(rbBuf[:0], b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(boundedLevenshtein(ra, rb))/float64(maxLen)
}

// TokenSetJaccard compares the whitespace-split token sets of two
// normalized names: |intersection| / |union|.
func (s *Scorer) TokenSetJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Containment scores the containment relationship between an input and a
// catalog name. An input that extends the full catalog name is the
// stronger signal; an input that is merely contained in the name (an
// abbreviation of it) scores lower.
func (s *Scorer) Containment(input, name string) float64 {
	if input == "" || name == "" || input == name {
		return 0.0
	}
	if strings.HasPrefix(input, name) {
		return scorePrefix
	}
	if strings.Contains(name, input) || strings.Contains(input, name) {
		return scoreSubstring
	}
	return 0.0
}

// NameScore is the multi-component similarity used when scoring canonical
// names: the best of exact, containment, edit-distance ratio and
// token-set Jaccard.
func (s *Scorer) NameScore(input, name string) float64 {
	if input == name {
		return scoreExact
	}
	best := s.Containment(input, name)
	if sim := s.Similarity(input, name); sim > best {
		best = sim
	}
	if jac := s.TokenSetJaccard(input, name); jac > best {
		best = jac
	}
	return best
}

// levenshtein is the classic two-row dynamic program over rune slices.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// boundedLevenshtein runs the same dynamic program on stack buffers.
// Callers guarantee len(a), len(b) <= boundedMaxRunes.
func boundedLevenshtein(a, b []rune) int {
	var rowBuf, prevBuf [boundedMaxRunes + 1]int
	row, prevRow := rowBuf[:len(b)+1], prevBuf[:len(b)+1]
	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

func appendRunes(dst []rune, s string) []rune {
	for _, r := range s {
		dst = append(dst, r)
	}
	return dst
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, tok := range fields {
		set[tok] = struct{}{}
	}
	return set
}
