package accuracy

import (
	"fmt"
	"math"
	"unicode"

	"github.com/xrash/smetrics"
)

// MetadataWeights sets how the three string-similarity signals combine.
// Weights must sum to 1.0 (±0.001).
type MetadataWeights struct {
	Levenshtein float64 `json:"levenshtein" yaml:"levenshtein"`
	TokenF1     float64 `json:"tokenF1" yaml:"token_f1"`
	SpecialChar float64 `json:"specialChar" yaml:"special_char"`
}

// DefaultMetadataWeights returns 0.5 / 0.3 / 0.2.
func DefaultMetadataWeights() MetadataWeights {
	return MetadataWeights{
		Levenshtein: 0.5,
		TokenF1:     0.3,
		SpecialChar: 0.2,
	}
}

// Sum returns the total of all weights.
func (w MetadataWeights) Sum() float64 {
	return w.Levenshtein + w.TokenF1 + w.SpecialChar
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w MetadataWeights) Validate() error {
	return validateWeights(w.Sum(), w.Levenshtein, w.TokenF1, w.SpecialChar)
}

func validateWeights(sum float64, ws ...float64) error {
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", sum)
	}
	for _, v := range ws {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}

// FieldScore is the comparison of one extracted metadata field against ground truth.
type FieldScore struct {
	Field       string  `json:"field,omitempty"`
	Expected    string  `json:"expected"`
	Actual      string  `json:"actual"`
	Distance    int     `json:"distance"`
	Levenshtein float64 `json:"levenshtein"`
	TokenF1     float64 `json:"tokenF1"`
	SpecialChar float64 `json:"specialChar"`
	Score       float64 `json:"score"`
}

// LevenshteinSimilarity returns 1 - distance/maxLen on normalized text, with
// the distance and lengths counted in characters (runes).
func LevenshteinSimilarity(expected, actual string) (float64, int) {
	a, b := []rune(Normalize(expected)), []rune(Normalize(actual))
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1, 0
	}
	dist := runeDistance(a, b)
	return clamp01(1 - float64(dist)/float64(longest)), dist
}

// runeDistance is the unit-cost edit distance over runes. smetrics compares
// bytes, so each distinct rune is first mapped to a single byte; inputs with
// more than 256 distinct runes use a plain two-row table instead.
func runeDistance(a, b []rune) int {
	alphabet := make(map[rune]byte)
	encode := func(rs []rune) ([]byte, bool) {
		out := make([]byte, len(rs))
		for i, r := range rs {
			code, ok := alphabet[r]
			if !ok {
				if len(alphabet) == 256 {
					return nil, false
				}
				code = byte(len(alphabet))
				alphabet[r] = code
			}
			out[i] = code
		}
		return out, true
	}

	ea, okA := encode(a)
	eb, okB := encode(b)
	if okA && okB {
		return smetrics.WagnerFischer(string(ea), string(eb), 1, 1, 1)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// TokenF1 is the F1 of token multisets.
func TokenF1(expected, actual string) float64 {
	exp, act := Tokens(expected), Tokens(actual)
	if len(exp) == 0 && len(act) == 0 {
		return 1
	}
	if len(exp) == 0 || len(act) == 0 {
		return 0
	}

	counts := make(map[string]int, len(exp))
	for _, tok := range exp {
		counts[tok]++
	}
	overlap := 0
	for _, tok := range act {
		if counts[tok] > 0 {
			counts[tok]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(act))
	recall := float64(overlap) / float64(len(exp))
	return 2 * precision * recall / (precision + recall)
}

// SpecialCharScore measures how many of the expected punctuation and symbol
// characters survive extraction.
func SpecialCharScore(expected, actual string) float64 {
	exp, act := specialChars(expected), specialChars(actual)
	total := 0
	for _, n := range exp {
		total += n
	}
	if total == 0 {
		if len(act) == 0 {
			return 1
		}
		return 0.5
	}

	kept := 0
	for r, n := range exp {
		kept += min(n, act[r])
	}
	return float64(kept) / float64(total)
}

func specialChars(text string) map[rune]int {
	out := make(map[rune]int)
	for _, r := range Normalize(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		out[r]++
	}
	return out
}

// ScoreMetadataField combines the three signals into one automated score.
func ScoreMetadataField(expected, actual string, w MetadataWeights) FieldScore {
	lev, dist := LevenshteinSimilarity(expected, actual)
	tok := TokenF1(expected, actual)
	sc := SpecialCharScore(expected, actual)

	return FieldScore{
		Expected:    expected,
		Actual:      actual,
		Distance:    dist,
		Levenshtein: lev,
		TokenF1:     tok,
		SpecialChar: sc,
		Score:       clamp01(w.Levenshtein*lev + w.TokenF1*tok + w.SpecialChar*sc),
	}
}
