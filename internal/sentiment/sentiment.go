package sentiment

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Category is the coarse sentiment bucket of a comment or word.
type Category string

const (
	Positive Category = "positive"
	Neutral  Category = "neutral"
	Negative Category = "negative"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	return c == Positive || c == Neutral || c == Negative
}

// Result is the outcome of analysing one text.
type Result struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"` // [-1, 1]
}

// Analyzer tags free text with a sentiment category and score.
type Analyzer interface {
	Analyze(text string) Result
}

// Lexicon is a word-list analyzer. A negator flips the polarity of the next
// sentiment word within the same comment.
type Lexicon struct {
	positive  map[string]struct{}
	negative  map[string]struct{}
	negators  map[string]struct{}
	threshold float64
}

// NewLexicon builds an analyzer from explicit word lists.
func NewLexicon(positive, negative, negators []string, threshold float64) *Lexicon {
	return &Lexicon{
		positive:  toSet(positive),
		negative:  toSet(negative),
		negators:  toSet(negators),
		threshold: threshold,
	}
}

// DefaultLexicon returns a lexicon tuned for reviewer comments on extraction output.
func DefaultLexicon() *Lexicon {
	return NewLexicon(defaultPositive, defaultNegative, defaultNegators, 0.1)
}

// Analyze scores text as (positive - negative) / matched words.
func (l *Lexicon) Analyze(text string) Result {
	var pos, neg int
	negate := false

	for _, tok := range tokenize(text) {
		if _, ok := l.negators[tok]; ok {
			negate = true
			continue
		}
		_, isPos := l.positive[tok]
		_, isNeg := l.negative[tok]
		if !isPos && !isNeg {
			continue
		}
		if negate {
			isPos, isNeg = isNeg, isPos
			negate = false
		}
		if isPos {
			pos++
		} else {
			neg++
		}
	}

	matched := pos + neg
	if matched == 0 {
		return Result{Category: Neutral}
	}

	score := float64(pos-neg) / float64(matched)
	switch {
	case score > l.threshold:
		return Result{Category: Positive, Score: score}
	case score < -l.threshold:
		return Result{Category: Negative, Score: score}
	default:
		return Result{Category: Neutral, Score: score}
	}
}

func tokenize(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[strings.ToLower(w)] = struct{}{}
	}
	return out
}

var defaultPositive = []string{
	"accurate", "correct", "good", "great", "excellent", "precise", "complete",
	"clear", "helpful", "useful", "relevant", "reliable", "consistent", "perfect",
	"nice", "well", "right", "comprehensive", "solid", "impressive", "appropriate",
}

var defaultNegative = []string{
	"wrong", "incorrect", "missing", "bad", "poor", "inaccurate", "incomplete",
	"irrelevant", "confusing", "unclear", "error", "errors", "broken", "useless",
	"misleading", "inconsistent", "vague", "duplicate", "hallucinated", "mismatch",
	"fails", "failed", "garbled",
}

var defaultNegators = []string{
	"not", "no", "never", "hardly", "isn't", "wasn't", "doesn't", "didn't", "don't", "aren't",
}
