package wordcloud

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
)

// Comment is a free-text reviewer remark on one evaluated component.
type Comment struct {
	Text          string `json:"text"`
	ComponentName string `json:"componentName"`
}

// TaggedComment is a Comment after sentiment analysis.
type TaggedComment struct {
	Comment
	Sentiment sentiment.Category `json:"sentiment"`
}

// FrequencyOptions controls tokenisation for BuildEntries.
type FrequencyOptions struct {
	MinLength int
	Stopwords map[string]struct{}
	// Component restricts counting to comments on one component when set.
	Component string
}

// DefaultFrequencyOptions drops English stopwords and words shorter than 3 letters.
func DefaultFrequencyOptions() FrequencyOptions {
	stop := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	return FrequencyOptions{MinLength: 3, Stopwords: stop}
}

// TagComments runs every comment through the analyzer.
func TagComments(comments []Comment, analyzer sentiment.Analyzer) []TaggedComment {
	out := make([]TaggedComment, len(comments))
	for i, c := range comments {
		out[i] = TaggedComment{Comment: c, Sentiment: analyzer.Analyze(c.Text).Category}
	}
	return out
}

type tally struct {
	positive, neutral, negative int
}

// BuildEntries counts word occurrences per sentiment and returns them sorted
// by count descending, then word.
func BuildEntries(tagged []TaggedComment, opts FrequencyOptions) []WordEntry {
	counts := make(map[string]*tally)

	for _, c := range tagged {
		if opts.Component != "" && !strings.EqualFold(c.ComponentName, opts.Component) {
			continue
		}
		for _, tok := range wordTokens(c.Text) {
			if utf8.RuneCountInString(tok) < opts.MinLength {
				continue
			}
			if _, stop := opts.Stopwords[tok]; stop {
				continue
			}
			t, ok := counts[tok]
			if !ok {
				t = &tally{}
				counts[tok] = t
			}
			switch c.Sentiment {
			case sentiment.Positive:
				t.positive++
			case sentiment.Negative:
				t.negative++
			default:
				t.neutral++
			}
		}
	}

	entries := make([]WordEntry, 0, len(counts))
	for word, t := range counts {
		entries = append(entries, newEntry(word, t))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Word < entries[j].Word
	})
	return entries
}

func newEntry(word string, t *tally) WordEntry {
	total := t.positive + t.neutral + t.negative
	e := WordEntry{
		Word:          word,
		Count:         total,
		PositiveRatio: float64(t.positive) / float64(total),
		NeutralRatio:  float64(t.neutral) / float64(total),
		NegativeRatio: float64(t.negative) / float64(total),
	}

	// ties resolve to neutral
	switch {
	case t.positive > t.neutral && t.positive > t.negative:
		e.DominantSentiment = sentiment.Positive
	case t.negative > t.neutral && t.negative > t.positive:
		e.DominantSentiment = sentiment.Negative
	default:
		e.DominantSentiment = sentiment.Neutral
	}
	return e
}

func wordTokens(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

var defaultStopwords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had",
	"her", "was", "one", "our", "out", "has", "have", "this", "that", "with",
	"from", "they", "will", "would", "there", "their", "what", "about", "which",
	"when", "been", "were", "into", "than", "them", "then", "some", "very",
	"also", "just", "more", "most", "such", "only", "its", "it's", "isn",
	"does", "did", "should", "could", "these", "those", "being", "because",
}
