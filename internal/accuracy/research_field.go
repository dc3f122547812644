package accuracy

// ResearchFieldWeights sets how exact-match, top-N and position signals combine.
type ResearchFieldWeights struct {
	ExactMatch float64 `json:"exactMatch" yaml:"exact_match"`
	TopN       float64 `json:"topN" yaml:"top_n"`
	Position   float64 `json:"position" yaml:"position"`
}

// DefaultResearchFieldWeights returns 0.4 / 0.3 / 0.3.
func DefaultResearchFieldWeights() ResearchFieldWeights {
	return ResearchFieldWeights{
		ExactMatch: 0.4,
		TopN:       0.3,
		Position:   0.3,
	}
}

// Sum returns the total of all weights.
func (w ResearchFieldWeights) Sum() float64 {
	return w.ExactMatch + w.TopN + w.Position
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w ResearchFieldWeights) Validate() error {
	return validateWeights(w.Sum(), w.ExactMatch, w.TopN, w.Position)
}

// DefaultTopN is used when a caller passes topN <= 0.
const DefaultTopN = 3

// ResearchFieldScore explains a ranked research-field prediction.
type ResearchFieldScore struct {
	GroundTruth   string  `json:"groundTruth"`
	MatchIndex    int     `json:"matchIndex"` // -1 when the truth is not among the predictions
	ExactMatch    bool    `json:"exactMatch"`
	InTopN        bool    `json:"inTopN"`
	PositionScore float64 `json:"positionScore"`
	Score         float64 `json:"score"`
}

// ScoreResearchField scores a ranked list of predicted research fields against ground truth.
// Comparison is on normalized text.
func ScoreResearchField(groundTruth string, predictions []string, topN int, w ResearchFieldWeights) ResearchFieldScore {
	if topN <= 0 {
		topN = DefaultTopN
	}

	res := ResearchFieldScore{GroundTruth: groundTruth, MatchIndex: -1}
	truth := Normalize(groundTruth)
	if truth == "" {
		return res
	}

	for i, p := range predictions {
		if Normalize(p) == truth {
			res.MatchIndex = i
			break
		}
	}
	if res.MatchIndex < 0 {
		return res
	}

	res.ExactMatch = res.MatchIndex == 0
	res.InTopN = res.MatchIndex < topN
	res.PositionScore = 1 - float64(res.MatchIndex)/float64(len(predictions))

	score := w.Position * res.PositionScore
	if res.ExactMatch {
		score += w.ExactMatch
	}
	if res.InTopN {
		score += w.TopN
	}
	res.Score = clamp01(score)
	return res
}
