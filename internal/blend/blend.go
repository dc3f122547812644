package blend

import "math"

var (
	// weight floor for the automated score, in raw (pre-normalization) space
	minAutomaticWeight = 0.1
	automaticScale     = 0.4
	userScale          = 0.6
	// agreement bonus is at most 10% of the combined score
	agreementScale = 0.1
	maxRating      = 5.0
)

// Input is the numeric triple every caller maps its record into.
type Input struct {
	AutomatedScore      float64  `json:"automatedScore"`
	UserRating          *float64 `json:"userRating"`
	ExpertiseMultiplier float64  `json:"expertiseMultiplier"`
}

// Result holds every intermediate of a blend so views can explain the final score.
type Result struct {
	NormalizedRating    *float64 `json:"normalizedRating"`
	AutomaticConfidence float64  `json:"automaticConfidence"`
	AutomaticWeight     float64  `json:"automaticWeight"`
	UserWeight          float64  `json:"userWeight"`
	Agreement           float64  `json:"agreement"`
	AgreementBonus      float64  `json:"agreementBonus"`
	CombinedScore       float64  `json:"combinedScore"`
	FinalScore          float64  `json:"finalScore"`
	IsCapped            bool     `json:"isCapped"`
}

// HasRating reports whether a human rating took part in the blend.
func (r Result) HasRating() bool { return r.NormalizedRating != nil }

// Confidence is the U-shaped curve 1 - ((s-0.5)*2)^2: 1 at s=0.5, 0 at both extremes.
func Confidence(automatedScore float64) float64 {
	d := (automatedScore - 0.5) * 2
	return 1 - d*d
}

// Blend combines an automated score with an expertise-weighted human rating.
// Inputs are expected to be in range already; see Sanitize.
func Blend(automatedScore float64, userRating *float64, expertiseMultiplier float64) Result {
	conf := Confidence(automatedScore)
	if userRating == nil {
		return Result{
			AutomaticConfidence: conf,
			AutomaticWeight:     1,
			UserWeight:          0,
			CombinedScore:       automatedScore,
			FinalScore:          automatedScore,
		}
	}

	normalized := *userRating / maxRating

	rawAuto := math.Max(minAutomaticWeight, automaticScale*conf)
	rawUser := userScale * expertiseMultiplier
	autoWeight := rawAuto / (rawAuto + rawUser)
	userWeight := 1 - autoWeight

	adjusted := math.Min(1, normalized*expertiseMultiplier)
	combined := automatedScore*autoWeight + adjusted*userWeight

	agreement := 1 - math.Abs(automatedScore-normalized)
	bonus := agreement * agreementScale

	boosted := combined * (1 + bonus)

	return Result{
		NormalizedRating:    &normalized,
		AutomaticConfidence: conf,
		AutomaticWeight:     autoWeight,
		UserWeight:          userWeight,
		Agreement:           agreement,
		AgreementBonus:      bonus,
		CombinedScore:       combined,
		FinalScore:          math.Min(1, boosted),
		IsCapped:            boosted > 1,
	}
}

// Blend runs Blend on the triple.
func (in Input) Blend() Result {
	return Blend(in.AutomatedScore, in.UserRating, in.ExpertiseMultiplier)
}

// Sanitize clamps a triple into its documented domain. NaN scores become 0,
// NaN ratings are treated as absent and a NaN multiplier falls back to 1.
func Sanitize(in Input) Input {
	out := Input{
		AutomatedScore:      clip(nanTo(in.AutomatedScore, 0), 0, 1),
		ExpertiseMultiplier: clip(nanTo(in.ExpertiseMultiplier, DefaultMultiplier), DefaultMultiplier, MaxMultiplier),
	}
	if in.UserRating != nil && !math.IsNaN(*in.UserRating) {
		r := clip(*in.UserRating, 0, maxRating)
		out.UserRating = &r
	}
	return out
}

func nanTo(x, fallback float64) float64 {
	if math.IsNaN(x) {
		return fallback
	}
	return x
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
