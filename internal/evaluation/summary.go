package evaluation

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DecileCount is the number of histogram buckets over [0, 1].
const DecileCount = 10

// ComponentSummary aggregates the final scores of one component.
type ComponentSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// Summary describes a scored batch.
type Summary struct {
	Count       int                         `json:"count"`
	Rated       int                         `json:"rated"`
	Capped      int                         `json:"capped"`
	Mean        float64                     `json:"mean"`
	StdDev      float64                     `json:"stdDev"`
	Median      float64                     `json:"median"`
	P90         float64                     `json:"p90"`
	Deciles     []float64                   `json:"deciles"`
	ByComponent map[string]ComponentSummary `json:"byComponent"`
}

// Summarize computes batch statistics over final scores.
func Summarize(scored []ScoredRecord) Summary {
	sum := Summary{
		Count:       len(scored),
		Deciles:     make([]float64, DecileCount),
		ByComponent: make(map[string]ComponentSummary),
	}
	if len(scored) == 0 {
		return sum
	}

	finals := make([]float64, len(scored))
	perComponent := make(map[string][]float64)
	for i, s := range scored {
		finals[i] = s.Result.FinalScore
		if s.Result.HasRating() {
			sum.Rated++
		}
		if s.Result.IsCapped {
			sum.Capped++
		}
		perComponent[s.Record.Component] = append(perComponent[s.Record.Component], s.Result.FinalScore)
	}

	sort.Float64s(finals)
	sum.Mean = stat.Mean(finals, nil)
	if len(finals) > 1 {
		sum.StdDev = stat.StdDev(finals, nil)
	}
	sum.Median = stat.Quantile(0.5, stat.Empirical, finals, nil)
	sum.P90 = stat.Quantile(0.9, stat.Empirical, finals, nil)
	sum.Deciles = deciles(finals)

	for name, values := range perComponent {
		sum.ByComponent[name] = ComponentSummary{
			Count: len(values),
			Mean:  stat.Mean(values, nil),
		}
	}
	return sum
}

// deciles buckets sorted scores into [0,0.1), ..., [0.9,1.0]. The last
// divider sits just above 1 so a perfect score lands in the top bucket.
func deciles(sorted []float64) []float64 {
	dividers := make([]float64, DecileCount+1)
	for i := range dividers {
		dividers[i] = float64(i) / DecileCount
	}
	dividers[DecileCount] = 1 + 1e-9

	clamped := make([]float64, len(sorted))
	for i, v := range sorted {
		clamped[i] = min(max(v, 0), 1)
	}
	return stat.Histogram(nil, dividers, clamped, nil)
}
