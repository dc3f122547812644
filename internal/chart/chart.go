package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ZanzyTHEbar/extraction-eval/internal/evaluation"
	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

var sentimentColors = map[sentiment.Category]string{
	sentiment.Positive: "#2e7d32",
	sentiment.Neutral:  "#757575",
	sentiment.Negative: "#c62828",
}

// WordCloudScatter renders placed words as a scatter page, one series per
// dominant sentiment. The y axis is inverted so the picture matches SVG
// coordinates.
func WordCloudScatter(placed []wordcloud.PlacedWord, width, height float64, strategy wordcloud.Strategy) ([]byte, error) {
	series := map[sentiment.Category][]opts.ScatterData{}
	for _, p := range placed {
		symbol := p.Size
		if p.Radius > 0 {
			symbol = p.Radius * 2
		}
		cat := p.DominantSentiment
		if !cat.Valid() {
			cat = sentiment.Neutral
		}
		series[cat] = append(series[cat], opts.ScatterData{
			Name:       p.Word,
			Value:      []interface{}{p.X, p.Y, p.Count},
			SymbolSize: max(1, int(math.Round(symbol))),
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Word Cloud Layout",
			Width:     fmt.Sprintf("%.0fpx", width),
			Height:    fmt.Sprintf("%.0fpx", height+80),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Word Cloud Layout",
			Subtitle: fmt.Sprintf("%s layout, %d words placed on %.0fx%.0f", strategy, len(placed), width, height),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Min: 0, Max: width}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Min: 0, Max: height, Inverse: opts.Bool(true)}),
	)

	for _, cat := range []sentiment.Category{sentiment.Positive, sentiment.Neutral, sentiment.Negative} {
		data, ok := series[cat]
		if !ok {
			continue
		}
		scatter.AddSeries(string(cat), data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}", Position: "inside"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: sentimentColors[cat]}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("render word cloud chart: %w", err)
	}
	return buf.Bytes(), nil
}

// ScoreHistogram renders the decile distribution of final scores as a bar chart.
func ScoreHistogram(sum evaluation.Summary) ([]byte, error) {
	labels := make([]string, len(sum.Deciles))
	data := make([]opts.BarData, len(sum.Deciles))
	for i, count := range sum.Deciles {
		lo := float64(i) / float64(len(sum.Deciles))
		hi := float64(i+1) / float64(len(sum.Deciles))
		labels[i] = fmt.Sprintf("%.1f-%.1f", lo, hi)
		data[i] = opts.BarData{Name: labels[i], Value: count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Final Score Distribution", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Final Score Distribution",
			Subtitle: fmt.Sprintf("%d records, %d rated, %d capped, mean %.3f, median %.3f, p90 %.3f",
				sum.Count, sum.Rated, sum.Capped, sum.Mean, sum.Median, sum.P90),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "final score"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "records"}),
	)
	bar.SetXAxis(labels).
		AddSeries("records", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render score histogram: %w", err)
	}
	return buf.Bytes(), nil
}
