package evaluation

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ingest"
)

type countingRecorder struct {
	total, rated, capped int
}

func (r *countingRecorder) RecordBlend(rated, capped bool) {
	r.total++
	if rated {
		r.rated++
	}
	if capped {
		r.capped++
	}
}

func record(component string, score float64, rating *float64, role string) ingest.EvaluationRecord {
	rec := ingest.EvaluationRecord{
		Component:      component,
		AutomatedScore: ingest.NewScore(score),
		EvaluatorRole:  role,
	}
	if rating != nil {
		rec.UserRatings = ingest.NewRatingValues(*rating)
	}
	return rec
}

func ptr(v float64) *float64 { return &v }

func TestService_Score(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &countingRecorder{}
	svc := NewService(logger, WithRecorder(rec))

	records := []ingest.EvaluationRecord{
		record("metadata", 0.8, ptr(4), "researcher"),
		record("metadata", 0.73, nil, ""),
		record("researchField", 0.5, ptr(2.5), "professor"),
	}

	scored, err := svc.Score(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, blend.Blend(0.8, ptr(4), 1.5), scored[0].Result)
	assert.True(t, scored[0].Result.IsCapped)
	assert.Equal(t, 0.73, scored[1].Result.FinalScore)
	assert.Equal(t, 2.0, scored[2].Input.ExpertiseMultiplier)

	assert.Equal(t, 3, rec.total)
	assert.Equal(t, 2, rec.rated)
	assert.Equal(t, 1, rec.capped)

	assert.Equal(t, 3, strings.Count(logs.String(), "Blended evaluation"))
}

func TestService_CustomExpertise(t *testing.T) {
	table := blend.DefaultExpertise().Merge(map[string]float64{"Reviewer": 1.3})
	svc := NewService(nil, WithExpertise(table))

	scored, err := svc.Score(context.Background(), []ingest.EvaluationRecord{
		record("metadata", 0.6, ptr(3), "reviewer"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.3, scored[0].Input.ExpertiseMultiplier)
	assert.Equal(t, 1.3, svc.Expertise().Multiplier("Reviewer"))
}

func TestService_ScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil).Score(ctx, []ingest.EvaluationRecord{record("metadata", 0.5, nil, "")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	scored := []ScoredRecord{
		{Record: ingest.EvaluationRecord{Component: "metadata"}, Result: blend.Result{FinalScore: 0.2}},
		{Record: ingest.EvaluationRecord{Component: "metadata"}, Result: blend.Result{FinalScore: 0.4, NormalizedRating: ptr(0.4)}},
		{Record: ingest.EvaluationRecord{Component: "researchField"}, Result: blend.Result{FinalScore: 0.6}},
		{Record: ingest.EvaluationRecord{Component: "researchField"}, Result: blend.Result{FinalScore: 0.8, NormalizedRating: ptr(0.8)}},
		{Record: ingest.EvaluationRecord{Component: "researchField"}, Result: blend.Result{FinalScore: 1.0, NormalizedRating: ptr(1), IsCapped: true}},
	}

	sum := Summarize(scored)

	assert.Equal(t, 5, sum.Count)
	assert.Equal(t, 3, sum.Rated)
	assert.Equal(t, 1, sum.Capped)
	assert.InDelta(t, 0.6, sum.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.1), sum.StdDev, 1e-12)
	assert.InDelta(t, 0.6, sum.Median, 1e-12)
	assert.InDelta(t, 1.0, sum.P90, 1e-12)

	require.Len(t, sum.ByComponent, 2)
	assert.Equal(t, 2, sum.ByComponent["metadata"].Count)
	assert.InDelta(t, 0.3, sum.ByComponent["metadata"].Mean, 1e-12)
	assert.InDelta(t, 0.8, sum.ByComponent["researchField"].Mean, 1e-12)

	require.Len(t, sum.Deciles, DecileCount)
	var total float64
	for _, c := range sum.Deciles {
		total += c
	}
	assert.Equal(t, 5.0, total)
	assert.Equal(t, 1.0, sum.Deciles[9], "a perfect score lands in the top bucket")
	assert.Equal(t, 1.0, sum.Deciles[2])
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	assert.Zero(t, sum.Count)
	assert.Zero(t, sum.Mean)
	assert.Len(t, sum.Deciles, DecileCount)
	assert.NotNil(t, sum.ByComponent)
}

func TestSummarize_Single(t *testing.T) {
	sum := Summarize([]ScoredRecord{{Result: blend.Result{FinalScore: 0.42}}})
	assert.Equal(t, 0.42, sum.Mean)
	assert.Zero(t, sum.StdDev)
	assert.Equal(t, 0.42, sum.Median)
}
