package ingest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
)

func TestRatingSet_Unmarshal(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		format RatingFormat
		mean   float64
		ok     bool
		count  int
	}{
		{name: "array", json: `[4, 5, 3]`, format: ArrayFormat, mean: 4, ok: true, count: 3},
		{name: "object", json: `{"mean": 4, "count": 3}`, format: ObjectFormat, mean: 4, ok: true, count: 3},
		{name: "object without count", json: `{"mean": 2.5}`, format: ObjectFormat, mean: 2.5, ok: true},
		{name: "object with null mean", json: `{"mean": null, "count": 0}`, format: ObjectFormat},
		{name: "empty array", json: `[]`, format: ArrayFormat},
		{name: "null", json: `null`, format: FormatNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RatingSet
			require.NoError(t, json.Unmarshal([]byte(tt.json), &r))
			assert.Equal(t, tt.format, r.Format)

			mean, ok := r.Mean()
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.mean, mean, 1e-12)
			assert.Equal(t, tt.count, r.Count())
		})
	}
}

func TestRatingSet_UnmarshalRejectsScalars(t *testing.T) {
	var r RatingSet
	assert.Error(t, json.Unmarshal([]byte(`"five"`), &r))
	assert.Error(t, json.Unmarshal([]byte(`4`), &r))
}

func TestRatingSet_FormatsAgree(t *testing.T) {
	var arr, obj RatingSet
	require.NoError(t, json.Unmarshal([]byte(`[4, 5, 3]`), &arr))
	require.NoError(t, json.Unmarshal([]byte(`{"mean": 4, "count": 3}`), &obj))

	a, _ := arr.Mean()
	o, _ := obj.Mean()
	assert.Equal(t, a, o)

	aj, err := json.Marshal(arr)
	require.NoError(t, err)
	oj, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, string(aj), string(oj))
}

func TestScoreSummary_Unmarshal(t *testing.T) {
	var s ScoreSummary
	require.NoError(t, json.Unmarshal([]byte(`{"mean": 0.73}`), &s))
	v, ok := s.Mean()
	assert.True(t, ok)
	assert.Equal(t, 0.73, v)

	require.NoError(t, json.Unmarshal([]byte(`0.4`), &s))
	v, ok = s.Mean()
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	_, ok = s.Mean()
	assert.False(t, ok)

	assert.Error(t, json.Unmarshal([]byte(`"high"`), &s))
}

func TestDecode_ResolvesAliases(t *testing.T) {
	payload := `[
		{"paperId": "p1", "component": "metadata", "field": "title",
		 "accuracyScores": {"mean": 0.8}, "userRatings": [4, 4], "evaluatorRole": "Researcher"},
		{"paperId": "p1", "component": "researchField",
		 "scores": {"mean": 0.6}, "ratings": {"mean": 3, "count": 2}},
		{"paperId": "p2", "component": "metadata",
		 "similarityScore": 0.9},
		{"paperId": "p3", "component": "metadata",
		 "automatedScore": 0.2, "accuracyScores": {"mean": 0.99}}
	]`

	records, err := Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, records, 4)

	score, _ := records[0].AutomatedScore.Mean()
	assert.Equal(t, 0.8, score)
	rating, ok := records[0].UserRatings.Mean()
	assert.True(t, ok)
	assert.Equal(t, 4.0, rating)
	assert.Equal(t, ArrayFormat, records[0].UserRatings.Format)

	score, _ = records[1].AutomatedScore.Mean()
	assert.Equal(t, 0.6, score)
	assert.Equal(t, ObjectFormat, records[1].UserRatings.Format)

	_, ok = records[2].UserRatings.Mean()
	assert.False(t, ok)

	score, _ = records[3].AutomatedScore.Mean()
	assert.Equal(t, 0.2, score, "canonical key wins over legacy ones")
}

func TestDecode_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not an array", payload: `{"component": "metadata"}`},
		{name: "missing component", payload: `[{"automatedScore": 0.5}]`},
		{name: "missing every score key", payload: `[{"component": "metadata"}]`},
		{name: "rating out of range", payload: `[{"component": "metadata", "automatedScore": 0.5, "userRatings": [7]}]`},
		{name: "score of wrong type", payload: `[{"component": "metadata", "scores": "high"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			require.Error(t, err)

			appErr := apperrors.ToAppError(err)
			assert.Equal(t, apperrors.CategoryPayload, appErr.Category)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`[{"component": `))
	require.Error(t, err)
	appErr := apperrors.ToAppError(err)
	assert.Equal(t, apperrors.CategoryPayload, appErr.Category)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestRecord_Input(t *testing.T) {
	table := blend.DefaultExpertise()

	rec := EvaluationRecord{
		Component:      "metadata",
		AutomatedScore: NewScore(0.8),
		UserRatings:    NewRatingValues(4),
		EvaluatorRole:  "professor",
	}
	in := rec.Input(table)
	assert.Equal(t, 0.8, in.AutomatedScore)
	require.NotNil(t, in.UserRating)
	assert.Equal(t, 4.0, *in.UserRating)
	assert.Equal(t, 2.0, in.ExpertiseMultiplier)

	rec = EvaluationRecord{
		Component:      "metadata",
		AutomatedScore: NewScore(1.4),
		UserRatings:    NewRatingSummary(9, 1),
	}
	in = rec.Input(table)
	assert.Equal(t, 1.0, in.AutomatedScore)
	assert.Equal(t, 5.0, *in.UserRating)
	assert.Equal(t, blend.DefaultMultiplier, in.ExpertiseMultiplier)

	in = EvaluationRecord{Component: "metadata", AutomatedScore: NewScore(0.3)}.Input(table)
	assert.Nil(t, in.UserRating)
}
