package ingest

import (
	"encoding/json"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
)

// EvaluationRecord is the canonical form of one component evaluation.
type EvaluationRecord struct {
	PaperID        string       `json:"paperId,omitempty"`
	Component      string       `json:"component"`
	Field          string       `json:"field,omitempty"`
	AutomatedScore ScoreSummary `json:"automatedScore"`
	UserRatings    RatingSet    `json:"userRatings"`
	EvaluatorRole  string       `json:"evaluatorRole,omitempty"`
}

// Input maps the record onto a sanitized blend triple.
func (r EvaluationRecord) Input(table blend.ExpertiseTable) blend.Input {
	score, _ := r.AutomatedScore.Mean()
	in := blend.Input{
		AutomatedScore:      score,
		ExpertiseMultiplier: table.Multiplier(r.EvaluatorRole),
	}
	if mean, ok := r.UserRatings.Mean(); ok {
		in.UserRating = &mean
	}
	return blend.Sanitize(in)
}

// wireRecord mirrors every key the upstream service has used.
type wireRecord struct {
	PaperID       string `json:"paperId"`
	Component     string `json:"component"`
	Field         string `json:"field"`
	EvaluatorRole string `json:"evaluatorRole"`

	AutomatedScore  ScoreSummary `json:"automatedScore"`
	AccuracyScores  ScoreSummary `json:"accuracyScores"`
	Scores          ScoreSummary `json:"scores"`
	SimilarityScore ScoreSummary `json:"similarityScore"`

	UserRatings RatingSet `json:"userRatings"`
	Ratings     RatingSet `json:"ratings"`
}

func (w wireRecord) canonical() EvaluationRecord {
	rec := EvaluationRecord{
		PaperID:       w.PaperID,
		Component:     w.Component,
		Field:         w.Field,
		EvaluatorRole: w.EvaluatorRole,
	}

	for _, s := range []ScoreSummary{w.AutomatedScore, w.AccuracyScores, w.Scores, w.SimilarityScore} {
		if _, ok := s.Mean(); ok {
			rec.AutomatedScore = s
			break
		}
	}
	for _, r := range []RatingSet{w.UserRatings, w.Ratings} {
		if _, ok := r.Mean(); ok {
			rec.UserRatings = r
			break
		}
	}
	return rec
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(evaluationSchema))
	})
	return schema, schemaErr
}

// Decode validates a JSON array of evaluation records and resolves legacy
// field names. Schema violations come back as a single payload AppError
// listing every problem.
func Decode(data []byte) ([]EvaluationRecord, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, apperrors.NewInternalError("evaluation schema failed to compile", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, apperrors.NewPayloadError("Malformed evaluation payload", err)
	}
	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			violations[i] = desc.String()
		}
		return nil, apperrors.NewSchemaError(violations)
	}

	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, apperrors.NewPayloadError("Malformed evaluation payload", err)
	}

	records := make([]EvaluationRecord, len(wire))
	for i, w := range wire {
		records[i] = w.canonical()
	}
	return records, nil
}
