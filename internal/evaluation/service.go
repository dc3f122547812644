package evaluation

import (
	"context"
	"log/slog"

	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ingest"
)

// Recorder receives one event per blended record.
type Recorder interface {
	RecordBlend(rated, capped bool)
}

// ScoredRecord pairs an ingested record with the blend inputs and result.
type ScoredRecord struct {
	Record ingest.EvaluationRecord `json:"record"`
	Input  blend.Input             `json:"input"`
	Result blend.Result            `json:"result"`
}

// Service blends batches of evaluation records.
type Service struct {
	expertise blend.ExpertiseTable
	logger    *slog.Logger
	recorder  Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithExpertise replaces the default role table.
func WithExpertise(table blend.ExpertiseTable) Option {
	return func(s *Service) {
		if len(table) > 0 {
			s.expertise = table
		}
	}
}

// WithRecorder reports every blend to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService builds a Service. A nil logger falls back to slog.Default.
func NewService(logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		expertise: blend.DefaultExpertise(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expertise returns the role table in use.
func (s *Service) Expertise() blend.ExpertiseTable {
	return s.expertise
}

// Score blends every record in order. It stops early only when ctx is done.
func (s *Service) Score(ctx context.Context, records []ingest.EvaluationRecord) ([]ScoredRecord, error) {
	out := make([]ScoredRecord, 0, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.WrapError(err, "scoring stopped at record %d of %d", i, len(records))
		}

		in := rec.Input(s.expertise)
		res := in.Blend()

		s.logger.DebugContext(ctx, "Blended evaluation",
			"paper_id", rec.PaperID,
			"component", rec.Component,
			"field", rec.Field,
			"automated_score", in.AutomatedScore,
			"has_rating", res.HasRating(),
			"expertise_multiplier", in.ExpertiseMultiplier,
			"automatic_weight", res.AutomaticWeight,
			"user_weight", res.UserWeight,
			"agreement_bonus", res.AgreementBonus,
			"final_score", res.FinalScore,
			"capped", res.IsCapped,
		)
		if s.recorder != nil {
			s.recorder.RecordBlend(res.HasRating(), res.IsCapped)
		}

		out = append(out, ScoredRecord{Record: rec, Input: in, Result: res})
	}

	return out, nil
}
