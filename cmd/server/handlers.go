package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/extraction-eval/internal/accuracy"
	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/evaluation"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ingest"
	"github.com/ZanzyTHEbar/extraction-eval/internal/security"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

// maxCanvas bounds layout requests so a single call cannot ask for an
// arbitrarily large search space.
const maxCanvas = 8192

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// requestError maps body read and decode failures to payload errors.
func requestError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return apperrors.NewPayloadError("Request body is not valid JSON", err)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, requestError(err))
		return false
	}
	return true
}

func readBody(c *gin.Context) ([]byte, bool) {
	data, err := c.GetRawData()
	if err != nil {
		fail(c, requestError(err))
		return nil, false
	}
	return data, true
}

func (s *server) health(c *gin.Context) {
	resp := gin.H{
		"status":         "ok",
		"timestamp":      time.Now().Format(time.RFC3339),
		"version":        version,
		"uptime_seconds": time.Since(s.started).Seconds(),
		"metrics":        s.metrics.GetStats(),
		"rate_limit":     "local",
	}

	if s.shared != nil {
		resp["rate_limit"] = "redis"
		if err := s.shared.HealthCheck(c.Request.Context()); err != nil {
			// local limiters take over, so this degrades rather than fails
			resp["status"] = "degraded"
			resp["redis_error"] = err.Error()
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *server) metricsStats(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	if s.shared != nil {
		stats["rate_limiter"] = s.shared.Stats()
	}
	c.JSON(http.StatusOK, stats)
}

func (s *server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Stats())
}

type blendRequest struct {
	AutomatedScore      *float64 `json:"automatedScore"`
	UserRating          *float64 `json:"userRating"`
	ExpertiseMultiplier *float64 `json:"expertiseMultiplier"`
	EvaluatorRole       string   `json:"evaluatorRole"`
}

type blendResponse struct {
	Input  blend.Input  `json:"input"`
	Result blend.Result `json:"result"`
}

// blend scores a single triple. An explicit expertiseMultiplier wins over
// evaluatorRole; out-of-range values are clipped rather than rejected.
func (s *server) blend(c *gin.Context) {
	var req blendRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.AutomatedScore == nil {
		fail(c, apperrors.NewValidationError("automatedScore is required", map[string]string{
			"automatedScore": "required",
		}))
		return
	}

	multiplier := s.scorer.Expertise().Multiplier(req.EvaluatorRole)
	if req.ExpertiseMultiplier != nil {
		multiplier = *req.ExpertiseMultiplier
	}

	in := blend.Sanitize(blend.Input{
		AutomatedScore:      *req.AutomatedScore,
		UserRating:          req.UserRating,
		ExpertiseMultiplier: multiplier,
	})
	res := in.Blend()
	s.metrics.RecordBlend(res.HasRating(), res.IsCapped)

	c.JSON(http.StatusOK, blendResponse{Input: in, Result: res})
}

type scoreResponse struct {
	Records []evaluation.ScoredRecord `json:"records"`
	Summary evaluation.Summary        `json:"summary"`
}

// scoreBatch decodes raw evaluation JSON and blends every record.
func (s *server) scoreBatch(c *gin.Context) ([]evaluation.ScoredRecord, bool) {
	data, ok := readBody(c)
	if !ok {
		return nil, false
	}

	records, err := ingest.Decode(data)
	if err != nil {
		fail(c, err)
		return nil, false
	}

	scored, err := s.scorer.Score(c.Request.Context(), records)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return scored, true
}

func (s *server) scoreEvaluations(c *gin.Context) {
	start := time.Now()
	scored, ok := s.scoreBatch(c)
	if !ok {
		return
	}

	sum := evaluation.Summarize(scored)
	s.logger.BlendLogger(sum.Count, sum.Rated, sum.Capped, sum.Mean, time.Since(start))

	c.JSON(http.StatusOK, scoreResponse{Records: scored, Summary: sum})
}

type metadataField struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type metadataRequest struct {
	Fields  []metadataField           `json:"fields"`
	Weights *accuracy.MetadataWeights `json:"weights"`
}

type metadataResponse struct {
	Fields    []accuracy.FieldScore    `json:"fields"`
	MeanScore float64                  `json:"meanScore"`
	Weights   accuracy.MetadataWeights `json:"weights"`
}

func (s *server) metadataAccuracy(c *gin.Context) {
	var req metadataRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Fields) == 0 {
		fail(c, apperrors.NewValidationError("at least one field is required", map[string]string{"fields": "empty"}))
		return
	}

	weights := s.cfg.MetadataWeights
	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			fail(c, apperrors.NewValidationError("invalid metadata weights", map[string]string{"weights": err.Error()}))
			return
		}
		weights = *req.Weights
	}

	resp := metadataResponse{Fields: make([]accuracy.FieldScore, len(req.Fields)), Weights: weights}
	var total float64
	for i, f := range req.Fields {
		score := accuracy.ScoreMetadataField(f.Expected, f.Actual, weights)
		score.Field = f.Field
		resp.Fields[i] = score
		total += score.Score
	}
	resp.MeanScore = total / float64(len(req.Fields))

	c.JSON(http.StatusOK, resp)
}

type researchFieldRequest struct {
	GroundTruth string                         `json:"groundTruth"`
	Predictions []string                       `json:"predictions"`
	TopN        int                            `json:"topN"`
	Weights     *accuracy.ResearchFieldWeights `json:"weights"`
}

func (s *server) researchFieldAccuracy(c *gin.Context) {
	var req researchFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	problems := map[string]string{}
	if req.GroundTruth == "" {
		problems["groundTruth"] = "required"
	}
	if req.TopN < 0 {
		problems["topN"] = "must not be negative"
	}
	weights := s.cfg.ResearchFieldWeights
	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			problems["weights"] = err.Error()
		}
		weights = *req.Weights
	}
	if len(problems) > 0 {
		fail(c, apperrors.NewValidationError("invalid research field request", problems))
		return
	}

	topN := req.TopN
	if topN == 0 {
		topN = s.cfg.ResearchFieldTopN
	}

	c.JSON(http.StatusOK, accuracy.ScoreResearchField(req.GroundTruth, req.Predictions, topN, weights))
}

type entriesRequest struct {
	Comments  []wordcloud.Comment `json:"comments"`
	Component string              `json:"component"`
}

type entriesResponse struct {
	Entries  []wordcloud.WordEntry `json:"entries"`
	Comments int                   `json:"comments"`
}

// entriesFrom validates and sanitizes comments, tags them with sentiment and
// counts words.
func (s *server) entriesFrom(c *gin.Context, comments []wordcloud.Comment, component string) ([]wordcloud.WordEntry, bool) {
	problems := map[string]string{}
	clean := make([]wordcloud.Comment, 0, len(comments))
	for i, cm := range comments {
		if err := s.security.ValidateComment(cm.Text); err != nil {
			problems["comments["+strconv.Itoa(i)+"]"] = err.Error()
			continue
		}
		cm.Text = security.SanitizeComment(cm.Text)
		clean = append(clean, cm)
	}
	if len(problems) > 0 {
		fail(c, apperrors.NewValidationError("invalid comments", problems))
		return nil, false
	}

	opts := s.frequency
	opts.Component = component
	return wordcloud.BuildEntries(wordcloud.TagComments(clean, s.analyzer), opts), true
}

func (s *server) wordCloudEntries(c *gin.Context) {
	var req entriesRequest
	if !bindJSON(c, &req) {
		return
	}

	entries, ok := s.entriesFrom(c, req.Comments, req.Component)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entriesResponse{Entries: entries, Comments: len(req.Comments)})
}

// layoutRequest takes either precomputed entries or raw comments. Unset
// canvas, strategy, maxWords and seed fall back to the configured layout.
type layoutRequest struct {
	Entries   []wordcloud.WordEntry `json:"entries"`
	Comments  []wordcloud.Comment   `json:"comments"`
	Component string                `json:"component"`
	Width     float64               `json:"width"`
	Height    float64               `json:"height"`
	Strategy  string                `json:"strategy"`
	MaxWords  *int                  `json:"maxWords"`
	Seed      *uint64               `json:"seed"`
}

type layoutResponse struct {
	Strategy  wordcloud.Strategy     `json:"strategy"`
	Width     float64                `json:"width"`
	Height    float64                `json:"height"`
	Seed      uint64                 `json:"seed"`
	Requested int                    `json:"requested"`
	Dropped   int                    `json:"dropped"`
	Words     []wordcloud.PlacedWord `json:"words"`
}

func (s *server) runLayout(c *gin.Context, req layoutRequest) (layoutResponse, bool) {
	def := s.cfg.Layout
	resp := layoutResponse{Width: def.Width, Height: def.Height, Seed: def.Seed}

	problems := map[string]string{}
	if req.Width < 0 || req.Width > maxCanvas {
		problems["width"] = fmt.Sprintf("must be within (0, %d]", maxCanvas)
	} else if req.Width > 0 {
		resp.Width = req.Width
	}
	if req.Height < 0 || req.Height > maxCanvas {
		problems["height"] = fmt.Sprintf("must be within (0, %d]", maxCanvas)
	} else if req.Height > 0 {
		resp.Height = req.Height
	}
	maxWords := def.MaxWords
	if req.MaxWords != nil {
		if *req.MaxWords < 0 {
			problems["maxWords"] = "must not be negative"
		}
		maxWords = *req.MaxWords
	}
	if len(problems) > 0 {
		fail(c, apperrors.NewValidationError("invalid layout request", problems))
		return layoutResponse{}, false
	}
	if req.Seed != nil {
		resp.Seed = *req.Seed
	}

	name := req.Strategy
	if name == "" {
		name = def.Strategy
	}
	strategy, known := wordcloud.ParseStrategy(name)
	if !known {
		s.logger.Warn("Unknown layout strategy, using spiral", "strategy", name)
	}
	resp.Strategy = strategy

	entries := req.Entries
	if len(entries) == 0 && len(req.Comments) > 0 {
		var ok bool
		if entries, ok = s.entriesFrom(c, req.Comments, req.Component); !ok {
			return layoutResponse{}, false
		}
	}

	start := time.Now()
	opts := append(s.cfg.LayoutOptions(), wordcloud.WithSeed(resp.Seed))
	resp.Words = wordcloud.Layout(entries, resp.Width, resp.Height, strategy, maxWords, opts...)
	resp.Requested = eligible(entries, maxWords)
	resp.Dropped = resp.Requested - len(resp.Words)

	s.metrics.RecordLayout(string(strategy), resp.Requested, len(resp.Words))
	s.logger.LayoutLogger(string(strategy), resp.Requested, len(resp.Words), resp.Width, resp.Height, time.Since(start), false)

	return resp, true
}

// eligible counts the entries a layout will try to place.
func eligible(entries []wordcloud.WordEntry, maxWords int) int {
	n := 0
	for _, e := range entries {
		if e.Count >= 1 && e.Word != "" {
			n++
		}
	}
	if maxWords > 0 && n > maxWords {
		return maxWords
	}
	return n
}

func (s *server) wordCloudLayout(c *gin.Context) {
	var req layoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, ok := s.runLayout(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}
