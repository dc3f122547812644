package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/extraction-eval/internal/cache"
	"github.com/ZanzyTHEbar/extraction-eval/internal/config"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/evaluation"
	"github.com/ZanzyTHEbar/extraction-eval/internal/middleware"
	"github.com/ZanzyTHEbar/extraction-eval/internal/monitoring"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ratelimit"
	"github.com/ZanzyTHEbar/extraction-eval/internal/security"
	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

// server holds the long-lived dependencies shared by all handlers.
type server struct {
	cfg         *config.Config
	logger      *monitoring.Logger
	metrics     *monitoring.Metrics
	cache       *cache.Cache
	compression *middleware.Compression
	security    *security.Middleware
	shared      *ratelimit.Limiter
	scorer      *evaluation.Service
	analyzer    sentiment.Analyzer
	frequency   wordcloud.FrequencyOptions
	started     time.Time
}

func newServer(cfg *config.Config, logger *monitoring.Logger) *server {
	metrics := monitoring.NewMetrics()
	return &server{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		cache:       cache.New(cfg.CacheTTL, cfg.CacheMaxEntries),
		compression: middleware.NewCompression(cfg.Compression),
		security:    security.NewMiddleware(cfg.Security, metrics, logger),
		scorer: evaluation.NewService(logger.Logger,
			evaluation.WithExpertise(cfg.ExpertiseTable()),
			evaluation.WithRecorder(metrics),
		),
		analyzer:  sentiment.DefaultLexicon(),
		frequency: cfg.FrequencyOptions(),
		started:   time.Now(),
	}
}

// useRedis shares the per-IP budget across replicas through client.
func (s *server) useRedis(client *ratelimit.RedisClient) {
	s.shared = ratelimit.NewLimiter(client, s.cfg.Security.MaxRequestsPerMin)
	s.security.UseSharedLimiter(s.shared)
}

// router wires middleware and routes. Middleware order matters: the request
// ID must exist before anything logs, and the error handler must sit inside
// monitoring so the recorded status is the rendered one.
func (s *server) router() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(s.compression.Handler())
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	r.Use(security.SecurityHeaders())
	r.Use(s.security.CORS())
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.LimitBody)
	r.Use(s.security.ValidateContentType)
	r.Use(s.security.RateLimitByIP)

	r.Use(s.cache.Middleware(s.metrics, s.logger, "/wordcloud/layout", "/debug/wordcloud"))

	r.GET("/health", s.health)
	r.GET("/metrics", s.metricsStats)
	r.GET("/cache/stats", s.cacheStats)

	r.POST("/blend", s.blend)
	r.POST("/evaluations/score", s.scoreEvaluations)

	r.POST("/accuracy/metadata", s.metadataAccuracy)
	r.POST("/accuracy/research-field", s.researchFieldAccuracy)

	r.POST("/wordcloud/entries", s.wordCloudEntries)
	r.POST("/wordcloud/layout", s.wordCloudLayout)

	debug := r.Group("/debug")
	debug.GET("/wordcloud", s.debugWordCloudSample)
	debug.POST("/wordcloud", s.debugWordCloud)
	debug.POST("/scores", s.debugScores)

	return r
}
