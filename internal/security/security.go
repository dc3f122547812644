package security

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/monitoring"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ratelimit"
)

// Config holds the request-hardening limits.
type Config struct {
	MaxBodyBytes      int64         `json:"max_body_bytes" yaml:"max_body_bytes"`
	MaxCommentLength  int           `json:"max_comment_length" yaml:"max_comment_length"`
	MaxRequestsPerMin int           `json:"max_requests_per_min" yaml:"max_requests_per_min"`
	AllowedOrigins    []string      `json:"allowed_origins" yaml:"allowed_origins"`
	RequestTimeout    time.Duration `json:"request_timeout" yaml:"request_timeout"`
	LimiterIdleTTL    time.Duration `json:"limiter_idle_ttl" yaml:"limiter_idle_ttl"`
}

// DefaultConfig returns limits suited to batch evaluation payloads.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:      2 << 20,
		MaxCommentLength:  2000,
		MaxRequestsPerMin: 120,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		RequestTimeout:    30 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SharedLimiter is a rate limit budget shared across replicas.
type SharedLimiter interface {
	AllowIP(ctx context.Context, ip string) (ratelimit.Result, error)
}

// Middleware bundles the security handlers and the per-IP limiter state.
type Middleware struct {
	config  Config
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	shared  SharedLimiter

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
}

// NewMiddleware creates a Middleware. metrics and logger may be nil.
func NewMiddleware(config Config, metrics *monitoring.Metrics, logger *monitoring.Logger) *Middleware {
	return &Middleware{
		config:     config,
		metrics:    metrics,
		logger:     logger,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

// UseSharedLimiter makes RateLimitByIP consult l first. Local limiters still
// answer whenever l returns an error.
func (m *Middleware) UseSharedLimiter(l SharedLimiter) {
	m.shared = l
}

func (m *Middleware) limiterFor(ip string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.ipLimiters[ip]
	if !ok {
		rps := rate.Limit(float64(m.config.MaxRequestsPerMin) / 60.0)
		burst := max(m.config.MaxRequestsPerMin/2, 5)
		l = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		m.ipLimiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter
}

// allow checks the shared budget when there is one, else the local limiter.
func (m *Middleware) allow(ctx context.Context, ip string) (bool, time.Duration) {
	if m.shared != nil {
		res, err := m.shared.AllowIP(ctx, ip)
		if err == nil {
			return res.Allowed, res.RetryAfter
		}
		if m.logger != nil {
			m.logger.Warn("Shared rate limiter failed, using local limiter", "ip", ip, "error", err)
		}
	}
	return m.limiterFor(ip, time.Now()).Allow(), time.Minute
}

// RateLimitByIP rejects clients that exceed MaxRequestsPerMin.
func (m *Middleware) RateLimitByIP(c *gin.Context) {
	ip := c.ClientIP()

	if allowed, retryAfter := m.allow(c.Request.Context(), ip); !allowed {
		if m.metrics != nil {
			m.metrics.IncrementRateLimitBlock()
		}
		if m.logger != nil {
			m.logger.SecurityLogger("rate_limited", ip, map[string]any{"path": c.Request.URL.Path})
		}
		retry := strconv.Itoa(max(1, int(math.Ceil(retryAfter.Seconds()))))
		c.Header("Retry-After", retry)
		_ = c.Error(apperrors.NewRateLimitError(retry + "s"))
		c.Abort()
		return
	}

	c.Next()
}

// Cleanup forgets limiters idle for longer than LimiterIdleTTL, every
// interval, until ctx is done.
func (m *Middleware) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.pruneLimiters(now)
		}
	}
}

func (m *Middleware) pruneLimiters(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for ip, l := range m.ipLimiters {
		if now.Sub(l.lastSeen) > m.config.LimiterIdleTTL {
			delete(m.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

// ValidateContentType requires JSON bodies on POST requests.
func (m *Middleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
		c.Next()
		return
	}

	if !strings.Contains(strings.ToLower(c.GetHeader("Content-Type")), "application/json") {
		_ = c.Error(apperrors.NewUnsupportedMediaTypeError(c.GetHeader("Content-Type")))
		c.Abort()
		return
	}

	c.Next()
}

// LimitBody caps the request body at MaxBodyBytes.
func (m *Middleware) LimitBody(c *gin.Context) {
	if c.Request.ContentLength > m.config.MaxBodyBytes {
		_ = c.Error(apperrors.NewPayloadTooLargeError(m.config.MaxBodyBytes))
		c.Abort()
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.config.MaxBodyBytes)
	c.Next()
}

// RequestTimeout bounds the request context.
func (m *Middleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// CORS builds the gin-contrib CORS handler for the configured origins.
func (m *Middleware) CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     m.config.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders:    []string{monitoring.RequestIDHeader, "X-Cache", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

var (
	errNullByte    = errors.New("comment contains invalid characters")
	errInvalidUTF8 = errors.New("comment contains invalid UTF-8 encoding")

	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ValidateComment rejects reviewer text that cannot be tokenised safely.
func (m *Middleware) ValidateComment(text string) error {
	if n := utf8.RuneCountInString(text); n > m.config.MaxCommentLength {
		return fmt.Errorf("comment exceeds maximum length of %d characters", m.config.MaxCommentLength)
	}
	if strings.ContainsRune(text, 0) {
		return errNullByte
	}
	if !utf8.ValidString(text) {
		return errInvalidUTF8
	}
	return nil
}

// SanitizeComment strips markup from reviewer text before word counting.
func SanitizeComment(text string) string {
	text = scriptPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
