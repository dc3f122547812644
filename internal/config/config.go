package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/extraction-eval/internal/accuracy"
	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/middleware"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ratelimit"
	"github.com/ZanzyTHEbar/extraction-eval/internal/security"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

// Layout holds the word cloud defaults applied when a request leaves a
// field unset.
type Layout struct {
	Strategy      string   `yaml:"strategy"`
	MaxWords      int      `yaml:"max_words"`
	Width         float64  `yaml:"width"`
	Height        float64  `yaml:"height"`
	Seed          uint64   `yaml:"seed"`
	MinFontSize   float64  `yaml:"min_font_size"`
	MaxFontSize   float64  `yaml:"max_font_size"`
	MinRadius     float64  `yaml:"min_radius"`
	MaxRadius     float64  `yaml:"max_radius"`
	MinWordLength int      `yaml:"min_word_length"`
	Stopwords     []string `yaml:"extra_stopwords"`
}

// Config is the full service configuration.
type Config struct {
	Port       string `yaml:"port"`
	LogLevel   string `yaml:"log_level"`
	GinMode    string `yaml:"gin_mode"`
	ConfigFile string `yaml:"-"`

	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`

	Security    security.Config              `yaml:"security"`
	Compression middleware.CompressionConfig `yaml:"compression"`

	// Redis is optional; an empty Addr keeps rate limits per replica.
	Redis ratelimit.Options `yaml:"redis"`

	// Expertise overrides or extends the default role multipliers.
	Expertise            map[string]float64            `yaml:"expertise"`
	MetadataWeights      accuracy.MetadataWeights      `yaml:"metadata_weights"`
	ResearchFieldWeights accuracy.ResearchFieldWeights `yaml:"research_field_weights"`
	ResearchFieldTopN    int                           `yaml:"research_field_top_n"`

	Layout Layout `yaml:"layout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                 "8080",
		LogLevel:             "info",
		GinMode:              "release",
		CacheTTL:             15 * time.Minute,
		CacheMaxEntries:      1000,
		Security:             security.DefaultConfig(),
		Compression:          middleware.DefaultCompressionConfig(),
		MetadataWeights:      accuracy.DefaultMetadataWeights(),
		ResearchFieldWeights: accuracy.DefaultResearchFieldWeights(),
		ResearchFieldTopN:    accuracy.DefaultTopN,
		Layout: Layout{
			Strategy:      string(wordcloud.Spiral),
			MaxWords:      100,
			Width:         800,
			Height:        600,
			Seed:          wordcloud.DefaultSeed,
			MinFontSize:   wordcloud.DefaultMinSize,
			MaxFontSize:   wordcloud.DefaultMaxSize,
			MinRadius:     wordcloud.DefaultMinRadius,
			MaxRadius:     wordcloud.DefaultMaxRadius,
			MinWordLength: 3,
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE,
// then individual environment overrides, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigurationError("failed to read .env", err)
	}

	cfg := Default()
	cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	if cfg.ConfigFile != "" {
		if err := cfg.mergeFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("error reading config file %s", path), err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("error parsing config file %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.GinMode = getEnvOrDefault("GIN_MODE", c.GinMode)
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Redis.Password)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Security.AllowedOrigins = splitList(origins)
	}

	var err error
	if c.CacheTTL, err = durationEnv("CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.Security.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", c.Security.RequestTimeout); err != nil {
		return err
	}
	if c.CacheMaxEntries, err = intEnv("CACHE_MAX_ENTRIES", c.CacheMaxEntries); err != nil {
		return err
	}
	if c.Security.MaxRequestsPerMin, err = intEnv("RATE_LIMIT_PER_MIN", c.Security.MaxRequestsPerMin); err != nil {
		return err
	}
	if c.Redis.DB, err = intEnv("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	maxBody, err := intEnv("MAX_BODY_BYTES", int(c.Security.MaxBodyBytes))
	if err != nil {
		return err
	}
	c.Security.MaxBodyBytes = int64(maxBody)
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	problems := map[string]string{}

	if _, err := strconv.Atoi(c.Port); err != nil {
		problems["port"] = "must be numeric"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems["gin_mode"] = "must be one of debug, release, test"
	}
	if err := c.MetadataWeights.Validate(); err != nil {
		problems["metadata_weights"] = err.Error()
	}
	if err := c.ResearchFieldWeights.Validate(); err != nil {
		problems["research_field_weights"] = err.Error()
	}
	if c.ResearchFieldTopN < 1 {
		problems["research_field_top_n"] = "must be at least 1"
	}
	for role, m := range c.Expertise {
		if m < blend.DefaultMultiplier || m > blend.MaxMultiplier {
			problems["expertise."+role] = fmt.Sprintf("must be within [%.0f, %.0f]", blend.DefaultMultiplier, blend.MaxMultiplier)
		}
	}
	if _, ok := wordcloud.ParseStrategy(c.Layout.Strategy); !ok {
		problems["layout.strategy"] = "must be one of spiral, grid, bubble, wave"
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		problems["layout.size"] = "width and height must be positive"
	}
	if c.Layout.MinFontSize <= 0 || c.Layout.MaxFontSize < c.Layout.MinFontSize {
		problems["layout.font_size"] = "need 0 < min_font_size <= max_font_size"
	}
	if c.Layout.MinRadius <= 0 || c.Layout.MaxRadius < c.Layout.MinRadius {
		problems["layout.radius"] = "need 0 < min_radius <= max_radius"
	}
	if c.Security.MaxRequestsPerMin < 1 {
		problems["security.max_requests_per_min"] = "must be at least 1"
	}
	if c.Security.MaxBodyBytes < 1 {
		problems["security.max_body_bytes"] = "must be positive"
	}
	if c.CacheTTL <= 0 {
		problems["cache_ttl"] = "must be positive"
	}
	if c.Compression.MinSize < 0 {
		problems["compression.min_size"] = "must not be negative"
	}
	if c.Redis.DB < 0 {
		problems["redis.db"] = "must not be negative"
	}

	if len(problems) == 0 {
		return nil
	}
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return apperrors.NewConfigurationError(
		"invalid configuration: "+strings.Join(keys, ", "),
		apperrors.NewValidationError("invalid configuration", problems),
	)
}

// ExpertiseTable merges configured overrides onto the default roles.
func (c *Config) ExpertiseTable() blend.ExpertiseTable {
	return blend.DefaultExpertise().Merge(c.Expertise)
}

// FrequencyOptions builds word counting options from the layout section.
func (c *Config) FrequencyOptions() wordcloud.FrequencyOptions {
	opts := wordcloud.DefaultFrequencyOptions()
	if c.Layout.MinWordLength > 0 {
		opts.MinLength = c.Layout.MinWordLength
	}
	for _, w := range c.Layout.Stopwords {
		opts.Stopwords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return opts
}

// LayoutOptions returns the size ranges as wordcloud options.
func (c *Config) LayoutOptions() []wordcloud.Option {
	return []wordcloud.Option{
		wordcloud.WithSizeRange(c.Layout.MinFontSize, c.Layout.MaxFontSize),
		wordcloud.WithRadiusRange(c.Layout.MinRadius, c.Layout.MaxRadius),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, apperrors.NewConfigurationError(fmt.Sprintf("%s is not a duration", key), err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewConfigurationError(fmt.Sprintf("%s is not an integer", key), err)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
