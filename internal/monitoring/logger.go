package monitoring

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog with the event helpers the service logs through.
type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON to stdout at level.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo writes JSON to w at level.
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs one HTTP request.
func (l *Logger) RequestLogger(requestID, method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// BlendLogger logs a scored batch.
func (l *Logger) BlendLogger(records, rated, capped int, meanScore float64, duration time.Duration) {
	l.Info("Evaluations Scored",
		"records", records,
		"rated", rated,
		"capped", capped,
		"mean_final_score", meanScore,
		"duration_ms", duration.Milliseconds(),
	)
}

// LayoutLogger logs a word cloud layout run.
func (l *Logger) LayoutLogger(strategy string, requested, placed int, width, height float64, duration time.Duration, cacheHit bool) {
	l.Info("Layout Completed",
		"strategy", strategy,
		"requested", requested,
		"placed", placed,
		"dropped", requested-placed,
		"width", width,
		"height", height,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// CacheLogger logs a response cache lookup.
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	if len(key) > 8 {
		key = key[:8] + "..."
	}
	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", key,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SecurityLogger logs a rejected or suspicious request.
func (l *Logger) SecurityLogger(event, ip string, details map[string]any) {
	attrs := []any{"event", event, "ip", ip}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}
	l.Warn("Security Event", attrs...)
}

// SystemLogger logs lifecycle events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
