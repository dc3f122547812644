package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/monitoring"
)

// Entry is a cached response body.
type Entry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	storedAt    time.Time
}

func (e *Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is a TTL cache of response bodies bounded to maxEntries.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]*Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache. maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		items:      make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Run evicts expired entries every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep removes expired entries and returns how many it removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Key hashes the parts that identify a request.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a live entry.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e, true
}

// Set stores data under key, evicting the oldest entry when full.
func (c *Cache) Set(key string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.items[key] = &Entry{
		Data:        data,
		ContentType: contentType,
		ExpiresAt:   now.Add(c.ttl),
		storedAt:    now,
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.items {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = key, e.storedAt
		}
	}
	delete(c.items, oldestKey)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Entry)
}

// Size returns the number of stored entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns a snapshot for /cache/stats.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	expired := 0
	for _, e := range c.items {
		if e.expired(now) {
			expired++
		}
	}

	return map[string]any{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"max_items":     c.maxEntries,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware serves repeated POST bodies on the given paths from the cache.
// Only 200 responses are stored.
func (c *Cache) Middleware(metrics *monitoring.Metrics, logger *monitoring.Logger, paths ...string) gin.HandlerFunc {
	cached := make(map[string]bool, len(paths))
	for _, p := range paths {
		cached[p] = true
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || !cached[ctx.FullPath()] {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			_ = ctx.Error(readError(err))
			ctx.Abort()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := Key([]byte(ctx.Request.URL.Path), body)
		if e, ok := c.Get(key); ok {
			metrics.IncrementCacheHit()
			logger.CacheLogger("get", key, true, c.Size())
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, e.ContentType, e.Data)
			ctx.Abort()
			return
		}

		metrics.IncrementCacheMiss()
		logger.CacheLogger("get", key, false, c.Size())
		ctx.Header("X-Cache", "MISS")

		w := &capturingWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w
		ctx.Next()

		if w.Status() == http.StatusOK && w.buf.Len() > 0 {
			c.Set(key, w.buf.Bytes(), w.Header().Get("Content-Type"))
		}
	}
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return apperrors.NewPayloadError("Request body could not be read", err)
}

type capturingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capturingWriter) Write(data []byte) (int, error) {
	w.buf.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
