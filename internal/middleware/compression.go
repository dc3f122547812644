package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression.
type CompressionConfig struct {
	MinSize      int      `yaml:"min_size"`      // smallest body worth compressing, in bytes
	Level        int      `yaml:"level"`         // gzip level, gzip.HuffmanOnly..gzip.BestCompression
	ContentTypes []string `yaml:"content_types"` // prefixes of compressible content types
}

// DefaultCompressionConfig compresses JSON and the HTML chart pages from 1KB up.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/html",
			"text/plain",
		},
	}
}

// Compression gzips buffered responses for clients that accept it.
type Compression struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompression creates the middleware. An invalid level falls back to the default.
func NewCompression(config CompressionConfig) *Compression {
	if config.Level < gzip.HuffmanOnly || config.Level > gzip.BestCompression {
		config.Level = gzip.DefaultCompression
	}
	c := &Compression{config: config, stats: &CompressionStats{}}
	c.pool.New = func() any {
		gz, _ := gzip.NewWriterLevel(io.Discard, config.Level)
		return gz
	}
	return c
}

// Handler buffers the response and writes it gzipped when the client accepts
// gzip, the content type is listed and the body reaches MinSize.
func (cm *Compression) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !acceptsGzip(c.Request) {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = bw
		defer func() { c.Writer = orig }()

		c.Next()

		cm.flush(orig, bw)
	}
}

func (cm *Compression) flush(w gin.ResponseWriter, bw *bufferedWriter) {
	w.Header().Add("Vary", "Accept-Encoding")
	w.WriteHeader(bw.status)

	body := bw.buf.Bytes()
	if len(body) == 0 {
		if bw.written {
			w.WriteHeaderNow()
		}
		return
	}

	if len(body) < cm.config.MinSize || !cm.compressible(w.Header()) {
		cm.stats.record(len(body), len(body), false)
		_, _ = w.Write(body)
		return
	}

	var out bytes.Buffer
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(&out)
	_, err := gz.Write(body)
	if err == nil {
		err = gz.Close()
	}
	cm.pool.Put(gz)
	if err != nil {
		cm.stats.record(len(body), len(body), false)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	cm.stats.record(len(body), out.Len(), true)
	_, _ = w.Write(out.Bytes())
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func (cm *Compression) compressible(h http.Header) bool {
	if h.Get("Content-Encoding") != "" {
		return false
	}
	contentType := h.Get("Content-Type")
	for _, ct := range cm.config.ContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

// GetStats returns compression statistics.
func (cm *Compression) GetStats() map[string]any {
	return cm.stats.GetStats()
}

// bufferedWriter holds the status and body until the handler chain returns.
type bufferedWriter struct {
	gin.ResponseWriter
	buf     bytes.Buffer
	status  int
	written bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.written {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() { w.written = true }

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.written = true
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Written() bool { return w.written }

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.buf.Len()
}

// CompressionStats tracks compression statistics.
type CompressionStats struct {
	mu                 sync.RWMutex
	TotalResponses     int64
	CompressedCount    int64
	TotalBytes         int64
	CompressedBytesIn  int64
	CompressedBytesOut int64
}

func (cs *CompressionStats) record(original, written int, compressed bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.TotalResponses++
	cs.TotalBytes += int64(original)
	if compressed {
		cs.CompressedCount++
		cs.CompressedBytesIn += int64(original)
		cs.CompressedBytesOut += int64(written)
	}
}

// GetStats returns current compression statistics.
func (cs *CompressionStats) GetStats() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	ratio := 0.0
	if cs.CompressedBytesIn > 0 {
		ratio = float64(cs.CompressedBytesOut) / float64(cs.CompressedBytesIn)
	}

	return map[string]any{
		"total_responses":      cs.TotalResponses,
		"compressed_responses": cs.CompressedCount,
		"total_bytes":          cs.TotalBytes,
		"bytes_saved":          cs.CompressedBytesIn - cs.CompressedBytesOut,
		"compression_ratio":    ratio,
	}
}
