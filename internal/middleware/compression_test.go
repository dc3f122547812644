package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(cm *Compression) *gin.Engine {
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/big", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(strings.Repeat("<p>word cloud</p>", 200)))
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/binary", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", make([]byte, 4096))
	})
	r.GET("/created", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"payload": strings.Repeat("x", 2048)})
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path string, gzipOK bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if gzipOK {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCompression_GzipsLargeResponses(t *testing.T) {
	cm := NewCompression(DefaultCompressionConfig())
	r := newRouter(cm)

	w := get(r, "/big", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("<p>word cloud</p>", 200), string(body))

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_responses"])
	assert.Positive(t, stats["bytes_saved"])
}

func TestCompression_Passthrough(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		gzipOK bool
		status int
	}{
		{"client without gzip", "/big", false, http.StatusOK},
		{"below min size", "/small", true, http.StatusOK},
		{"content type not listed", "/binary", true, http.StatusOK},
		{"no body", "/empty", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewCompression(DefaultCompressionConfig()))
			w := get(r, tt.path, tt.gzipOK)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}
}

func TestCompression_KeepsStatus(t *testing.T) {
	r := newRouter(NewCompression(DefaultCompressionConfig()))
	w := get(r, "/created", true)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestNewCompression_InvalidLevel(t *testing.T) {
	cfg := DefaultCompressionConfig()
	cfg.Level = 42
	cm := NewCompression(cfg)
	assert.Equal(t, gzip.DefaultCompression, cm.config.Level)
}
