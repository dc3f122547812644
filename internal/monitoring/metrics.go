package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const responseSamples = 1000

// Metrics holds in-process counters exposed on /metrics.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64

	BlendCount   int64
	RatedBlends  int64
	CappedBlends int64

	LayoutCount  int64
	WordsPlaced  int64
	WordsDropped int64

	RateLimitBlocks int64

	StartTime time.Time

	responseTimes []time.Duration
	responseMu    sync.RWMutex

	byStatus map[int]int64
	statusMu sync.RWMutex

	byStrategy map[string]int64
	strategyMu sync.RWMutex
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, responseSamples),
		byStatus:      make(map[int]int64),
		byStrategy:    make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest()        { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()          { atomic.AddInt64(&m.ErrorCount, 1) }
func (m *Metrics) IncrementCacheHit()       { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss()      { atomic.AddInt64(&m.CacheMisses, 1) }
func (m *Metrics) IncrementRateLimitBlock() { atomic.AddInt64(&m.RateLimitBlocks, 1) }

// RecordBlend counts one blended record.
func (m *Metrics) RecordBlend(rated, capped bool) {
	atomic.AddInt64(&m.BlendCount, 1)
	if rated {
		atomic.AddInt64(&m.RatedBlends, 1)
	}
	if capped {
		atomic.AddInt64(&m.CappedBlends, 1)
	}
}

// RecordLayout counts one layout run and how many words it kept.
func (m *Metrics) RecordLayout(strategy string, requested, placed int) {
	atomic.AddInt64(&m.LayoutCount, 1)
	atomic.AddInt64(&m.WordsPlaced, int64(placed))
	atomic.AddInt64(&m.WordsDropped, int64(requested-placed))

	m.strategyMu.Lock()
	m.byStrategy[strategy]++
	m.strategyMu.Unlock()
}

// RecordResponseTime keeps the last responseSamples durations for percentiles.
func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.responseMu.Lock()
	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > responseSamples {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseMu.Unlock()
}

// RecordRequestByStatus counts a response status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	m.byStatus[statusCode]++
	m.statusMu.Unlock()
}

// PercentileResponseTime returns the pth percentile (0-100) of recent responses.
func (m *Metrics) PercentileResponseTime(p float64) time.Duration {
	m.responseMu.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.responseMu.RUnlock()

	if len(times) == 0 {
		return 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	idx := int(float64(len(times)-1) * p / 100.0)
	return times[min(max(idx, 0), len(times)-1)]
}

// StatusCodeDistribution returns a copy of the per-status counters.
func (m *Metrics) StatusCodeDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	out := make(map[int]int64, len(m.byStatus))
	for code, n := range m.byStatus {
		out[code] = n
	}
	return out
}

// StrategyDistribution returns a copy of the per-strategy layout counters.
func (m *Metrics) StrategyDistribution() map[string]int64 {
	m.strategyMu.RLock()
	defer m.strategyMu.RUnlock()

	out := make(map[string]int64, len(m.byStrategy))
	for s, n := range m.byStrategy {
		out[s] = n
	}
	return out
}

// GetStats returns a snapshot of every metric.
func (m *Metrics) GetStats() map[string]any {
	requests := atomic.LoadInt64(&m.RequestCount)
	errs := atomic.LoadInt64(&m.ErrorCount)
	hits := atomic.LoadInt64(&m.CacheHits)
	misses := atomic.LoadInt64(&m.CacheMisses)
	placed := atomic.LoadInt64(&m.WordsPlaced)
	dropped := atomic.LoadInt64(&m.WordsDropped)

	return map[string]any{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errs,
		"error_rate_percent":     percent(errs, requests),
		"cache_hits":             hits,
		"cache_misses":           misses,
		"cache_hit_rate_percent": percent(hits, hits+misses),
		"rate_limit_blocks":      atomic.LoadInt64(&m.RateLimitBlocks),

		"blends":        atomic.LoadInt64(&m.BlendCount),
		"rated_blends":  atomic.LoadInt64(&m.RatedBlends),
		"capped_blends": atomic.LoadInt64(&m.CappedBlends),

		"layouts":              atomic.LoadInt64(&m.LayoutCount),
		"words_placed":         placed,
		"words_dropped":        dropped,
		"drop_rate_percent":    percent(dropped, placed+dropped),
		"layouts_by_strategy":  m.StrategyDistribution(),
		"p50_response_time_ms": float64(m.PercentileResponseTime(50)) / float64(time.Millisecond),
		"p95_response_time_ms": float64(m.PercentileResponseTime(95)) / float64(time.Millisecond),
		"p99_response_time_ms": float64(m.PercentileResponseTime(99)) / float64(time.Millisecond),

		"status_code_distribution": m.StatusCodeDistribution(),
	}
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Reset zeroes every counter (tests).
func (m *Metrics) Reset() {
	for _, p := range []*int64{
		&m.RequestCount, &m.ErrorCount, &m.CacheHits, &m.CacheMisses,
		&m.BlendCount, &m.RatedBlends, &m.CappedBlends,
		&m.LayoutCount, &m.WordsPlaced, &m.WordsDropped, &m.RateLimitBlocks,
	} {
		atomic.StoreInt64(p, 0)
	}

	m.responseMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseMu.Unlock()

	m.statusMu.Lock()
	m.byStatus = make(map[int]int64)
	m.statusMu.Unlock()

	m.strategyMu.Lock()
	m.byStrategy = make(map[string]int64)
	m.strategyMu.Unlock()

	m.StartTime = time.Now()
}
