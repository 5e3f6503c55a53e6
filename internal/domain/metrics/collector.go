package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Metric represents a single metric measurement
type Metric struct {
	Name      string                 `json:"name"`
	Value     interface{}            `json:"value"`
	Timestamp time.Time              `json:"timestamp"`
	Tags      map[string]string      `json:"tags,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Metric names
const (
	MetricResponseTime   = "response_time"
	MetricReplyLatency   = "reply_latency"
	MetricSubmission     = "submission"
	MetricReplyDelivered = "reply_delivered"
	MetricReplyCancelled = "reply_cancelled"
	MetricSearch         = "search"
	MetricUnlock         = "secret_unlock"
	MetricRateLimited    = "rate_limited"
	MetricSessionOpened  = "session_opened"
	MetricSessionClosed  = "session_closed"
)

const recentWindow = 20

// SystemMetrics contains aggregated console metrics
type SystemMetrics struct {
	AvgResponseTime int64        `json:"avg_response_time"`
	P95ResponseTime int64        `json:"p95_response_time"`
	P99ResponseTime int64        `json:"p99_response_time"`
	ResponseTimes   []int64      `json:"response_times"`
	AvgReplyLatency int64        `json:"avg_reply_latency"`
	ReplyLatencies  []int64      `json:"reply_latencies"`
	ReplyFlow       ReplyFlow    `json:"reply_flow"`
	Sessions        SessionStats `json:"sessions"`
	Timestamp       time.Time    `json:"timestamp"`
}

// ReplyFlow tracks submissions and their deferred replies
type ReplyFlow struct {
	Submitted   int64            `json:"submitted"`
	Delivered   int64            `json:"delivered"`
	Cancelled   int64            `json:"cancelled"`
	Pending     int64            `json:"pending"`
	RateLimited int64            `json:"rate_limited"`
	Searches    int64            `json:"searches"`
	Unlocks     int64            `json:"unlocks"`
	ByMode      map[string]int64 `json:"by_mode"`
}

// SessionStats tracks session lifecycle
type SessionStats struct {
	Opened int64 `json:"opened"`
	Closed int64 `json:"closed"`
	Active int64 `json:"active"`
}

// Collector aggregates and provides access to console metrics
type Collector struct {
	mu          sync.RWMutex
	metrics     []Metric
	maxMetrics  int
	systemStats *SystemMetrics
	lastUpdate  time.Time
	now         func() time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	c := &Collector{
		maxMetrics: 1000,
		now:        time.Now,
	}
	c.reset()
	return c
}

// RecordMetric adds a new metric measurement
func (c *Collector) RecordMetric(metric Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metric.Timestamp = c.now()
	c.metrics = append(c.metrics, metric)

	// Keep only the most recent metrics
	if len(c.metrics) > c.maxMetrics {
		c.metrics = c.metrics[len(c.metrics)-c.maxMetrics:]
	}

	c.updateSystemStats(metric)
}

// RecordResponseTime records an API response time
func (c *Collector) RecordResponseTime(duration time.Duration) {
	c.RecordMetric(Metric{
		Name:  MetricResponseTime,
		Value: duration.Milliseconds(),
		Tags:  map[string]string{"type": "api"},
	})
}

// RecordSubmission counts a user message that scheduled a reply
func (c *Collector) RecordSubmission(mode string) {
	c.RecordMetric(Metric{
		Name:  MetricSubmission,
		Value: int64(1),
		Tags:  map[string]string{"type": "count", "mode": mode},
	})
}

// RecordReplyDelivered counts a delivered reply and its end-to-end latency
func (c *Collector) RecordReplyDelivered(latency time.Duration) {
	c.RecordMetric(Metric{
		Name:  MetricReplyDelivered,
		Value: int64(1),
		Tags:  map[string]string{"type": "count"},
	})
	c.RecordMetric(Metric{
		Name:  MetricReplyLatency,
		Value: latency.Milliseconds(),
		Tags:  map[string]string{"type": "latency"},
	})
}

// RecordReplyCancelled counts a reply dropped before delivery
func (c *Collector) RecordReplyCancelled() {
	c.RecordMetric(Metric{
		Name:  MetricReplyCancelled,
		Value: int64(1),
		Tags:  map[string]string{"type": "count"},
	})
}

// RecordRateLimited counts a submission rejected by a model rate limit
func (c *Collector) RecordRateLimited(modelID string) {
	c.RecordMetric(Metric{
		Name:  MetricRateLimited,
		Value: int64(1),
		Tags:  map[string]string{"type": "count", "model": modelID},
	})
}

// RecordSearch counts a local search
func (c *Collector) RecordSearch(results int) {
	c.RecordMetric(Metric{
		Name:   MetricSearch,
		Value:  int64(1),
		Tags:   map[string]string{"type": "count"},
		Fields: map[string]interface{}{"results": results},
	})
}

// RecordUnlock counts a secret model unlock
func (c *Collector) RecordUnlock() {
	c.RecordMetric(Metric{
		Name:  MetricUnlock,
		Value: int64(1),
		Tags:  map[string]string{"type": "count"},
	})
}

// RecordSessionOpened counts a new session
func (c *Collector) RecordSessionOpened() {
	c.RecordMetric(Metric{
		Name:  MetricSessionOpened,
		Value: int64(1),
		Tags:  map[string]string{"type": "count"},
	})
}

// RecordSessionClosed counts a closed session
func (c *Collector) RecordSessionClosed() {
	c.RecordMetric(Metric{
		Name:  MetricSessionClosed,
		Value: int64(1),
		Tags:  map[string]string{"type": "count"},
	})
}

// Snapshot returns a copy of the aggregated metrics
func (c *Collector) Snapshot() SystemMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := *c.systemStats
	stats.ResponseTimes = append([]int64{}, c.systemStats.ResponseTimes...)
	stats.ReplyLatencies = append([]int64{}, c.systemStats.ReplyLatencies...)
	stats.ReplyFlow.ByMode = make(map[string]int64, len(c.systemStats.ReplyFlow.ByMode))
	for mode, n := range c.systemStats.ReplyFlow.ByMode {
		stats.ReplyFlow.ByMode[mode] = n
	}
	return stats
}

// GetSystemMetrics returns current aggregated metrics
func (c *Collector) GetSystemMetrics(ctx context.Context) SystemMetrics {
	return c.Snapshot()
}

// GetMetrics returns recent metrics with optional filtering
func (c *Collector) GetMetrics(ctx context.Context, filter map[string]string, limit int) []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var filtered []Metric

	// Start from the end (most recent)
	for i := len(c.metrics) - 1; i >= 0 && len(filtered) < limit; i-- {
		if matchesFilter(c.metrics[i], filter) {
			filtered = append(filtered, c.metrics[i])
		}
	}

	// Reverse to get chronological order
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}

	return filtered
}

func (c *Collector) updateSystemStats(metric Metric) {
	stats := c.systemStats
	flow := &stats.ReplyFlow

	switch metric.Name {
	case MetricResponseTime:
		if ms, ok := metric.Value.(int64); ok {
			stats.ResponseTimes = appendRecent(stats.ResponseTimes, ms)
			stats.AvgResponseTime, stats.P95ResponseTime, stats.P99ResponseTime = summarize(stats.ResponseTimes)
		}

	case MetricReplyLatency:
		if ms, ok := metric.Value.(int64); ok {
			stats.ReplyLatencies = appendRecent(stats.ReplyLatencies, ms)
			stats.AvgReplyLatency, _, _ = summarize(stats.ReplyLatencies)
		}

	case MetricSubmission:
		flow.Submitted++
		flow.Pending++
		flow.ByMode[metric.Tags["mode"]]++

	case MetricReplyDelivered:
		flow.Delivered++
		flow.Pending = max(flow.Pending-1, 0)

	case MetricReplyCancelled:
		flow.Cancelled++
		flow.Pending = max(flow.Pending-1, 0)

	case MetricRateLimited:
		flow.RateLimited++

	case MetricSearch:
		flow.Searches++

	case MetricUnlock:
		flow.Unlocks++

	case MetricSessionOpened:
		stats.Sessions.Opened++
		stats.Sessions.Active++

	case MetricSessionClosed:
		stats.Sessions.Closed++
		stats.Sessions.Active = max(stats.Sessions.Active-1, 0)
	}

	stats.Timestamp = metric.Timestamp
	c.lastUpdate = metric.Timestamp
}

func appendRecent(values []int64, v int64) []int64 {
	values = append(values, v)
	if len(values) > recentWindow {
		values = values[len(values)-recentWindow:]
	}
	return values
}

// summarize computes avg, p95 and p99
func summarize(times []int64) (avg, p95, p99 int64) {
	if len(times) == 0 {
		return 0, 0, 0
	}

	sorted := append([]int64(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, t := range times {
		sum += t
	}

	n := len(sorted)
	return sum / int64(n), sorted[int(float64(n)*0.95)], sorted[int(float64(n)*0.99)]
}

func matchesFilter(metric Metric, filter map[string]string) bool {
	if name, exists := filter["name"]; exists && metric.Name != name {
		return false
	}

	for key, value := range filter {
		if key == "name" {
			continue
		}
		if tagValue, exists := metric.Tags[key]; !exists || tagValue != value {
			return false
		}
	}

	return true
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Collector) reset() {
	now := c.now()
	c.metrics = make([]Metric, 0, c.maxMetrics)
	c.systemStats = &SystemMetrics{
		ResponseTimes:  make([]int64, 0, recentWindow),
		ReplyLatencies: make([]int64, 0, recentWindow),
		ReplyFlow:      ReplyFlow{ByMode: make(map[string]int64)},
		Timestamp:      now,
	}
	c.lastUpdate = now
}

// GetLastUpdateTime returns when metrics were last updated
func (c *Collector) GetLastUpdateTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}
