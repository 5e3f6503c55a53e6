package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ReplyFlow(t *testing.T) {
	c := NewCollector()

	c.RecordSubmission("conversation")
	c.RecordSubmission("deepthink")
	c.RecordSubmission("conversation")
	c.RecordReplyDelivered(900 * time.Millisecond)
	c.RecordReplyCancelled()
	c.RecordRateLimited("oculus-mini-1.0")
	c.RecordSearch(3)
	c.RecordUnlock()

	stats := c.Snapshot()
	assert.Equal(t, int64(3), stats.ReplyFlow.Submitted)
	assert.Equal(t, int64(1), stats.ReplyFlow.Delivered)
	assert.Equal(t, int64(1), stats.ReplyFlow.Cancelled)
	assert.Equal(t, int64(1), stats.ReplyFlow.Pending)
	assert.Equal(t, int64(1), stats.ReplyFlow.RateLimited)
	assert.Equal(t, int64(1), stats.ReplyFlow.Searches)
	assert.Equal(t, int64(1), stats.ReplyFlow.Unlocks)
	assert.Equal(t, map[string]int64{"conversation": 2, "deepthink": 1}, stats.ReplyFlow.ByMode)
	assert.Equal(t, []int64{900}, stats.ReplyLatencies)
	assert.Equal(t, int64(900), stats.AvgReplyLatency)
}

func TestCollector_PendingNeverNegative(t *testing.T) {
	c := NewCollector()
	c.RecordReplyCancelled()
	c.RecordSessionClosed()

	stats := c.Snapshot()
	assert.Equal(t, int64(0), stats.ReplyFlow.Pending)
	assert.Equal(t, int64(0), stats.Sessions.Active)
}

func TestCollector_Sessions(t *testing.T) {
	c := NewCollector()
	c.RecordSessionOpened()
	c.RecordSessionOpened()
	c.RecordSessionClosed()

	stats := c.GetSystemMetrics(context.Background())
	assert.Equal(t, SessionStats{Opened: 2, Closed: 1, Active: 1}, stats.Sessions)
}

func TestCollector_ResponseTimePercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 25; i++ {
		c.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	stats := c.Snapshot()
	require.Len(t, stats.ResponseTimes, recentWindow)
	assert.Equal(t, int64(6), stats.ResponseTimes[0])
	assert.Equal(t, int64(15), stats.AvgResponseTime)
	assert.Equal(t, int64(25), stats.P95ResponseTime)
	assert.Equal(t, int64(25), stats.P99ResponseTime)
}

func TestCollector_GetMetricsFilter(t *testing.T) {
	c := NewCollector()
	c.RecordSubmission("search")
	c.RecordSubmission("conversation")
	c.RecordSearch(0)

	submissions := c.GetMetrics(context.Background(), map[string]string{"name": MetricSubmission}, 10)
	require.Len(t, submissions, 2)
	assert.Equal(t, "search", submissions[0].Tags["mode"])

	byMode := c.GetMetrics(context.Background(), map[string]string{"mode": "conversation"}, 10)
	require.Len(t, byMode, 1)

	limited := c.GetMetrics(context.Background(), nil, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, MetricSearch, limited[0].Name)
}

func TestCollector_SnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.RecordSubmission("conversation")

	stats := c.Snapshot()
	stats.ReplyFlow.ByMode["conversation"] = 99

	assert.Equal(t, int64(1), c.Snapshot().ReplyFlow.ByMode["conversation"])
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordSubmission("conversation")
	c.Reset()

	assert.Empty(t, c.GetMetrics(context.Background(), nil, 10))
	assert.Equal(t, int64(0), c.Snapshot().ReplyFlow.Submitted)
}
