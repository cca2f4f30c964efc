package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecording(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementShareCreated()
	m.IncrementShareClosed("revoked")
	m.IncrementShareClosed("expired")
	m.IncrementShareClosed("expired")
	m.IncDisplayNameCacheHit()
	m.IncOutboxPublished(3)
	m.ObserveSweep(time.Now(), 2, 1, 4, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SharesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SharesClosed.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DisplayNameCache.WithLabelValues("hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutboxPublished))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SweepRecords.WithLabelValues("any", "skipped")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(403))
	assert.Equal(t, "5xx", statusClass(503))
}
