package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value extracts the current reading of a counter or gauge.
func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	return 0
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.IncrWorkItem("ok")
	m.IncrWorkItem("ok")
	m.IncrWorkItem("timeout")
	m.IncrDeal("new")
	m.IncrCacheHit("availability")
	m.IncrCacheMiss("cash")
	m.AddPruned(3)
	m.AddPruned(-1)
	m.RecordScrape("aeroplan", 120*time.Millisecond)
	m.RecordCycle("ok", 2*time.Second, time.Unix(1_800_000_000, 0))

	assert.Equal(t, 2.0, value(t, m.workItems.WithLabelValues("ok")))
	assert.Equal(t, 1.0, value(t, m.workItems.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, value(t, m.dealsRecorded.WithLabelValues("new")))
	assert.Equal(t, 1.0, value(t, m.cacheHits.WithLabelValues("availability")))
	assert.Equal(t, 3.0, value(t, m.prunedDeals))
	assert.Equal(t, 1.0, value(t, m.cycles.WithLabelValues("ok")))
	assert.Equal(t, 1_800_000_000.0, value(t, m.lastCycle))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrWorkItem("ok")
		m.IncrDeal("new")
		m.RecordScrape("aa", time.Second)
		m.RecordCycle("failed", time.Second, time.Now())
		m.IncrCacheHit("cash")
		m.IncrCacheMiss("cash")
		m.AddPruned(1)
	})
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		assert.NotNil(t, NewLogger(level), level)
	}
	assert.False(t, NewLogger("warn").Core().Enabled(-1))
}
