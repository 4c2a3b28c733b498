package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. Methods on a nil
// *Metrics are no-ops.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	workItems      *prometheus.CounterVec
	dealsRecorded  *prometheus.CounterVec
	scrapeDuration *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	prunedDeals    prometheus.Counter
	lastCycle      prometheus.Gauge
}

// NewMetrics registers every collector in a private registry so tests can
// build more than one.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_scan_cycles_total",
				Help: "Scan cycles by outcome.",
			},
			[]string{"outcome"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pointsmaxxer_scan_cycle_duration_seconds",
				Help:    "Wall time of a scan cycle.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		workItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_work_items_total",
				Help: "Work items by outcome.",
			},
			[]string{"outcome"},
		),
		dealsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_deals_recorded_total",
				Help: "Recorded snapshots by dedupe status.",
			},
			[]string{"status"},
		),
		scrapeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pointsmaxxer_scrape_duration_seconds",
				Help:    "Award source latency by program.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"program"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		prunedDeals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pointsmaxxer_deals_pruned_total",
				Help: "Deal records removed by retention.",
			},
		),
		lastCycle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pointsmaxxer_last_cycle_timestamp_seconds",
				Help: "Unix time the last scan cycle finished.",
			},
		),
	}
}

func (m *Metrics) RecordCycle(outcome string, d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(d.Seconds())
	m.lastCycle.Set(float64(finished.Unix()))
}

func (m *Metrics) IncrWorkItem(outcome string) {
	if m == nil {
		return
	}
	m.workItems.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrDeal(status string) {
	if m == nil {
		return
	}
	m.dealsRecorded.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordScrape(program string, d time.Duration) {
	if m == nil {
		return
	}
	m.scrapeDuration.WithLabelValues(program).Observe(d.Seconds())
}

func (m *Metrics) IncrCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) AddPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.prunedDeals.Add(float64(n))
}
