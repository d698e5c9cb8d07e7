package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rainmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the rainfall map service.
type Metrics struct {
	// Render metrics.
	RendersTotal   *prometheus.CounterVec // labels: outcome={ok,empty,out_of_range,invalid,error}
	RenderDuration prometheus.Histogram
	PointsReturned prometheus.Histogram
	RateLimited    prometheus.Counter

	// Table cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}

	// Dataset and export metrics.
	DatasetsLoaded *prometheus.GaugeVec   // labels: source={rainfall,boundary}
	ExportMessages *prometheus.CounterVec // labels: outcome={ok,skipped,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.RendersTotal,
		m.RenderDuration,
		m.PointsReturned,
		m.RateLimited,
		m.CacheLookups,
		m.DatasetsLoaded,
		m.ExportMessages,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		RendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      help("Map renders by outcome."),
		}, []string{"outcome"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      help("Duration of aggregating and rendering one selection."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PointsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "points_returned",
			Help:      help("Number of heat points per rendered selection."),
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      help("Render requests rejected by the rate limiter."),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      help("Weekly table cache lookups by result."),
		}, []string{"result"}),
		DatasetsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_loaded",
			Help:      help("1 when the named input dataset is loaded, 0 otherwise."),
		}, []string{"source"}),
		ExportMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_messages_total",
			Help:      help("Weekly tables published to Kafka by outcome."),
		}, []string{"outcome"}),
	}
}
