package metrics

import (
	"github.com/UnknownOlympus/compass/internal/discovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UpstreamSeconds *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	CachePruned     prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	Lookups         *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		UpstreamSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_upstream_request_duration_seconds",
			Help:    "Duration of requests to geocoding and routing providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		UpstreamErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_upstream_errors_total",
			Help: "Total number of errors received from geocoding and routing providers.",
		}, []string{"provider", "operation"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_place_cache_lookups_total",
			Help: "Place cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		CachePruned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "compass_place_cache_pruned_total",
			Help: "Total number of expired place cache entries removed.",
		}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_http_requests_total",
			Help: "Total HTTP requests served by the maps API.",
		}, []string{"route", "status"}),
		Lookups: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_discovery_lookup_duration_seconds",
			Help:    "Duration of discovery client lookups by source (live or fallback).",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "source"}),
	}
}

// ObserveLookup implements discovery.Recorder.
func (m *Metrics) ObserveLookup(operation string, source discovery.Source, seconds float64) {
	m.Lookups.WithLabelValues(operation, string(source)).Observe(seconds)
}
