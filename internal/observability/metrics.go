package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_atlas"

// Metrics holds the Prometheus counters, histograms, and gauges for the atlas.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Weather service client metrics.
	APIRequests    *prometheus.CounterVec   // labels: endpoint, outcome={success,error,rate_limited}
	APIDuration    *prometheus.HistogramVec // labels: endpoint
	RateLimitWaits *prometheus.CounterVec   // labels: tier={minutely,hourly,daily}
	CacheLookups   *prometheus.CounterVec   // labels: result={hit,miss}

	// Core component metrics.
	Resolutions        *prometheus.CounterVec // labels: outcome={resolved,no_result,no_result_after_filter,ambiguous,error}
	SamplerRelaxations *prometheus.CounterVec // labels: region
	DaysDropped        prometheus.Counter
	RegionsProcessed   *prometheus.CounterVec // labels: stage={weather,air_quality}

	MapsGenerated prometheus.Counter
	MapsPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.PipelineRunning,
		m.APIRequests,
		m.APIDuration,
		m.RateLimitWaits,
		m.CacheLookups,
		m.Resolutions,
		m.SamplerRelaxations,
		m.DaysDropped,
		m.RegionsProcessed,
		m.MapsGenerated,
		m.MapsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
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
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while a map or comparison run is active, 0 otherwise."),
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      help("Weather service requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_duration_seconds",
			Help:      help("Weather service request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		RateLimitWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      help("Waits imposed by the weather service rate limits, by tier."),
		}, []string{"tier"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Response cache lookups by result."),
		}, []string{"result"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "city_resolutions_total",
			Help:      help("City resolutions by outcome."),
		}, []string{"outcome"}),
		SamplerRelaxations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampler_relaxations_total",
			Help:      help("Elevation ceiling increases by region."),
		}, []string{"region"}),
		DaysDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_dropped_total",
			Help:      help("Daily observations discarded for missing metrics."),
		}),
		RegionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_processed_total",
			Help:      help("Regions fully processed by stage."),
		}, []string{"stage"}),
		MapsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maps_generated_total",
			Help:      help("Map classifications produced."),
		}),
		MapsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maps_published_total",
			Help:      help("Map classifications written to Kafka."),
		}),
	}
}
