package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_score"

// Metrics holds the Prometheus counters, histograms, and gauges for the assessment service.
type Metrics struct {
	Assessments        *prometheus.CounterVec // labels: label, source={rules,model}
	LayerLookups       *prometheus.CounterVec // labels: layer, outcome={hit,miss,unavailable}
	ExtractionDuration prometheus.Histogram
	LayersLoaded       prometheus.Gauge
	ModelLoaded        prometheus.Gauge

	// Kafka publishing metrics.
	AssessmentsPublished prometheus.Counter
	PublishErrors        prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Assessments,
		m.LayerLookups,
		m.ExtractionDuration,
		m.LayersLoaded,
		m.ModelLoaded,
		m.AssessmentsPublished,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Point assessments by final label and label source.",
		}, []string{"label", "source"}),
		LayerLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_lookups_total",
			Help:      "Hazard layer lookups by layer and outcome.",
		}, []string{"layer", "outcome"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of a four-layer feature extraction.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		LayersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layers_loaded",
			Help:      "Number of hazard layers loaded at startup (0-4).",
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a trained classifier is serving labels, 0 when rules are used.",
		}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Assessments written to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed assessment publishes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place geocoding is enabled, 0 otherwise.",
		}),
	}
}

// ObserveExtraction records the duration of one extraction. Safe on a nil receiver.
func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionDuration.Observe(d.Seconds())
}

// CountLookup records one layer lookup outcome. Safe on a nil receiver.
func (m *Metrics) CountLookup(layer, outcome string) {
	if m == nil {
		return
	}
	m.LayerLookups.WithLabelValues(layer, outcome).Inc()
}

// CountAssessment records a completed assessment. Safe on a nil receiver.
func (m *Metrics) CountAssessment(label, source string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(label, source).Inc()
}

// CountPublish records a publish attempt. Safe on a nil receiver.
func (m *Metrics) CountPublish(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishErrors.Inc()
		return
	}
	m.AssessmentsPublished.Inc()
}

// SetLayersLoaded reports how many layers are available. Safe on a nil receiver.
func (m *Metrics) SetLayersLoaded(n int) {
	if m == nil {
		return
	}
	m.LayersLoaded.Set(float64(n))
}

// SetModelLoaded reports whether a model serves labels. Safe on a nil receiver.
func (m *Metrics) SetModelLoaded(loaded bool) {
	if m == nil {
		return
	}
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

// ObserveGeocode records one geocoding API call and its outcome. Safe on a nil receiver.
func (m *Metrics) ObserveGeocode(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GeocodeAPIDuration.WithLabelValues(method).Observe(d.Seconds())
	m.GeocodeRequests.WithLabelValues(method, outcome).Inc()
}

// CountGeocodeCache records a geocode cache hit or miss. Safe on a nil receiver.
func (m *Metrics) CountGeocodeCache(method, result string) {
	if m == nil {
		return
	}
	m.GeocodeCache.WithLabelValues(method, result).Inc()
}

// SetGeocodeEnabled reports whether geocoding is configured. Safe on a nil receiver.
func (m *Metrics) SetGeocodeEnabled(enabled bool) {
	if m == nil {
		return
	}
	if enabled {
		m.GeocodeEnabled.Set(1)
		return
	}
	m.GeocodeEnabled.Set(0)
}
