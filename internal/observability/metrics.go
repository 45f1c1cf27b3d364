package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "traffic_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk service.
type Metrics struct {
	// Prediction metrics.
	Predictions        *prometheus.CounterVec // labels: outcome={success,error}
	WeatherFallbacks   prometheus.Counter
	PredictionDuration prometheus.Histogram
	LocationsLoaded    prometheus.Gauge
	ModelTrees         prometheus.Gauge

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,rejected}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherBreakerOpen prometheus.Gauge

	// Publishing metrics.
	MessagesPublished prometheus.Counter
	PublishErrors     prometheus.Counter
	PublisherRunning  prometheus.Gauge
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      h("Per-location predictions by outcome."),
		}, []string{"outcome"}),
		WeatherFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fallbacks_total",
			Help:      h("Predictions made with the default weather because the lookup failed."),
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_batch_duration_seconds",
			Help:      h("Duration of a full prediction pass over all locations."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LocationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locations_loaded",
			Help:      h("Number of locations in the registry."),
		}),
		ModelTrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_trees",
			Help:      h("Number of trees in the loaded model."),
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      h("Weather provider requests by outcome."),
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      h("Weather cache lookups by result."),
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      h("OpenWeather API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherBreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_breaker_open",
			Help:      h("1 while the weather circuit breaker is open, 0 otherwise."),
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      h("Prediction messages written to Kafka."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      h("Failed prediction batch publish attempts."),
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_publisher_running",
			Help:      h("1 while the scheduled prediction publisher is running, 0 otherwise."),
		}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Predictions,
		m.WeatherFallbacks,
		m.PredictionDuration,
		m.LocationsLoaded,
		m.ModelTrees,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherBreakerOpen,
		m.MessagesPublished,
		m.PublishErrors,
		m.PublisherRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
