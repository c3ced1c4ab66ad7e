package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GeocodeLookups  *prometheus.CounterVec
	GeocodeCache    *prometheus.CounterVec
	ProviderSeconds *prometheus.HistogramVec
	QueueDepth      prometheus.Gauge
	Searches        *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_geocode_lookups_total",
			Help: "Total number of geocode lookups sent to the provider.",
		}, []string{"direction", "status"}),
		GeocodeCache: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_geocode_cache_total",
			Help: "Geocode cache reads partitioned by direction and outcome.",
		}, []string{"direction", "result"}),
		ProviderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_geocode_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		QueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "compass_geocode_queue_depth",
			Help: "Number of reverse-geocode tasks waiting in the rate-limited queue.",
		}),
		Searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "compass_searches_total",
			Help: "Total number of executed item searches.",
		}, []string{"status"}),
	}
}
