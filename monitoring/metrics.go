package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intake"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	// ответы формы укладываются в десятки миллисекунд
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)
)

var (
	// outcome: created | updated
	FormsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forms_saved_total",
			Help:      "Intake forms saved, by outcome",
		},
		[]string{"outcome"},
	)

	// result: found | unknown
	FormsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forms_loaded_total",
			Help:      "Intake form loads, by result",
		},
		[]string{"result"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_cache_total",
			Help:      "Form cache lookups, by result",
		},
		[]string{"result"},
	)

	EventsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_events_indexed_total",
			Help:      "Form events consumed from Kafka and indexed",
		},
		[]string{"event"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			RequestsInFlight,
			FormsSaved,
			FormsLoaded,
			CacheHits,
			EventsIndexed,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
