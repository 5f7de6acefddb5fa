package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restfinder", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "restfinder", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restfinder", Name: "searches_total", Help: "Restaurant searches by outcome."},
		[]string{"outcome"}, // outcome: matched|fallback|empty
	)
	RatingRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restfinder", Name: "rating_recomputes_total", Help: "Rating recomputations."},
		[]string{"result"}, // result: ok|error
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restfinder", Name: "events_published_total", Help: "Outbound domain events."},
		[]string{"topic", "result"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restfinder", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, Searches, RatingRecomputes, EventsPublished, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSearch(outcome string) { // outcome: matched|fallback|empty
	Searches.WithLabelValues(outcome).Inc()
}

func ObserveRecompute(err error) {
	if err != nil {
		RatingRecomputes.WithLabelValues("error").Inc()
		return
	}
	RatingRecomputes.WithLabelValues("ok").Inc()
}

func ObserveEvent(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
