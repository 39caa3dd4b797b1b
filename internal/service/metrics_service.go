package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	checkoutTotal   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	checkoutTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transactions_total",
		Help: "Total checkout transactions by outcome",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total catalog cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, checkoutTotal, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		checkoutTotal:   checkoutTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records duration and count for a handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCheckout counts a checkout attempt by outcome.
func (s *MetricsService) RecordCheckout(outcome string) {
	s.checkoutTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a catalog cache hit or miss.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
