package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the check-in
// engine and HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	graphBuild      prometheus.Histogram
	graphGroups     prometheus.Histogram
	filteredOptions *prometheus.CounterVec
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

	graphBuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkin_graph_build_seconds",
		Help:    "Duration of opportunity graph construction",
		Buckets: prometheus.DefBuckets,
	})

	graphGroups := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkin_graph_groups",
		Help:    "Group count of built opportunity graphs",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	filteredOptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_filtered_options_total",
		Help: "Options removed from attendee graphs, by filter and node type",
	}, []string{"filter", "node"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, graphBuild, graphGroups, filteredOptions, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		graphBuild:      graphBuild,
		graphGroups:     graphGroups,
		filteredOptions: filteredOptions,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGraphBuild records one opportunity graph construction.
func (m *MetricsService) ObserveGraphBuild(duration time.Duration, groups int) {
	if m == nil {
		return
	}
	m.graphBuild.Observe(duration.Seconds())
	m.graphGroups.Observe(float64(groups))
}

// CountFilteredOption counts one node removed by the named filter.
func (m *MetricsService) CountFilteredOption(filter, node string) {
	if m == nil {
		return
	}
	m.filteredOptions.WithLabelValues(filter, node).Inc()
}

// RecordCacheOperation records a reference-data cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
