// Package metrics exposes Prometheus metrics for the producer endpoint on a
// dedicated listener.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	metricsOnce sync.Once
)

// Init registers the collectors under namespace. Later calls are no-ops.
func Init(namespace string) {
	metricsOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "producer_requests_total",
				Help:      "Total number of producer requests by operation and response code",
			},
			[]string{"operation", "code"},
		)

		requestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "producer_request_duration_seconds",
				Help:      "Duration of producer requests in seconds, callable time included",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"operation"},
		)

		registry.MustRegister(
			requestsTotal,
			requestDuration,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// ObserveOperation records one handled request. It is a no-op until Init ran.
func ObserveOperation(operation string, code int, duration time.Duration) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(operation, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Gatherer exposes the registry, mostly for tests.
func Gatherer() prometheus.Gatherer {
	return registry
}

// MetricsServer serves /metrics on its own address.
type MetricsServer struct {
	srv *http.Server
}

// New initializes the collectors and prepares a server listening on addr.
func New(namespace, addr string) (*MetricsServer, error) {
	Init(namespace)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}
