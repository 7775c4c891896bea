// Package metrics exposes Prometheus metrics for a scan: HTTP requests
// by kind and status code, request latency, the decoder strategy that
// produced each raster, and outcomes by status.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/logocluster/internal/model"
)

const namespace = "logocluster"

// DefaultPath is the HTTP path metrics are served on.
const DefaultPath = "/metrics"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decodes         *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	groups          prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by kind and status code.",
		}, []string{"kind", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Decoded images by the strategy that produced them.",
		}, []string{"strategy"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Processed domains by final status.",
		}, []string{"status"}),
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "similar_groups",
			Help:      "Similarity groups found by the last clustering.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.decodes,
		m.outcomes,
		m.groups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one HTTP request. A transport failure without a
// response is labelled "error".
func (m *Metrics) ObserveRequest(kind string, status int, err error, elapsed time.Duration) {
	code := strconv.Itoa(status)
	if status == 0 {
		code = "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			code = "timeout"
		}
	}
	m.requests.WithLabelValues(kind, code).Inc()
	m.requestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveDecode records the strategy that decoded an image.
func (m *Metrics) ObserveDecode(strategy string) {
	m.decodes.WithLabelValues(strategy).Inc()
}

// Record counts o by status.
func (m *Metrics) Record(_ context.Context, o *model.Outcome) error {
	m.outcomes.WithLabelValues(o.Status.String()).Inc()
	return nil
}

// SetGroups records the number of similarity groups.
func (m *Metrics) SetGroups(n int) {
	m.groups.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Server serves metrics on an address until its context ends.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Listen binds addr and returns a Server ready to Serve.
func (m *Metrics) Listen(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(DefaultPath, m.Handler())
	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving metrics", "addr", s.Addr(), "path", DefaultPath)
		errCh <- s.srv.Serve(s.ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down metrics server: %w", err)
		}
		return nil
	}
}
