// Package metrics exposes checker progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lzww0608/scru64/conformance"
)

const (
	namespace = "scru64"
	subsystem = "checker"
)

// Metrics implements conformance.Observer and records every processed line.
// Its registry is private so that several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	// processed counts non-blank, non-comment input lines
	processed prometheus.Counter

	// violations counts violation records.
	// Labels: kind
	violations *prometheus.CounterVec

	// skew observes now minus embedded timestamp, in seconds
	skew prometheus.Histogram

	// lastTimestamp is the embedded timestamp of the last decoded ID, in seconds
	lastTimestamp prometheus.Gauge
}

// New creates the metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		processed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lines_processed_total",
			Help:      "Total input lines checked",
		}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "violations_total",
			Help:      "Total violations by kind",
		}, []string{"kind"}),
		skew: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "clock_skew_seconds",
			Help:      "Local time minus the timestamp embedded in each identifier",
			Buckets:   []float64{-10, -1, -0.25, 0, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lastTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_timestamp_seconds",
			Help:      "Timestamp embedded in the last decoded identifier",
		}),
	}

	// pre-create every kind so absent violations export as zero
	for _, k := range conformance.Kinds() {
		m.violations.WithLabelValues(k.String())
	}
	return m
}

// Observe implements conformance.Observer
func (m *Metrics) Observe(res *conformance.Result) {
	m.processed.Inc()
	for _, v := range res.Violations {
		m.violations.WithLabelValues(v.Kind.String()).Inc()
	}
	if res.Decoded {
		m.skew.Observe(res.Skew.Seconds())
		m.lastTimestamp.Set(float64(res.ID.Timestamp()) / 1000)
	}
}

// Registry returns the registry holding the checker metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
