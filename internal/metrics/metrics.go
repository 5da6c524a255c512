package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"airport522/internal/adsb"
)

const namespace = "airport522"

// Metrics holds the decoder's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Messages        *prometheus.CounterVec
	TrackedAircraft prometheus.Gauge
	Evictions       prometheus.Counter
	BatchDuration   prometheus.Histogram
	RecordErrors    prometheus.Counter
}

// New creates the collectors and registers them
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Decoded messages by category",
		}, []string{"category"}),
		TrackedAircraft: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_aircraft",
			Help:      "Aircraft currently held in the table",
		}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_aircraft_total",
			Help:      "Aircraft removed for being stale",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_batch_seconds",
			Help:      "Time spent decoding one batch of samples",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		RecordErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Messages that could not be written to the recording",
		}),
	}
}

// RegisterScanner exposes the scanner counters. stats is called on every scrape.
func (m *Metrics) RegisterScanner(stats func() adsb.ScannerStats) {
	counter := func(name, help string, get func(adsb.ScannerStats) uint64) {
		m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(get(stats())) }))
	}

	counter("samples_total", "Amplitude samples scanned",
		func(s adsb.ScannerStats) uint64 { return s.Samples })
	counter("preambles_total", "Preambles detected",
		func(s adsb.ScannerStats) uint64 { return s.Preambles })
	counter("valid_frames_total", "Frames that passed the CRC check",
		func(s adsb.ScannerStats) uint64 { return s.ValidFrames })
	counter("invalid_frames_total", "Frames that failed the CRC check",
		func(s adsb.ScannerStats) uint64 { return s.InvalidFrames })

	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "noise_floor",
		Help:      "Current noise floor estimate",
	}, func() float64 { return stats().NoiseFloor }))
}

// ObserveMessage counts a decoded message
func (m *Metrics) ObserveMessage(msg *adsb.Message) {
	if !msg.Valid() {
		m.Messages.WithLabelValues("invalid").Inc()
		return
	}
	m.Messages.WithLabelValues(msg.Category().String()).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
