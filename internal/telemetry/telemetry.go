// Package telemetry exports frame statistics as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ribbons/internal/render"
)

const namespace = "ribbons"

// Metrics holds every collector on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	frames    *prometheus.CounterVec
	fps       prometheus.Gauge
	admitted  prometheus.Gauge
	allowed   prometheus.Gauge
	drawn     prometheus.Gauge
	particles prometheus.Gauge
	culled    *prometheus.CounterVec
	entered   prometheus.Counter
	work      prometheus.Histogram
	backend   *prometheus.GaugeVec
	reloads   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frame callbacks by outcome.",
		}, []string{"outcome"}),
		fps: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Instantaneous frame rate.",
		}),
		admitted: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ribbons_admitted",
			Help:      "Ribbons planned for the last frame.",
		}),
		allowed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ribbons_allowed",
			Help:      "Current ribbon cap after admission control.",
		}),
		drawn: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ribbons_drawn",
			Help:      "Ribbons drawn in the last frame.",
		}),
		particles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "particles",
			Help:      "Live particles.",
		}),
		culled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ribbons_culled_total",
			Help:      "Ribbons left out of a frame, by reason.",
		}, []string{"reason"}),
		entered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ribbons_entered_total",
			Help:      "Ribbons that became visible.",
		}),
		work: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_work_seconds",
			Help:      "Time spent drawing a frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.5ms to ~250ms
		}),
		backend: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_info",
			Help:      "Active backend (1) by kind.",
		}, []string{"kind"}),
		reloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Applied config reloads.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records one frame.
func (m *Metrics) Observe(s render.FrameStats) {
	if s.Skipped {
		m.frames.WithLabelValues("skipped").Inc()
		return
	}
	m.frames.WithLabelValues("drawn").Inc()
	m.fps.Set(s.FPS)
	m.admitted.Set(float64(s.Plan.Admitted))
	m.allowed.Set(float64(s.Allowed))
	m.drawn.Set(float64(s.Drawn))
	m.particles.Set(float64(s.Particles))
	m.culled.WithLabelValues("pending").Add(float64(s.Plan.Pending))
	m.culled.WithLabelValues("faded").Add(float64(s.Plan.Faded))
	m.culled.WithLabelValues("offscreen").Add(float64(s.Plan.OffScreen))
	m.culled.WithLabelValues("invalid").Add(float64(s.Plan.Invalid))
	m.culled.WithLabelValues("dropped").Add(float64(s.Plan.Dropped))
	m.culled.WithLabelValues("toolarge").Add(float64(s.TooLarge))
	m.entered.Add(float64(len(s.Entered)))
	m.work.Observe(s.Work.Seconds())
}

// FrameError counts a frame that returned an error.
func (m *Metrics) FrameError() { m.frames.WithLabelValues("error").Inc() }

// SetBackend marks kind as the active backend.
func (m *Metrics) SetBackend(kind render.Kind) {
	m.backend.Reset()
	m.backend.WithLabelValues(string(kind)).Set(1)
}

func (m *Metrics) Reloaded() { m.reloads.Inc() }

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	return m.serve(ctx, ln, log)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("metrics listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics serve: %w", err)
	}
}
