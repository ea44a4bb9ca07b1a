// Package metrics exports player lifecycle metrics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/e7canasta/gstplay"
)

const shutdownTimeout = 5 * time.Second

// Observer implements gstplay.Observer on its own registry
type Observer struct {
	registry *prometheus.Registry

	pipelinesStarted prometheus.Counter
	pipelineErrors   *prometheus.CounterVec
	buffering        prometheus.Counter
	parseErrors      prometheus.Counter
	pipelineState    prometheus.Gauge
}

var _ gstplay.Observer = (*Observer)(nil)

// New creates an Observer with every metric registered
func New() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Observer{
		registry: reg,
		pipelinesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gstplay_pipelines_started_total",
			Help: "Total number of pipelines built and started",
		}),
		pipelineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gstplay_pipeline_errors_total",
			Help: "Total number of engine errors by kind (network, codec, auth, unknown)",
		}, []string{"kind"}),
		buffering: factory.NewCounter(prometheus.CounterOpts{
			Name: "gstplay_buffering_events_total",
			Help: "Total number of buffering messages received",
		}),
		parseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gstplay_parse_errors_total",
			Help: "Total number of pipeline descriptions that failed to parse",
		}),
		pipelineState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gstplay_pipeline_state",
			Help: "Current pipeline state (0=void, 1=null, 2=ready, 3=paused, 4=playing)",
		}),
	}
}

// Registry returns the registry the metrics live on
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observer) PipelineStarted(_, _ string) {
	o.pipelinesStarted.Inc()
}

func (o *Observer) PipelineDestroyed(string) {
	o.pipelineState.Set(float64(gstplay.StateNull))
}

func (o *Observer) StateChanged(_, newState gstplay.State) {
	o.pipelineState.Set(float64(newState))
}

func (o *Observer) Buffering(int) {
	o.buffering.Inc()
}

func (o *Observer) Error(err error) {
	var perr *gstplay.ParseError
	if errors.As(err, &perr) {
		o.parseErrors.Inc()
		return
	}

	kind := gstplay.KindUnknown
	var eerr *gstplay.EngineError
	if errors.As(err, &eerr) {
		kind = eerr.Kind
	}
	o.pipelineErrors.WithLabelValues(kind.String()).Inc()
}

// Serve exposes /metrics on addr until ctx is done
func (o *Observer) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics: serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics: shutdown: %w", err)
	}
	logger.Info("metrics: stopped")
	return nil
}
