// Package metrics exports the daemon's counters over Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxd"

type Metrics struct {
	registry *prometheus.Registry

	intents  *prometheus.CounterVec
	tiers    *prometheus.CounterVec
	failures *prometheus.CounterVec
	timers   prometheus.Gauge
	states   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Classified utterances by intent.",
		}, []string{"intent"}),
		tiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_tier_outcomes_total",
			Help:      "Answering tier attempts by tier and outcome.",
		}, []string{"tier", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_failures_total",
			Help:      "Tool invocations that ended in an error reply.",
		}, []string{"tool", "class"}),
		timers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Timers currently pending.",
		}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Conversation state changes by target state.",
		}, []string{"to"}),
	}

	m.registry.MustRegister(
		m.intents, m.tiers, m.failures, m.timers, m.states,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveIntent(kind string) {
	m.intents.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFailure(tool, class string) {
	m.failures.WithLabelValues(tool, class).Inc()
}

func (m *Metrics) ObserveTier(tier, outcome string) {
	m.tiers.WithLabelValues(tier, outcome).Inc()
}

func (m *Metrics) ObserveTransition(to string) {
	m.states.WithLabelValues(to).Inc()
}

// ActiveTimers is the gauge the timer registry keeps current.
func (m *Metrics) ActiveTimers() prometheus.Gauge {
	return m.timers
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
