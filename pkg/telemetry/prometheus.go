// Package telemetry records console events as Prometheus metrics.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config names the metric namespace.
type Config struct {
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Prometheus implements the Record(ctx, event, payload) telemetry hook used by
// the panel, dashboard and console packages.
type Prometheus struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	workspaces prometheus.Gauge
}

// New builds a collector with its own registry.
func New(cfg Config) *Prometheus {
	ns := cfg.Namespace
	if ns == "" {
		ns = "neushop"
	}
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "console_events_total",
			Help:      "Console operations by event name and outcome",
		}, []string{"event", "outcome"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "console_workspaces",
			Help:      "Live console workspaces",
		}),
	}
	reg.MustRegister(p.events, p.workspaces)
	return p
}

// Record counts event. The payload "outcome" entry becomes the outcome label
// and defaults to "ok".
func (p *Prometheus) Record(_ context.Context, event string, payload map[string]any) {
	outcome := "ok"
	if v, ok := payload["outcome"]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			outcome = s
		}
	}
	p.events.WithLabelValues(event, outcome).Inc()
}

// SetWorkspaces reports the live workspace count.
func (p *Prometheus) SetWorkspaces(n int) {
	p.workspaces.Set(float64(n))
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the metrics in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
