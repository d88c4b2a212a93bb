package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/simulator"
)

// Metrics counts simulation activity. One instance can observe several
// engines.
type Metrics struct {
	registry *prometheus.Registry

	actionsApplied *prometheus.CounterVec
	eventsApplied  *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	conflicts      prometheus.Counter
	stnChecks      *prometheus.CounterVec
}

// NewMetrics creates the metric set on its own registry, or on reg when one
// is given.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		actionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bramble_actions_applied_total",
			Help: "Instantaneous actions applied, by action schema.",
		}, []string{"action"}),
		eventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bramble_events_applied_total",
			Help: "Temporal events applied, by event kind.",
		}, []string{"kind"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bramble_applications_rejected_total",
			Help: "Applications rejected as not applicable, by action schema.",
		}, []string{"action"}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bramble_effect_conflicts_total",
			Help: "Applications aborted because two effects fought over a fluent.",
		}),
		stnChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bramble_stn_checks_total",
			Help: "Temporal-network consistency checks, by result.",
		}, []string{"result"}),
	}
}

// Hooks returns lifecycle hooks that feed these metrics.
func (m *Metrics) Hooks() simulator.LifecycleHooks {
	return simulator.LifecycleHooks{
		OnActionApplied: func(a *model.Action, _ []*model.Node) {
			m.actionsApplied.WithLabelValues(a.Name()).Inc()
		},
		OnEventApplied: func(e *model.TemporalEvent) {
			m.eventsApplied.WithLabelValues(e.EventKind().String()).Inc()
		},
		OnConflict: func(_ *model.Node) {
			m.conflicts.Inc()
		},
		OnStnCheck: func(consistent bool) {
			result := "consistent"
			if !consistent {
				result = "inconsistent"
			}
			m.stnChecks.WithLabelValues(result).Inc()
		},
		OnNotApplicable: func(a *model.Action) {
			name := "unknown"
			if a != nil {
				name = a.Name()
			}
			m.rejected.WithLabelValues(name).Inc()
		},
	}
}

// Registry exposes the underlying registry for composition with other
// collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
