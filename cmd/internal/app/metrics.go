package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewdeck/cmd/internal/schedule"
	"crewdeck/cmd/points"
)

// Metrics aggregates the engine's Prometheus instruments. It satisfies the
// observer interfaces of both the discipline service and the scheduled jobs,
// so one instance is shared across the write paths.
type Metrics struct {
	registry *prometheus.Registry

	pointChanges *prometheus.CounterVec
	demotions    prometheus.Counter
	removals     prometheus.Counter
	resets       prometheus.Counter
	resetMembers prometheus.Counter
	decayPoints  prometheus.Counter
}

// NewMetrics builds and registers all instruments on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		pointChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "point_changes_total",
			Help:      "Applied point changes by direction.",
		}, []string{"direction"}),
		demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "demotions_total",
			Help:      "Rank demotions caused by point changes.",
		}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "removals_total",
			Help:      "Staff removals caused by deductions at a zero balance.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "monthly_resets_total",
			Help:      "Monthly reset job runs.",
		}),
		resetMembers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "monthly_reset_members_total",
			Help:      "Members processed across all monthly resets.",
		}),
		decayPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewdeck",
			Name:      "decay_points_total",
			Help:      "Points deducted by the inactivity decay sweep.",
		}),
	}
	reg.MustRegister(m.pointChanges, m.demotions, m.removals, m.resets, m.resetMembers, m.decayPoints)
	return m
}

// ObserveApplied records one applied point change and its side effects.
func (m *Metrics) ObserveApplied(res points.Result) {
	direction := "award"
	if len(res.Member.History) > 0 {
		entry := res.Member.History[0]
		if entry.Amount < 0 {
			direction = "deduction"
			if entry.Reason == schedule.DecayReason {
				m.decayPoints.Add(float64(-entry.Amount))
			}
		}
	}
	m.pointChanges.WithLabelValues(direction).Inc()

	if res.Demoted {
		m.demotions.Inc()
	}
	if res.Removed {
		m.removals.Inc()
	}
}

// ObserveReset records one monthly reset run.
func (m *Metrics) ObserveReset(processed int) {
	m.resets.Inc()
	m.resetMembers.Add(float64(processed))
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
