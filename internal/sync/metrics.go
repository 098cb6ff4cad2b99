package sync

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for the appointment polling and action flows.
type Metrics struct {
	refreshTotal        *prometheus.CounterVec
	staleDiscardedTotal *prometheus.CounterVec
	actionTotal         *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbooking",
			Subsystem: "sync",
			Name:      "refresh_total",
			Help:      "Total appointment list refreshes",
		}, []string{"role", "status"}),
		staleDiscardedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbooking",
			Subsystem: "sync",
			Name:      "stale_discarded_total",
			Help:      "Responses discarded because a newer fetch was already applied",
		}, []string{"role"}),
		actionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbooking",
			Subsystem: "sync",
			Name:      "action_total",
			Help:      "Total appointment actions requested",
		}, []string{"action", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.refreshTotal, m.staleDiscardedTotal, m.actionTotal)
	return m
}

func (m *Metrics) observeRefresh(role, status string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(role, status).Inc()
}

func (m *Metrics) observeStale(role string) {
	if m == nil {
		return
	}
	m.staleDiscardedTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) observeAction(action, status string) {
	if m == nil {
		return
	}
	m.actionTotal.WithLabelValues(action, status).Inc()
}
