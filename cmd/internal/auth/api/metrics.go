package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gate decisions and login attempts. A nil *Metrics is a no-op.
type Metrics struct {
	gate  *prometheus.CounterVec
	login *prometheus.CounterVec
}

// NewMetrics registers the auth collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "auth",
			Name:      "gate_decisions_total",
			Help:      "Authentication gate decisions by outcome and internal reason.",
		}, []string{"outcome", "reason"}),
		login: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) gateDecision(outcome, reason string) {
	if m == nil {
		return
	}
	m.gate.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) loginAttempt(result string) {
	if m == nil {
		return
	}
	m.login.WithLabelValues(result).Inc()
}
