package runner

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	cycles  *prometheus.CounterVec
	actions *prometheus.CounterVec
	tracked prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoploss_tracker_cycles_total",
			Help: "Scan cycles by result.",
		}, []string{"result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoploss_tracker_actions_total",
			Help: "Executed actions by kind and result.",
		}, []string{"kind", "result"}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stoploss_tracker_ratchet_entries",
			Help: "Ratchet entries held after the last flush.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.actions, m.tracked)
	}
	return m
}

func (m *Metrics) cycle(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.cycles.WithLabelValues("error").Inc()
		return
	}
	m.cycles.WithLabelValues("ok").Inc()
}

func (m *Metrics) actionDone(k ActionKind) {
	if m != nil {
		m.actions.WithLabelValues(k.String(), "ok").Inc()
	}
}

func (m *Metrics) actionFailed(k ActionKind) {
	if m != nil {
		m.actions.WithLabelValues(k.String(), "error").Inc()
	}
}

func (m *Metrics) setTracked(n int) {
	if m != nil {
		m.tracked.Set(float64(n))
	}
}
