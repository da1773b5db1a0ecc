package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SwapMetrics records relocation and link write activity.
type SwapMetrics struct {
	duration    *prometheus.HistogramVec
	relocations *prometheus.CounterVec
	linkWrites  *prometheus.CounterVec
}

// NewSwapMetrics registers the module-swap metrics on the provided registerer.
func NewSwapMetrics(reg prometheus.Registerer) *SwapMetrics {
	if reg == nil {
		return &SwapMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "module_swap_relocation_duration_seconds",
		Help:    "Duration of module placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	relocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "module_swap_relocations_total",
		Help: "Module placements by outcome.",
	}, []string{"outcome"})
	linkWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "module_swap_link_writes_total",
		Help: "Module to inventory item link writes by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(duration, relocations, linkWrites)
	return &SwapMetrics{
		duration:    duration,
		relocations: relocations,
		linkWrites:  linkWrites,
	}
}

// ObserveRelocation counts one placement attempt and its duration.
func (m *SwapMetrics) ObserveRelocation(outcome string, duration time.Duration) {
	if m == nil || m.relocations == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.relocations.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncLinkWrite counts a create, update or delete of a link.
func (m *SwapMetrics) IncLinkWrite(op, outcome string) {
	if m == nil || m.linkWrites == nil {
		return
	}
	m.linkWrites.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
