package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procshim",
			Subsystem: "supervisor",
			Name:      "operations_total",
			Help:      "Supervisor operations by verb and result.",
		}, []string{"op", "result"},
	)
	managedUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "procshim",
			Subsystem: "supervisor",
			Name:      "managed_up",
			Help:      "Whether the managed process is detected as running (1) or not (0).",
		}, []string{"name"},
	)
	lockHeld = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "procshim",
			Subsystem: "supervisor",
			Name:      "lock_marker_present",
			Help:      "Whether the lock marker file exists (1) or not (0).",
		}, []string{"name"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procshim",
			Subsystem: "supervisor",
			Name:      "state_transitions_total",
			Help:      "Observed supervisor state transitions.",
		}, []string{"name", "from", "to"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{operations, managedUp, lockHeld, stateTransitions}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncOperation(op string, ok bool) {
	if regOK.Load() {
		result := "failure"
		if ok {
			result = "success"
		}
		operations.WithLabelValues(op, result).Inc()
	}
}

func SetManagedUp(name string, up bool) {
	if regOK.Load() {
		managedUp.WithLabelValues(name).Set(boolGauge(up))
	}
}

func SetLockHeld(name string, held bool) {
	if regOK.Load() {
		lockHeld.WithLabelValues(name).Set(boolGauge(held))
	}
}

func RecordStateTransition(name, from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(name, from, to).Inc()
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
