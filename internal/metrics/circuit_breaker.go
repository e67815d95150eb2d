// SPDX-License-Identifier: MIT

// Package metrics exposes the prometheus collectors that internal/resilience
// reports circuit-breaker state and trips into.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "strmorg",
			Name:      "circuit_breaker_status",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	circuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strmorg",
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"name", "reason"},
	)
)

// SetCircuitBreakerState is a no-op label helper retained for readability at
// call sites; the numeric gauge is the source of truth (see SetCircuitBreakerStatus).
func SetCircuitBreakerState(name string, state string) {}

// SetCircuitBreakerStatus records the current numeric state of a breaker.
func SetCircuitBreakerStatus(name string, status int) {
	circuitBreakerState.WithLabelValues(name).Set(float64(status))
}

// RecordCircuitBreakerTrip increments the trip counter for name/reason.
func RecordCircuitBreakerTrip(name, reason string) {
	circuitBreakerTrips.WithLabelValues(name, reason).Inc()
}
