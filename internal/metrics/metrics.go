// Package metrics exposes lanscoped's Prometheus instrumentation: device
// registry size, fingerprint cache hit/miss counts per tier, and circuit
// breaker state. Grounded on the teacher's internal/server/middleware.go
// registration pattern (package-level vectors, registered once in init).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// DevicesTracked reports the current size of the registry's device map.
	DevicesTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lanscope_devices_tracked",
		Help: "Number of devices currently tracked in the registry.",
	})

	// FingerprintCacheHits counts fingerprint.Hierarchy.Lookup cache hits by
	// tier (upnp, sqlite, legacy, offline).
	FingerprintCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lanscope_fingerprint_cache_hits_total",
		Help: "Fingerprint cache hits by tier.",
	}, []string{"tier"})

	// FingerprintCacheMisses counts fingerprint cache misses by tier: "upnp"
	// for a UPnP cache miss, "remote" when the SQLite, legacy and offline
	// tiers all missed and the remote API had to be consulted (or attempted).
	FingerprintCacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lanscope_fingerprint_cache_misses_total",
		Help: "Fingerprint cache misses by tier.",
	}, []string{"tier"})

	// CircuitBreakerState reports the breaker's current state: 0=closed,
	// 1=half-open, 2=open.
	CircuitBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lanscope_fingerbank_circuit_breaker_state",
		Help: "Fingerbank circuit breaker state (0=closed, 1=half-open, 2=open).",
	})

	// ActiveScansTotal counts completed active scan sweeps.
	ActiveScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lanscope_active_scans_total",
		Help: "Total number of completed active scan sweeps.",
	})
)

func init() {
	prometheus.MustRegister(
		DevicesTracked,
		FingerprintCacheHits,
		FingerprintCacheMisses,
		CircuitBreakerState,
		ActiveScansTotal,
	)
}
