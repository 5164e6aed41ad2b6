// Package metrics registers the Prometheus collectors for system matching
// and configuration lookup. Import this package anywhere in the binary to
// ensure collectors are registered with the default registry before
// promhttp.Handler is called.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unmatched is the system label used when no known profile matched.
const Unmatched = "unmatched"

var (
	// RegisteredConfigs is the number of records in the default registry.
	RegisteredConfigs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlperf_sysconf_registered_configs",
			Help: "Number of benchmark configurations in the registry.",
		},
	)

	// LookupTotal counts configuration lookups by result.
	//
	// Observed result values:
	//   hit       record found
	//   miss      no record for the key
	//   invalid   key rejected before lookup (unknown enum value)
	LookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlperf_sysconf_lookup_total",
			Help: "Total configuration lookups, by result.",
		},
		[]string{"result"},
	)

	// MatchTotal counts system identifications by matched profile name, or
	// "unmatched".
	MatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlperf_sysconf_system_match_total",
			Help: "Total system identifications, by matched profile.",
		},
		[]string{"system"},
	)

	// ProbeDuration is the wall-clock time of a full hardware probe. Buckets
	// span 10ms to ~82s; nvidia-smi on a cold driver can take tens of seconds.
	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mlperf_sysconf_probe_duration_seconds",
			Help:    "Duration of hardware probes.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)
)
