// Package metrics implements the engine's Prometheus collectors, grounded
// in the shape of the teacher's server/metrics.go Metrics struct (a set of
// named counters/gauges constructed once at startup and updated from the
// write/seal/merge paths), adapted from nakama's tally+Prometheus reporter
// indirection down to github.com/prometheus/client_golang/prometheus
// directly, since this engine has no tally dependency to route through.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors: segment counts, flush
// (seal) counts, merge counts, and bytes written, per spec.md §6.2.
type Metrics struct {
	BuildingSegments prometheus.Gauge
	PersistentSegments prometheus.Gauge

	DocsIndexed prometheus.Counter
	SealsTotal  prometheus.Counter
	MergesTotal prometheus.Counter

	BytesWritten *prometheus.CounterVec
}

// NewMetrics constructs and registers the engine's collectors against reg.
// Passing prometheus.NewRegistry() keeps tests isolated from the global
// registry; passing prometheus.DefaultRegisterer wires up /metrics in a
// real deployment.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		BuildingSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "building_segments",
			Help:      "Number of building (mutable, in-memory) segments currently open.",
		}),
		PersistentSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persistent_segments",
			Help:      "Number of persistent (immutable, on-disk) segments currently registered.",
		}),
		DocsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "docs_indexed_total",
			Help:      "Total documents appended to the tail building segment.",
		}),
		SealsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seals_total",
			Help:      "Total building-to-persistent segment seals performed.",
		}),
		MergesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total persistent segment merges performed.",
		}),
		BytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written per on-disk file kind (dict, posting, skiplist, positions).",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.BuildingSegments,
		m.PersistentSegments,
		m.DocsIndexed,
		m.SealsTotal,
		m.MergesTotal,
		m.BytesWritten,
	)

	return m
}

// ObserveSeal records one seal, with the byte sizes of the files it wrote.
func (m *Metrics) ObserveSeal(dictBytes, postingBytes, skipBytes, posBytes int) {
	m.SealsTotal.Inc()
	m.BytesWritten.WithLabelValues("dict").Add(float64(dictBytes))
	m.BytesWritten.WithLabelValues("posting").Add(float64(postingBytes))
	m.BytesWritten.WithLabelValues("skiplist").Add(float64(skipBytes))
	m.BytesWritten.WithLabelValues("positions").Add(float64(posBytes))
}

// ObserveMerge records one merge.
func (m *Metrics) ObserveMerge() {
	m.MergesTotal.Inc()
}
