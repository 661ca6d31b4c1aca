package sqlitestore

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a small collector set a host process can register once
// and share across every Store it opens: package-local collectors
// registered by the embedding application rather than auto-registered
// globally.
type Metrics struct {
	StoresOpened prometheus.Counter
	Ingests      *prometheus.CounterVec
	Merges       prometheus.Counter
}

// NewMetrics constructs an unregistered Metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		StoresOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covdata",
			Subsystem: "sqlitestore",
			Name:      "stores_opened_total",
			Help:      "Number of sqlitestore.Store instances opened.",
		}),
		Ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covdata",
			Subsystem: "sqlitestore",
			Name:      "ingests_total",
			Help:      "Number of ingest calls by kind (lines, arcs, file_tracers).",
		}, []string{"kind"}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covdata",
			Subsystem: "sqlitestore",
			Name:      "merges_total",
			Help:      "Number of update()/merge operations performed.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.StoresOpened.Describe(ch)
	m.Ingests.Describe(ch)
	m.Merges.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.StoresOpened.Collect(ch)
	m.Ingests.Collect(ch)
	m.Merges.Collect(ch)
}
