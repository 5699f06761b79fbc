// Registers:
//
//	#creditflow_resource_loads_total{resource,outcome}
//	#creditflow_resource_rows{resource}
//	#creditflow_snapshot_builds_total{outcome}
//	#go_* and process_* system metrics
//
// The registry is exposed on the API server's /metrics route.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once           sync.Once
	resourceLoads  *prometheus.CounterVec
	resourceRows   *prometheus.GaugeVec
	snapshotBuilds *prometheus.CounterVec
)

func Init() {
	once.Do(func() {
		resourceLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditflow_resource_loads_total",
				Help: "Resource load attempts by outcome (ok or degraded)",
			},
			[]string{"resource", "outcome"},
		)

		resourceRows = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "creditflow_resource_rows",
				Help: "Rows loaded per resource in the current snapshot",
			},
			[]string{"resource"},
		)

		snapshotBuilds = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditflow_snapshot_builds_total",
				Help: "Snapshot build attempts by outcome (ready, stale or critical)",
			},
			[]string{"outcome"},
		)

		_ = prometheus.Register(resourceLoads)
		_ = prometheus.Register(resourceRows)
		_ = prometheus.Register(snapshotBuilds)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLoad counts one resource load attempt and records its row count.
func RecordLoad(resource string, rows int, degraded bool) {
	if resourceLoads == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	resourceLoads.WithLabelValues(resource, outcome).Inc()
	resourceRows.WithLabelValues(resource).Set(float64(rows))
}

// RecordBuild counts one snapshot build by outcome.
func RecordBuild(outcome string) {
	if snapshotBuilds != nil {
		snapshotBuilds.WithLabelValues(outcome).Inc()
	}
}
