// Package metrics exposes Prometheus instrumentation for searches.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for quarry.
// It satisfies search.Recorder and query.CacheObserver.
type Metrics struct {
	searchRequestsTotal   *prometheus.CounterVec
	searchRequestDuration *prometheus.HistogramVec
	parseCacheTotal       *prometheus.CounterVec

	dbConnectionsInUse prometheus.Gauge
	dbConnectionsIdle  prometheus.Gauge
	dbConnectionsMax   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		searchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_search_requests_total",
				Help: "Total number of search requests",
			},
			[]string{"entity", "mode", "outcome"},
		),
		searchRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quarry_search_duration_seconds",
				Help:    "Search request latency in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"entity", "mode"},
		),
		parseCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_parse_cache_total",
				Help: "Query parse cache lookups",
			},
			[]string{"result"},
		),
		dbConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_db_connections_in_use",
				Help: "Current number of database connections held by requests",
			},
		),
		dbConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_db_connections_idle",
				Help: "Current number of idle database connections",
			},
		),
		dbConnectionsMax: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_db_connections_max",
				Help: "Maximum number of database connections",
			},
		),
	}
}

// ObserveSearch records one finished search request.
func (m *Metrics) ObserveSearch(entity, mode, outcome string, elapsed time.Duration) {
	m.searchRequestsTotal.WithLabelValues(entity, mode, outcome).Inc()
	m.searchRequestDuration.WithLabelValues(entity, mode).Observe(elapsed.Seconds())
}

// ObserveParseCache records a parse cache lookup.
func (m *Metrics) ObserveParseCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.parseCacheTotal.WithLabelValues(result).Inc()
}

// UpdateDBStats copies connection pool statistics into the gauges.
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.dbConnectionsInUse.Set(float64(stats.InUse))
	m.dbConnectionsIdle.Set(float64(stats.Idle))
	m.dbConnectionsMax.Set(float64(stats.MaxOpenConnections))
}
