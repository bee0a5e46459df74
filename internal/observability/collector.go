// README: Custom Prometheus collector exporting driver pool stats on scrape.
package observability

import "github.com/prometheus/client_golang/prometheus"

// PoolStats is the snapshot a pool exposes for telemetry export.
type PoolStats struct {
	ActiveDrivers int
	CoarseCells   int
	AverageLoad   float64
}

// PoolCollector pulls pool stats at scrape time instead of pushing gauges,
// so the exported values are never older than the scrape.
type PoolCollector struct {
	source func() PoolStats

	activeDrivers *prometheus.Desc
	coarseCells   *prometheus.Desc
	averageLoad   *prometheus.Desc
}

// NewPoolCollector wraps a stats source (typically Pool.Stats bridged
// through a closure) as a prometheus.Collector.
func NewPoolCollector(source func() PoolStats) *PoolCollector {
	return &PoolCollector{
		source: source,
		activeDrivers: prometheus.NewDesc(
			"dispatch_active_drivers",
			"Number of drivers currently held in the spatial index.",
			nil, nil,
		),
		coarseCells: prometheus.NewDesc(
			"dispatch_coarse_cells",
			"Number of populated coarse index cells.",
			nil, nil,
		),
		averageLoad: prometheus.NewDesc(
			"dispatch_average_cell_load",
			"Average driver count across populated coarse cells.",
			nil, nil,
		),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeDrivers
	ch <- c.coarseCells
	ch <- c.averageLoad
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()
	ch <- prometheus.MustNewConstMetric(c.activeDrivers, prometheus.GaugeValue, float64(s.ActiveDrivers))
	ch <- prometheus.MustNewConstMetric(c.coarseCells, prometheus.GaugeValue, float64(s.CoarseCells))
	ch <- prometheus.MustNewConstMetric(c.averageLoad, prometheus.GaugeValue, s.AverageLoad)
}
