package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BaSui01/extpoint"
)

// SnapshotSource is what CatalogCollector reads on every scrape.
// *extpoint.Catalog satisfies it.
type SnapshotSource interface {
	Snapshot() extpoint.Snapshot
}

// CatalogCollector exports the state of an extension point catalog. The
// catalog is immutable once sealed, so values only change if registrations
// were still open at the previous scrape.
type CatalogCollector struct {
	source SnapshotSource

	points   *prometheus.Desc
	plugins  *prometheus.Desc
	failures *prometheus.Desc
}

var _ prometheus.Collector = (*CatalogCollector)(nil)

// NewCatalogCollector creates a collector over source.
func NewCatalogCollector(namespace string, source SnapshotSource) *CatalogCollector {
	return &CatalogCollector{
		source: source,
		points: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "extension_points"),
			"Number of known extension points",
			nil, nil,
		),
		plugins: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "plugins_registered"),
			"Number of plugins registered per extension point",
			[]string{"extension_point"}, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "registration_failures"),
			"Number of dropped registrations per extension point",
			[]string{"extension_point"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *CatalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.points
	ch <- c.plugins
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *CatalogCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.points, prometheus.GaugeValue, float64(len(s.Points)))
	for _, p := range s.Points {
		ch <- prometheus.MustNewConstMetric(c.plugins, prometheus.GaugeValue, float64(len(p.Plugins)), p.Name)
	}

	byPoint := make(map[string]int)
	for _, f := range s.Failures {
		byPoint[pointLabel(s, f)]++
	}
	for name, n := range byPoint {
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.GaugeValue, float64(n), name)
	}
}

// pointLabel returns the point name a failure belongs to so both metrics
// share label values. Failures recorded before a point was named fall back
// to the snapshot's name for the type.
func pointLabel(s extpoint.Snapshot, f extpoint.Failure) string {
	if p, ok := s.Point(f.ExtensionPoint); ok {
		return p.Name
	}
	if f.Point != "" {
		return f.Point
	}
	return f.ExtensionPoint
}
