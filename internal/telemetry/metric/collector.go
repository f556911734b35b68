package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStats is the slice of the store the collector reads. Both methods
// must be safe for concurrent use.
type StoreStats interface {
	// Len returns the number of stored keys.
	Len() int
	// ExpiredTotal returns the number of keys evicted on expiry so far.
	ExpiredTotal() uint64
}

// Collector exports store gauges on scrape instead of on every mutation,
// keeping the store's hot path free of metric updates.
type Collector struct {
	stats   StoreStats
	keys    *prometheus.Desc
	expired *prometheus.Desc
}

// NewCollector creates a collector over the given store stats.
func NewCollector(stats StoreStats) *Collector {
	return &Collector{
		stats: stats,
		keys: prometheus.NewDesc(
			"cachelet_keys",
			"Number of keys currently stored.",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			"cachelet_keys_expired_total",
			"Total number of keys evicted on expiry.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.stats.Len()))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(c.stats.ExpiredTotal()))
}
