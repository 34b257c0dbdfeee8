// Package metrics exposes node samples and refresh cycle statistics in the
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xmrig"

// SnapshotSource yields the current node samples. *registry.Manager implements it.
type SnapshotSource interface {
	Snapshots() []node.Snapshot
}

// index is the row in the node file. It keeps label sets unique when the
// file lists the same node twice.
var nodeLabels = []string{"index", "id", "host", "port", "worker"}

// NodeCollector turns registry snapshots into const metrics at scrape time,
// so a removed node disappears from the next scrape.
type NodeCollector struct {
	source SnapshotSource

	up             *prometheus.Desc
	hashrate       *prometheus.Desc
	hashrateMax    *prometheus.Desc
	sharesGood     *prometheus.Desc
	sharesTotal    *prometheus.Desc
	uptime         *prometheus.Desc
	ping           *prometheus.Desc
	refreshSuccess *prometheus.Desc
}

// NewNodeCollector creates a collector reading from source.
func NewNodeCollector(source SnapshotSource) *NodeCollector {
	desc := func(name, help string, extra ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "node", name), help,
			append(append([]string(nil), nodeLabels...), extra...), nil)
	}
	return &NodeCollector{
		source:         source,
		up:             desc("up", "Whether the last refresh of the node succeeded"),
		hashrate:       desc("hashrate", "Reported hashrate in H/s per averaging window", "window"),
		hashrateMax:    desc("hashrate_highest", "Highest hashrate in H/s reported by the node"),
		sharesGood:     desc("shares_good_total", "Accepted shares reported by the node"),
		sharesTotal:    desc("shares_total", "Submitted shares reported by the node"),
		uptime:         desc("uptime_seconds", "Miner uptime reported by the node"),
		ping:           desc("ping_ms", "Pool ping reported by the node"),
		refreshSuccess: desc("refresh_success_total", "Successful refreshes of the node since start"),
	}
}

// Describe implements prometheus.Collector.
func (c *NodeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.hashrate
	ch <- c.hashrateMax
	ch <- c.sharesGood
	ch <- c.sharesTotal
	ch <- c.uptime
	ch <- c.ping
	ch <- c.refreshSuccess
}

// Collect implements prometheus.Collector.
func (c *NodeCollector) Collect(ch chan<- prometheus.Metric) {
	for i, s := range c.source.Snapshots() {
		labels := []string{strconv.Itoa(i), strconv.Itoa(s.ID), s.Host, strconv.Itoa(s.Port), s.Name}

		up := 0.0
		if s.Online {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, labels...)
		ch <- prometheus.MustNewConstMetric(c.refreshSuccess, prometheus.CounterValue, float64(s.SuccessCount), labels...)

		// Nothing else is known until the first successful refresh.
		if s.SuccessCount == 0 {
			continue
		}

		windows := []struct {
			name  string
			value float64
		}{
			{"10s", s.Hashrate10s},
			{"1m", s.Hashrate1m},
			{"15m", s.Hashrate15m},
		}
		for _, w := range windows {
			ch <- prometheus.MustNewConstMetric(c.hashrate, prometheus.GaugeValue, w.value, append(labels, w.name)...)
		}
		ch <- prometheus.MustNewConstMetric(c.hashrateMax, prometheus.GaugeValue, s.HighestHashrate, labels...)
		ch <- prometheus.MustNewConstMetric(c.sharesGood, prometheus.CounterValue, float64(s.SharesGood), labels...)
		ch <- prometheus.MustNewConstMetric(c.sharesTotal, prometheus.CounterValue, float64(s.SharesTotal), labels...)
		ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, float64(s.Uptime), labels...)
		ch <- prometheus.MustNewConstMetric(c.ping, prometheus.GaugeValue, float64(s.Ping), labels...)
	}
}

// Metrics bundles the node collector with refresh cycle statistics on a
// dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	nodesOnline   prometheus.Gauge
	nodesTotal    prometheus.Gauge
}

// New creates the metrics registry for source. Go runtime and process
// collectors are included.
func New(source SnapshotSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "monitor", "refresh_cycles_total"),
			Help: "Completed refresh cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: prometheus.BuildFQName(namespace, "monitor", "refresh_cycle_duration_seconds"),
			Help: "Wall time of a full refresh cycle",
			// 10ms .. ~40s
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 13),
		}),
		nodesOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "monitor", "nodes_online"),
			Help: "Nodes that answered during the last cycle",
		}),
		nodesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "monitor", "nodes"),
			Help: "Nodes refreshed during the last cycle",
		}),
	}

	m.registry.MustRegister(
		NewNodeCollector(source),
		m.cycles,
		m.cycleDuration,
		m.nodesOnline,
		m.nodesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle records one finished refresh cycle.
func (m *Metrics) ObserveCycle(stats registry.CycleStats) {
	m.cycles.Inc()
	m.cycleDuration.Observe(stats.Duration.Seconds())
	m.nodesOnline.Set(float64(stats.Online))
	m.nodesTotal.Set(float64(stats.Nodes))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
