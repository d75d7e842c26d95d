/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package metrics exports Prometheus metrics for a set of live arcp.Handle
// connections: traffic counters kept by the handle itself, plus a live
// TCP_INFO reading taken at scrape time where the platform supports it.
package metrics

import (
	"sync"

	"github.com/higebu/netfd"
	"github.com/prometheus/client_golang/prometheus"

	arcp "github.com/atrad/go-arcp"
	"github.com/atrad/go-arcp/pkg/tcpinfo"
)

type handleEntry struct {
	handle *arcp.Handle
	fd     int
	labels []string
}

// HandleCollector is a prometheus.Collector over a dynamic set of
// arcp.Handle connections, labeled however the caller likes (module
// hostname, exchange role, etc.), in the same shape as this library's
// teacher's per-connection TCP_INFO collector.
type HandleCollector struct {
	mu      sync.Mutex
	handles map[*arcp.Handle]handleEntry
	logger  func(error)

	txBytes       *prometheus.Desc
	rxBytes       *prometheus.Desc
	exchanges     *prometheus.Desc
	naks          *prometheus.Desc
	timeouts      *prometheus.Desc
	dropped       *prometheus.Desc
	versionClamps *prometheus.Desc
	rtt           *prometheus.Desc
	retransmits   *prometheus.Desc
}

// NewHandleCollector builds a collector whose metric names are prefixed
// with prefix, labeled per connection by connectionLabels (values supplied
// to Add) and process-wide by constLabels.
func NewHandleCollector(prefix string, connectionLabels []string, constLabels prometheus.Labels, errorLoggingCallback func(error)) *HandleCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prefix+"_"+name, help, connectionLabels, constLabels)
	}
	return &HandleCollector{
		handles:       make(map[*arcp.Handle]handleEntry),
		logger:        errorLoggingCallback,
		txBytes:       desc("tx_bytes_total", "Bytes written to the module connection."),
		rxBytes:       desc("rx_bytes_total", "Bytes read from the module connection."),
		exchanges:     desc("exchanges_total", "Commands written by Exchange, whether or not a valid response followed."),
		naks:          desc("naks_total", "NAK responses received or sent."),
		timeouts:      desc("timeouts_total", "Reads that timed out."),
		dropped:       desc("dropped_total", "Reads that found the connection dropped."),
		versionClamps: desc("version_clamps_total", "Times the negotiated protocol version was clamped down."),
		rtt:           desc("rtt_seconds", "Smoothed TCP round-trip time, where supported."),
		retransmits:   desc("tcp_retransmits_total", "Total TCP segments retransmitted, where supported."),
	}
}

// Describe implements prometheus.Collector.
func (c *HandleCollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.txBytes
	descs <- c.rxBytes
	descs <- c.exchanges
	descs <- c.naks
	descs <- c.timeouts
	descs <- c.dropped
	descs <- c.versionClamps
	descs <- c.rtt
	descs <- c.retransmits
}

// Collect implements prometheus.Collector: it emits the handle's own
// traffic counters unconditionally, and a live TCP_INFO rtt/retransmit
// reading when the platform and connection support it.
func (c *HandleCollector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h, entry := range c.handles {
		stats := h.Stats()
		metrics <- prometheus.MustNewConstMetric(c.txBytes, prometheus.CounterValue, float64(stats.TxBytes), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.rxBytes, prometheus.CounterValue, float64(stats.RxBytes), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.exchanges, prometheus.CounterValue, float64(stats.Exchanges), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.naks, prometheus.CounterValue, float64(stats.NAKs), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(stats.Timeouts), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(stats.Dropped), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.versionClamps, prometheus.CounterValue, float64(stats.VersionClamps), entry.labels...)

		if !tcpinfo.Supported() {
			continue
		}
		sysInfo, err := tcpinfo.GetTCPInfo(uintptr(entry.fd))
		if err != nil {
			c.logger(err)
			continue
		}
		info := sysInfo.ToInfo()
		metrics <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, info.RTT.Seconds(), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.retransmits, prometheus.CounterValue, float64(info.Retransmits), entry.labels...)
	}
}

// Add registers h for scraping, labeled with labelValues (matching the
// connectionLabels order given to NewHandleCollector).
func (c *HandleCollector) Add(h *arcp.Handle, labelValues []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[h] = handleEntry{
		handle: h,
		fd:     netfd.GetFdFromConn(h.Conn()),
		labels: labelValues,
	}
}

// Remove unregisters h, typically called from the handle's Close path.
func (c *HandleCollector) Remove(h *arcp.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handles, h)
}
