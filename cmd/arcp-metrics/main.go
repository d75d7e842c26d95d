/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Command arcp-metrics dials one or more ARCP modules, pings each on an
// interval to keep the connection live, and serves their traffic/TCP_INFO
// metrics over a Prometheus /metrics endpoint.
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	arcp "github.com/atrad/go-arcp"
	"github.com/atrad/go-arcp/pkg/metrics"
)

func main() {
	targets := flag.String("targets", "", "comma-separated module addresses, host:port")
	listen := flag.String("listen", ":9116", "metrics HTTP listen address")
	interval := flag.Duration("interval", 10*time.Second, "ping interval per module")
	flag.Parse()

	log := logrus.New()

	if *targets == "" {
		log.Fatal("usage: arcp-metrics -targets host:port[,host:port...] [-listen :9116] [-interval 10s]")
	}

	hostname, err := os.Hostname()
	if err != nil {
		log.WithError(err).Fatal("hostname")
	}

	collector := metrics.NewHandleCollector(
		"arcp",
		[]string{"id", "remote_addr"},
		prometheus.Labels{"app": "arcp-metrics", "hostname": hostname},
		func(err error) { log.WithError(err).Warn("metrics collection error") },
	)
	prometheus.MustRegister(collector)

	for _, addr := range strings.Split(*targets, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		go keepAlive(addr, *interval, collector, log)
	}

	http.Handle("/metrics", promhttp.Handler())
	log.WithField("listen", *listen).Info("serving metrics")
	log.Fatal(http.ListenAndServe(*listen, nil))
}

// keepAlive dials addr, registers the resulting handle with collector, and
// pings it every interval until the connection is lost, then redials.
func keepAlive(addr string, interval time.Duration, collector *metrics.HandleCollector, log *logrus.Logger) {
	id := xid.New()
	entry := log.WithFields(logrus.Fields{"addr": addr, "id": id.String()})

	for {
		nc, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			entry.WithError(err).Warn("dial failed, retrying")
			time.Sleep(interval)
			continue
		}

		h := arcp.NewHandle(nc, arcp.WithLogger(entry))
		collector.Add(h, []string{id.String(), addr})

		for {
			if err := h.Ping(); err != nil {
				entry.WithError(err).Warn("ping failed, reconnecting")
				break
			}
			time.Sleep(interval)
		}

		collector.Remove(h)
		h.Close()
	}
}
