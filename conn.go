/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

package arcp

import (
	"net"
	"sync"
	"time"

	"github.com/atrad/go-arcp/pkg/tcpinfo"
)

// Stats accumulates per-Handle traffic counters, in the same spirit as the
// connection-wrapper statistics this library's teacher gathers per
// net.Conn (bytes sent/received, first/last activity timestamps), plus a
// TCP_INFO snapshot taken at open and close where the platform supports it.
// Exposed for diagnostics and consumed by pkg/metrics; it carries no wire
// semantics of its own.
type Stats struct {
	mu sync.Mutex

	OpenedAt      int64
	TxBytes       int64
	RxBytes       int64
	FirstTxAt     int64
	FirstRxAt     int64
	Exchanges     int64
	Timeouts      int64
	Dropped       int64
	Resyncs       int64
	LastResyncAt  int64
	NAKs          int64
	VersionClamps int64

	OpenedInfo *tcpinfo.Info
	ClosedInfo *tcpinfo.Info
	InfoErr    error

	supportsTCPInfo bool
}

func newStats() *Stats {
	return &Stats{OpenedAt: time.Now().UnixNano(), supportsTCPInfo: tcpinfo.Supported()}
}

// Warnings summarizes anything notable found in the TCP_INFO snapshots:
// retransmits and platform-specific advisories.
func (s *Stats) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var warns []string
	for _, info := range []*tcpinfo.Info{s.OpenedInfo, s.ClosedInfo} {
		if info == nil {
			continue
		}
		warns = append(warns, info.Sys.Warnings()...)
	}
	return warns
}

func (s *Stats) addTx(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TxBytes == 0 && n > 0 {
		s.FirstTxAt = time.Now().UnixNano()
	}
	s.TxBytes += int64(n)
}

func (s *Stats) addRx(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RxBytes == 0 && n > 0 {
		s.FirstRxAt = time.Now().UnixNano()
	}
	s.RxBytes += int64(n)
}

func (s *Stats) incr(counter *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
}

// recordResync bumps the resync counter and stamps the time of this
// resynchronization, for SPEC_FULL.md's "last resync time" handle
// statistic.
func (s *Stats) recordResync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resyncs++
	s.LastResyncAt = time.Now().UnixNano()
}

// Snapshot returns a copy of the current counters safe to read without
// racing further updates.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s
	cp.mu = sync.Mutex{}
	return cp
}

// instrumentedConn wraps a net.Conn, tracking byte counts and activity
// timestamps the way this library's teacher's Conn wrapper tracks TCP
// connection statistics, without altering read/write semantics.
type instrumentedConn struct {
	net.Conn
	stats *Stats
}

func wrapConn(nc net.Conn, stats *Stats) *instrumentedConn {
	c := &instrumentedConn{Conn: nc, stats: stats}
	c.gatherTCPInfo(&stats.OpenedInfo)
	return c
}

// gatherTCPInfo snapshots TCP_INFO for the underlying connection into dst,
// once, best-effort: a non-TCP conn or an unsupported platform leaves dst
// nil without error.
func (c *instrumentedConn) gatherTCPInfo(dst **tcpinfo.Info) {
	c.stats.mu.Lock()
	skip := !c.stats.supportsTCPInfo || c.stats.InfoErr != nil
	c.stats.mu.Unlock()
	if skip {
		return
	}

	tcpConn, ok := c.Conn.(*net.TCPConn)
	if !ok {
		return
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return
	}

	var sysInfo *tcpinfo.SysInfo
	ctrlErr := rawConn.Control(func(fd uintptr) {
		sysInfo, err = tcpinfo.GetTCPInfo(fd)
	})

	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	if ctrlErr != nil {
		c.stats.InfoErr = ctrlErr
		return
	}
	if err != nil {
		c.stats.InfoErr = err
		return
	}
	*dst = sysInfo.ToInfo()
}

func (c *instrumentedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.stats.addRx(n)
	}
	return n, err
}

func (c *instrumentedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.stats.addTx(n)
	}
	return n, err
}

// Close snapshots a final TCP_INFO reading before closing the underlying
// connection.
func (c *instrumentedConn) Close() error {
	c.gatherTCPInfo(&c.stats.ClosedInfo)
	return c.Conn.Close()
}
