/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Command arcp-ping dials an ARCP module and runs one diagnostic request,
// printing the result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	arcp "github.com/atrad/go-arcp"
)

func main() {
	addr := flag.String("addr", "", "module address, host:port")
	op := flag.String("op", "ping", "operation: ping, reset, sysid, sysstat")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "usage: arcp-ping -addr host:port [-op ping|reset|sysid|sysstat]")
		os.Exit(2)
	}

	h, err := dial(*addr, *timeout, log)
	if err != nil {
		log.WithError(err).Fatal("dial failed")
	}
	defer h.Close()

	result, err := run(h, *op)
	if err != nil {
		printResult(map[string]any{"op": *op, "error": err.Error()})
		kind, _ := arcp.KindOf(err)
		log.WithField("kind", kind).Error("operation failed")
		os.Exit(1)
	}
	printResult(result)
}

func dial(addr string, timeout time.Duration, log *logrus.Logger) (*arcp.Handle, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return arcp.NewHandle(nc, arcp.WithLogger(logrus.NewEntry(log))), nil
}

func run(h *arcp.Handle, op string) (map[string]any, error) {
	switch op {
	case "ping":
		if err := h.Ping(); err != nil {
			return nil, err
		}
		return map[string]any{"op": "ping", "ok": true, "version": h.Version()}, nil
	case "reset":
		if err := h.Reset(); err != nil {
			return nil, err
		}
		return map[string]any{"op": "reset", "ok": true}, nil
	case "sysid":
		id, err := h.GetSysID()
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "sysid", "result": id}, nil
	case "sysstat":
		stat, err := h.GetSysStat()
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "sysstat", "result": stat}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

func printResult(v map[string]any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
