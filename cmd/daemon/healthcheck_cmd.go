// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// statusResponse mirrors the fields of health.HealthResponse /
// health.ReadinessResponse that the CLI probe cares about, without
// importing internal/health into the CLI binary for a single field.
type statusResponse struct {
	Status string `json:"status"`
}

func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		printHealthcheckUsage(fs.Output())
	}
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	port := fs.Int("port", 8088, "API port to check")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error parsing healthcheck flags: %v\n", err)
		return 2
	}

	client := http.Client{Timeout: *timeout}

	path := "/readyz"
	if *mode == "live" {
		path = "/healthz"
	}

	url := fmt.Sprintf("http://localhost:%d%s", *port, path)
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed (network): %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed (decode): %v\n", err)
		return 1
	}

	// /readyz returns 200 for "degraded" (the process is alive and serving,
	// just not fully ready); only "unhealthy" and non-2xx are a failure.
	if resp.StatusCode >= 300 || status.Status == "unhealthy" {
		fmt.Fprintf(os.Stderr, "healthcheck failed: status=%d body.status=%s\n", resp.StatusCode, status.Status)
		return 1
	}

	fmt.Printf("healthcheck ok (%s, status=%s)\n", *mode, status.Status)
	return 0
}

func printHealthcheckUsage(ioW io.Writer) {
	_, _ = fmt.Fprintln(ioW, "Usage:")
	_, _ = fmt.Fprintln(ioW, "  xg2g healthcheck [--mode=ready|live] [--port=8088] [--timeout=5s]")
	_, _ = fmt.Fprintln(ioW, "  xg2g --healthcheck   (ready mode with the default port and timeout)")
	_, _ = fmt.Fprintln(ioW, "")
	_, _ = fmt.Fprintln(ioW, "Flags:")
	_, _ = fmt.Fprintln(ioW, "  --mode string      healthcheck mode: ready or live (default: ready)")
	_, _ = fmt.Fprintln(ioW, "  --port int         API port to check (default: 8088)")
	_, _ = fmt.Fprintln(ioW, "  --timeout duration check timeout (default: 5s)")
}
