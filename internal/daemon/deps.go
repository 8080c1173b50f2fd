// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/xg2g/internal/config"
)

// Deps contains dependencies required by the daemon Manager. This allows
// for clean dependency injection and easier testing.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// Config is the live main configuration snapshot.
	Config config.MainConfig

	// StreamHandler serves the streaming core (component G) at the
	// server's configured listen address.
	StreamHandler http.Handler

	// APIHandler serves the catalog/health/readiness HTTP surface
	// (M3U playlist output, /healthz, /readyz). Optional — nil runs in
	// stream-only mode.
	APIHandler http.Handler

	// MetricsHandler is the HTTP handler for Prometheus metrics (if enabled).
	MetricsHandler http.Handler

	// MetricsAddr is the address the metrics server should listen on.
	// Empty disables the metrics server.
	MetricsAddr string
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.StreamHandler == nil {
		return ErrMissingStreamHandler
	}
	return nil
}
