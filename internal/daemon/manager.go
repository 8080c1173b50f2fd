// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown.
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown.
	RegisterShutdownHook(name string, hook ShutdownHook)
}

// manager implements the Manager interface.
type manager struct {
	deps Deps

	streamServer  *http.Server
	apiServer     *http.Server
	metricsServer *http.Server

	shutdownHooks []namedHook

	started bool
	mu      sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given dependencies.
func NewManager(deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		deps:          deps,
		logger:        deps.Logger.With().Str("component", "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
	}, nil
}

// Start starts all configured servers and blocks until context is cancelled.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	cfg := m.deps.Config
	m.logger.Info().Str("listen", cfg.Server.ListenAddr).Msg("starting daemon manager")

	errChan := make(chan error, 3)

	m.startStreamServer(cfg.Server.ListenAddr, errChan)

	if m.deps.MetricsHandler != nil && m.deps.MetricsAddr != "" {
		m.startMetricsServer(m.deps.MetricsAddr, errChan)
	}

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("server error, initiating shutdown")
		if shutdownErr := m.Shutdown(context.Background()); shutdownErr != nil {
			return fmt.Errorf("%w (shutdown: %v)", err, shutdownErr)
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
		return m.Shutdown(context.Background())
	}
}

// startStreamServer starts the streaming-core HTTP server (component G).
// When an API handler is registered, both share this one listener: a mux
// routes /m3u-stream/, /resource/ and /hls/ to the stream handler and
// everything else to the API handler; otherwise the stream handler alone
// serves the address. This matches the teacher's single-listen-addr
// shape, with metrics broken out onto its own port.
func (m *manager) startStreamServer(addr string, errChan chan<- error) {
	handler := m.deps.StreamHandler
	if m.deps.APIHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/", m.deps.APIHandler)
		mux.Handle("/m3u-stream/", m.deps.StreamHandler)
		mux.Handle("/resource/", m.deps.StreamHandler)
		mux.Handle("/hls/", m.deps.StreamHandler)
		handler = mux
	}

	m.streamServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		m.logger.Info().Str("addr", addr).Msg("stream server listening")
		if err := m.streamServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("stream server failed")
			errChan <- fmt.Errorf("stream server: %w", err)
		}
	}()
}

func (m *manager) startMetricsServer(addr string, errChan chan<- error) {
	m.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           m.deps.MetricsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := m.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("metrics server failed")
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
}

// Shutdown gracefully shuts down all servers.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrManagerNotStarted
	}

	m.logger.Info().Msg("shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error

	if m.streamServer != nil {
		if err := m.streamServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stream server shutdown: %w", err))
		}
	}
	if m.metricsServer != nil {
		if err := m.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		hook := m.shutdownHooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().Err(err).Str("hook", hook.name).Dur("duration", time.Since(hookStart)).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().Str("hook", hook.name).Dur("duration", time.Since(hookStart)).Msg("shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during
// shutdown. Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
