// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bootstrap is the production composition root: it assembles every
// component (config, provider/user admission, ingestion, catalog
// resolution, the streaming core, and the catalog-serving HTTP surface)
// into one runnable daemon.Manager.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/xg2g/internal/apiserver"
	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/daemon"
	"github.com/ManuGH/xg2g/internal/filelock"
	"github.com/ManuGH/xg2g/internal/health"
	"github.com/ManuGH/xg2g/internal/ingest"
	xglog "github.com/ManuGH/xg2g/internal/log"
	platformnet "github.com/ManuGH/xg2g/internal/platform/net"
	"github.com/ManuGH/xg2g/internal/providermgr"
	"github.com/ManuGH/xg2g/internal/proxy"
	"github.com/ManuGH/xg2g/internal/rescache"
	"github.com/ManuGH/xg2g/internal/rewrite"
	"github.com/ManuGH/xg2g/internal/usermgr"
	"github.com/ManuGH/xg2g/internal/vidmap"
)

// fetchTimeout bounds a single upstream ingestion fetch (M3U body or one
// Xtream Codes API call). Streaming dials are unbounded server-side,
// relying on the request context instead; see catalog.NewHTTPUpstream.
const fetchTimeout = 30 * time.Second

// Options selects which configuration artifacts to load and which of the
// configured targets to ingest at startup.
type Options struct {
	Paths config.ConfigPaths

	// Targets restricts the initial ingest to these target names. Empty
	// ingests every target named in MappingsConfig.
	Targets []string

	Version string
}

// Container is the production dependency graph: every built component plus
// the runnable daemon.Manager wrapping them.
type Container struct {
	Logger  zerolog.Logger
	Configs *config.Manager

	Providers *providermgr.Manager
	Users     *usermgr.Manager
	Locks     *filelock.Registry

	Pipeline *ingest.Pipeline
	vidmaps  map[string]*vidmap.Mapping

	Auth      *catalog.Authenticator
	ResCache  *rescache.Cache
	Health    *health.Manager
	APIServer *apiserver.Server

	StreamHandler *proxy.StreamHandler
	Manager       daemon.Manager
}

// WireServices builds the production dependency graph: load configuration,
// register providers, run an initial synchronous ingest for the selected
// targets, and assemble the streaming core and catalog-serving HTTP
// surface into one daemon.Manager.
func WireServices(ctx context.Context, opts Options) (*Container, error) {
	if ctx == nil {
		return nil, fmt.Errorf("wire services context is nil")
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "xg2g", Version: opts.Version})
	logger := xglog.WithComponent("bootstrap")

	configs, err := config.NewManager(opts.Paths)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	mainCfg := configs.Main()
	if mainCfg.LogLevel != "" {
		xglog.Configure(xglog.Config{Level: mainCfg.LogLevel, Service: "xg2g", Version: opts.Version})
		logger = xglog.WithComponent("bootstrap")
	}

	providers := providermgr.New()
	registerProviders(providers, configs.Sources().Sources)

	users := usermgr.New(mainCfg.Streaming.GracePeriod > 0)
	locks := filelock.New()

	workDir := mainCfg.WorkingDir
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory %s: %w", workDir, err)
	}

	fetcher := ingest.NewFetcher(fetchTimeout)
	pipeline := ingest.NewPipeline(fetcher, workDir, noopHooks)
	pipeline.SetLocks(locks)
	if mainCfg.Outbound.Enabled {
		pipeline.SetOutboundPolicy(platformnet.OutboundPolicy{
			Enabled: true,
			Allow: platformnet.OutboundAllowlist{
				Hosts:   mainCfg.Outbound.Hosts,
				CIDRs:   mainCfg.Outbound.CIDRs,
				Ports:   mainCfg.Outbound.Ports,
				Schemes: mainCfg.Outbound.Schemes,
			},
		})
	}

	targets := selectTargets(configs.Mappings().Targets, opts.Targets)
	vidmaps := make(map[string]*vidmap.Mapping, len(targets))
	catalogs := make([]*catalog.Catalog, 0, len(targets))

	for _, target := range targets {
		_, _, vidmapDir, err := pipeline.TargetPaths(target.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve target directory for %s: %w", target.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(vidmapDir), 0o755); err != nil {
			return nil, fmt.Errorf("create target directory for %s: %w", target.Name, err)
		}

		vm, err := vidmap.Open(vidmapDir)
		if err != nil {
			return nil, fmt.Errorf("open virtual-id mapping for target %s: %w", target.Name, err)
		}
		vidmaps[target.Name] = vm

		cat := catalog.New(vm)
		if err := pipeline.IngestTarget(ctx, target, configs.Sources().Sources, cat); err != nil {
			logger.Error().Err(err).Str("target", target.Name).Msg("initial ingest failed, target starts empty")
		}
		catalogs = append(catalogs, cat)
	}

	auth := catalog.NewAuthenticator(configs)
	upstream := catalog.NewHTTPUpstream(0)

	resCache := rescache.New(mainCfg.Cache.Dir, mainCfg.Cache.CapacityBytes)
	if mainCfg.Cache.Dir != "" {
		if err := os.MkdirAll(mainCfg.Cache.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create resource cache directory: %w", err)
		}
		if err := resCache.Scan(); err != nil {
			logger.Warn().Err(err).Msg("resource cache scan failed, starting empty")
		}
	}

	healthMgr := health.NewManager(opts.Version)
	apiSrv := apiserver.New(configs, auth, healthMgr, workDir, locks, logger)

	reconnect := proxy.DefaultReconnectPolicy()
	if mainCfg.Streaming.ReconnectAttempts > 0 {
		reconnect = proxy.ReconnectPolicy{
			Attempts:   mainCfg.Streaming.ReconnectAttempts,
			BaseDelay:  mainCfg.Streaming.ReconnectBaseDelay,
			Multiplier: mainCfg.Streaming.ReconnectMultiplier,
		}
	}

	var fallback *proxy.RingBuffer
	if mainCfg.Streaming.FallbackVideoDir != "" {
		data, err := os.ReadFile(filepath.Join(mainCfg.Streaming.FallbackVideoDir, "fallback.ts"))
		if err != nil {
			logger.Warn().Err(err).Msg("fallback video unavailable, exhausted streams serve no fallback")
		} else {
			fallback = proxy.NewRingBuffer(data)
		}
	}

	hlsConfig, err := buildHLSConfig(mainCfg)
	if err != nil {
		return nil, fmt.Errorf("build hls token cipher: %w", err)
	}

	streamHandler := proxy.NewStreamHandler(proxy.HandlerConfig{
		Users:       users,
		Providers:   providers,
		Auth:        auth,
		Catalog:     newMultiCatalog(catalogs),
		Upstream:    upstream,
		GracePeriod: mainCfg.Streaming.GracePeriod,
		Reconnect:   reconnect,
		Fallback:    fallback,
		PersistDir:  persistDir(mainCfg),
		HLS:         hlsConfig,
	})

	metricsAddr := ""

	deps := daemon.Deps{
		Logger:         logger,
		Config:         mainCfg,
		StreamHandler:  newStreamRouter(streamHandler),
		APIHandler:     apiSrv.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    metricsAddr,
	}

	mgr, err := daemon.NewManager(deps)
	if err != nil {
		return nil, fmt.Errorf("create daemon manager: %w", err)
	}

	mgr.RegisterShutdownHook("config_watcher", func(context.Context) error {
		configs.Stop()
		return nil
	})
	mgr.RegisterShutdownHook("vidmaps", func(context.Context) error {
		var firstErr error
		for name, vm := range vidmaps {
			if err := vm.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close vidmap for target %s: %w", name, err)
			}
		}
		return firstErr
	})

	if mainCfg.HotReload {
		if err := configs.StartWatcher(ctx); err != nil {
			logger.Warn().Err(err).Msg("config hot-reload watcher failed to start")
		}
	}

	return &Container{
		Logger:        logger,
		Configs:       configs,
		Providers:     providers,
		Users:         users,
		Locks:         locks,
		Pipeline:      pipeline,
		vidmaps:       vidmaps,
		Auth:          auth,
		ResCache:      resCache,
		Health:        healthMgr,
		APIServer:     apiSrv,
		StreamHandler: streamHandler,
		Manager:       mgr,
	}, nil
}

// Run starts the daemon manager and blocks until ctx is cancelled or a
// server fails.
func (c *Container) Run(ctx context.Context) error {
	if c == nil || c.Manager == nil {
		return fmt.Errorf("container is not fully initialized")
	}
	return c.Manager.Start(ctx)
}

// buildHLSConfig builds the HLS manifest rewriter's token cipher from
// hls_token.secret. An empty secret disables manifest rewriting (the
// returned HLSConfig.Cipher is nil); a non-empty one must be 16 bytes,
// already enforced by MainConfig.Validate.
func buildHLSConfig(mainCfg config.MainConfig) (proxy.HLSConfig, error) {
	if mainCfg.HLSToken.Secret == "" {
		return proxy.HLSConfig{}, nil
	}
	var secret [16]byte
	if len(mainCfg.HLSToken.Secret) != len(secret) {
		return proxy.HLSConfig{}, fmt.Errorf("hls_token.secret must be exactly 16 bytes")
	}
	copy(secret[:], mainCfg.HLSToken.Secret)

	cipher, err := rewrite.NewTokenCipher(secret)
	if err != nil {
		return proxy.HLSConfig{}, err
	}
	return proxy.HLSConfig{
		Cipher: cipher,
		Server: rewrite.ServerInfo{PublicURL: mainCfg.Server.PublicURL},
	}, nil
}

func persistDir(mainCfg config.MainConfig) string {
	if !mainCfg.Streaming.PersistTee {
		return ""
	}
	return filepath.Join(mainCfg.WorkingDir, "persist")
}

func selectTargets(all []config.TargetDef, names []string) []config.TargetDef {
	if len(names) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []config.TargetDef
	for _, t := range all {
		if wanted[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
