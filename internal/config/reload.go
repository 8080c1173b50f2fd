// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/xg2g/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Artifact names the four hot-reloadable configuration artifacts.
type Artifact string

const (
	ArtifactMain      Artifact = "main"
	ArtifactSources   Artifact = "sources"
	ArtifactApiProxy  Artifact = "api_proxy"
	ArtifactMappings  Artifact = "mappings"
)

// ReloadEvent is published on a reload attempt, success or failure.
type ReloadEvent struct {
	Artifact Artifact
	Err      error
}

// Manager owns the four independently-swappable configuration snapshots
// and, optionally, a directory watcher that reloads them on write, create
// or rename file events. It does not wait for a close-after-write event;
// a burst of events is collapsed by the debounce alone. Directly grounded
// on the teacher's ConfigHolder: fsnotify on the parent directory (so
// atomic tmp+rename editor writes are seen), a 500ms debounce, and a
// reloadOpMu serializing concurrent reload triggers.
type Manager struct {
	paths     *Holder[ConfigPaths]
	main      *Holder[MainConfig]
	sources   *Holder[SourcesConfig]
	apiProxy  *Holder[ApiProxyConfig]
	mappings  *Holder[MappingsConfig]

	reloadOpMu sync.Mutex

	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- ReloadEvent
}

// NewManager loads all four artifacts once and returns a ready Manager.
// An empty path for an optional artifact yields its zero value.
func NewManager(paths ConfigPaths) (*Manager, error) {
	main, err := LoadMainConfig(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load main config: %w", err)
	}

	var sources SourcesConfig
	if paths.SourcePath != "" {
		sources, err = LoadSourcesConfig(paths.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("load sources config: %w", err)
		}
	}

	apiProxy := ApiProxyConfig{Persistence: PersistenceEmbedded}
	if paths.ApiProxyPath != "" {
		apiProxy, err = LoadApiProxyConfig(paths.ApiProxyPath)
		if err != nil {
			return nil, fmt.Errorf("load api-proxy config: %w", err)
		}
	}

	var mappings MappingsConfig
	if paths.MappingPath != "" {
		mappings, err = LoadMappingsConfig(paths.MappingPath)
		if err != nil {
			return nil, fmt.Errorf("load mappings config: %w", err)
		}
	}

	return &Manager{
		paths:    NewHolder(paths),
		main:     NewHolder(main),
		sources:  NewHolder(sources),
		apiProxy: NewHolder(apiProxy),
		mappings: NewHolder(mappings),
		logger:   xglog.WithComponent("config"),
	}, nil
}

func (m *Manager) Main() MainConfig           { return m.main.Load() }
func (m *Manager) Sources() SourcesConfig     { return m.sources.Load() }
func (m *Manager) ApiProxy() ApiProxyConfig   { return m.apiProxy.Load() }
func (m *Manager) Mappings() MappingsConfig   { return m.mappings.Load() }
func (m *Manager) Paths() ConfigPaths         { return m.paths.Load() }

// RegisterListener registers a channel to receive a ReloadEvent whenever a
// reload attempt (success or failure) completes. Sends are non-blocking;
// a full channel causes the event to be dropped and logged.
func (m *Manager) RegisterListener(ch chan<- ReloadEvent) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, ch)
}

func (m *Manager) notify(ev ReloadEvent) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, ch := range m.listeners {
		select {
		case ch <- ev:
		default:
			m.logger.Warn().
				Str("event", "config.listener_skip").
				Str("artifact", string(ev.Artifact)).
				Msg("skipped notifying reload listener (channel full)")
		}
	}
}

// ReloadArtifact reloads exactly one artifact from its configured path.
// On validation failure the prior snapshot is retained and the error is
// returned and published via notify; it never aborts the process.
func (m *Manager) ReloadArtifact(_ context.Context, artifact Artifact) error {
	m.reloadOpMu.Lock()
	defer m.reloadOpMu.Unlock()

	paths := m.paths.Load()
	var err error

	switch artifact {
	case ArtifactMain:
		var next MainConfig
		next, err = LoadMainConfig(paths.ConfigPath)
		if err == nil {
			m.main.Store(next)
			if paths.MappingPath != "" {
				err = m.reloadMappingsLocked(paths.MappingPath)
			}
		}
	case ArtifactSources:
		if paths.SourcePath == "" {
			err = ErrNoConfigPath
			break
		}
		var next SourcesConfig
		next, err = LoadSourcesConfig(paths.SourcePath)
		if err == nil {
			m.sources.Store(next)
		}
	case ArtifactApiProxy:
		if paths.ApiProxyPath == "" {
			err = ErrNoConfigPath
			break
		}
		err = m.reloadApiProxyLocked(paths.ApiProxyPath)
	case ArtifactMappings:
		if paths.MappingPath == "" {
			err = ErrNoConfigPath
			break
		}
		err = m.reloadMappingsLocked(paths.MappingPath)
	default:
		err = fmt.Errorf("config: unknown artifact %q", artifact)
	}

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Str("artifact", string(artifact)).
			Msg("configuration reload failed, keeping prior snapshot")
	} else {
		m.logger.Info().
			Str("event", "config.reload_success").
			Str("artifact", string(artifact)).
			Msg("configuration reloaded")
	}

	m.notify(ReloadEvent{Artifact: artifact, Err: err})
	return err
}

func (m *Manager) reloadMappingsLocked(path string) error {
	next, err := LoadMappingsConfig(path)
	if err != nil {
		return err
	}
	m.mappings.Store(next)
	return nil
}

// reloadApiProxyLocked handles the embedded-vs-user-db persistence-mode
// migration (4.J): if the mode flips between the currently held snapshot
// and the file just read, the entries are merged into the new destination
// and the manager persists that merge. Migration errors are logged but do
// not abort the reload of the rest of the file's contents.
func (m *Manager) reloadApiProxyLocked(path string) error {
	prev := m.apiProxy.Load()
	next, err := LoadApiProxyConfig(path)
	if err != nil {
		return err
	}

	if prev.Persistence != "" && prev.Persistence != next.Persistence {
		merged := mergeApiUsers(prev.Users, next.Users)
		next.Users = merged
		if err := SaveApiProxyConfig(path, next); err != nil {
			m.logger.Error().
				Err(err).
				Str("event", "config.api_proxy_migration_failed").
				Msg("api-proxy persistence-mode migration failed")
		}
	}

	m.apiProxy.Store(next)
	return nil
}

func mergeApiUsers(a, b []ApiUser) []ApiUser {
	byName := make(map[string]ApiUser, len(a)+len(b))
	for _, u := range a {
		byName[u.Username] = u
	}
	for _, u := range b {
		byName[u.Username] = u
	}
	out := make([]ApiUser, 0, len(byName))
	for _, u := range byName {
		out = append(out, u)
	}
	return out
}

// StartWatcher watches each configured artifact's parent directory and
// debounces write, create and rename events on an artifact's file into a
// single ReloadArtifact call, 500ms after the last event.
// An empty path for an artifact means it is never watched.
func (m *Manager) StartWatcher(ctx context.Context) error {
	paths := m.paths.Load()

	watched := map[string]Artifact{}
	dirs := map[string]bool{}
	for path, artifact := range map[string]Artifact{
		paths.ConfigPath:  ArtifactMain,
		paths.SourcePath:  ArtifactSources,
		paths.ApiProxyPath: ArtifactApiProxy,
		paths.MappingPath: ArtifactMappings,
	} {
		if path == "" {
			continue
		}
		watched[filepath.Base(path)] = artifact
		dirs[filepath.Dir(path)] = true
	}

	if len(dirs) == 0 {
		m.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config hot-reload disabled (no file paths configured)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	m.watcher = watcher

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watch config dir %s: %w", dir, err)
		}
	}

	m.logger.Info().
		Str("event", "config.watcher_started").
		Msg("watching configuration files for changes")

	go m.watchLoop(ctx, watched)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watched map[string]Artifact) {
	debounceDuration := 500 * time.Millisecond
	timers := map[Artifact]*time.Timer{}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			artifact, known := watched[filepath.Base(event.Name)]
			if !known {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			if t := timers[artifact]; t != nil {
				t.Stop()
			}
			timers[artifact] = time.AfterFunc(debounceDuration, func() {
				_ = m.ReloadArtifact(ctx, artifact)
			})

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop stops the directory watcher, if running.
func (m *Manager) Stop() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}
