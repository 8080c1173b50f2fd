// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const mainYAML = `
server:
  listen_addr: ":8080"
working_dir: %s
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
}

func TestManager_NewManager_LoadsAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	sourcePath := filepath.Join(dir, "sources.yml")
	apiProxyPath := filepath.Join(dir, "api_proxy.yml")
	mappingPath := filepath.Join(dir, "mappings.yml")

	writeFile(t, configPath, "server:\n  listen_addr: \":9090\"\nworking_dir: "+dir+"\n")
	writeFile(t, sourcePath, "sources:\n  - name: provider-a\n    inputs:\n      - kind: m3u\n        url: http://example.test/a.m3u\n")
	writeFile(t, apiProxyPath, "persistence: embedded\nusers:\n  - username: alice\n    max_connections: 2\n")
	writeFile(t, mappingPath, "targets:\n  - name: t1\n    inputs: [provider-a]\n")

	mgr, err := NewManager(ConfigPaths{
		ConfigPath:   configPath,
		SourcePath:   sourcePath,
		ApiProxyPath: apiProxyPath,
		MappingPath:  mappingPath,
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", mgr.Main().Server.ListenAddr)
	require.Len(t, mgr.Sources().Sources, 1)
	require.Equal(t, "alice", mgr.ApiProxy().Users[0].Username)
	require.Len(t, mgr.Mappings().Targets, 1)
}

func TestManager_ReloadArtifact_AppliesNewFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	writeFile(t, configPath, "server:\n  listen_addr: \":8080\"\nworking_dir: "+dir+"\n")

	mgr, err := NewManager(ConfigPaths{ConfigPath: configPath})
	require.NoError(t, err)
	require.Equal(t, ":8080", mgr.Main().Server.ListenAddr)

	writeFile(t, configPath, "server:\n  listen_addr: \":8081\"\nworking_dir: "+dir+"\n")
	require.NoError(t, mgr.ReloadArtifact(context.Background(), ArtifactMain))
	require.Equal(t, ":8081", mgr.Main().Server.ListenAddr)
}

func TestManager_ReloadArtifact_KeepsPriorSnapshotOnValidationFailure(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	writeFile(t, configPath, "server:\n  listen_addr: \":8080\"\nworking_dir: "+dir+"\n")

	mgr, err := NewManager(ConfigPaths{ConfigPath: configPath})
	require.NoError(t, err)

	writeFile(t, configPath, "server:\n  listen_addr: \"\"\nworking_dir: "+dir+"\n")
	err = mgr.ReloadArtifact(context.Background(), ArtifactMain)
	require.Error(t, err)
	require.Equal(t, ":8080", mgr.Main().Server.ListenAddr, "prior snapshot must survive a failed reload")
}

func TestManager_ReloadArtifact_PublishesEvent(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	writeFile(t, configPath, "server:\n  listen_addr: \":8080\"\nworking_dir: "+dir+"\n")

	mgr, err := NewManager(ConfigPaths{ConfigPath: configPath})
	require.NoError(t, err)

	events := make(chan ReloadEvent, 1)
	mgr.RegisterListener(events)

	require.NoError(t, mgr.ReloadArtifact(context.Background(), ArtifactMain))

	select {
	case ev := <-events:
		require.Equal(t, ArtifactMain, ev.Artifact)
		require.NoError(t, ev.Err)
	case <-time.After(time.Second):
		t.Fatal("expected reload event")
	}
}

func TestManager_ReloadArtifact_NoPathConfigured(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	writeFile(t, configPath, "server:\n  listen_addr: \":8080\"\nworking_dir: "+dir+"\n")

	mgr, err := NewManager(ConfigPaths{ConfigPath: configPath})
	require.NoError(t, err)

	err = mgr.ReloadArtifact(context.Background(), ArtifactSources)
	require.ErrorIs(t, err, ErrNoConfigPath)
}
