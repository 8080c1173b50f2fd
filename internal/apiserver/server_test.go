// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package apiserver

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/docstore"
	"github.com/ManuGH/xg2g/internal/health"
	"github.com/ManuGH/xg2g/internal/types"
)

func newTestConfigManager(t *testing.T) *config.Manager {
	t.Helper()
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "config.yaml")
	apiProxyPath := filepath.Join(dir, "api-proxy.yaml")
	require.NoError(t, os.WriteFile(mainPath, []byte("server:\n  public_url: http://proxy.local\n"), 0o600))
	require.NoError(t, os.WriteFile(apiProxyPath, []byte(
		"persistence: embedded\nusers:\n  - username: alice\n    password: secret\n    max_connections: 2\n    bouquet: [\"News\"]\n",
	), 0o600))
	mgr, err := config.NewManager(config.ConfigPaths{ConfigPath: mainPath, ApiProxyPath: apiProxyPath})
	require.NoError(t, err)
	return mgr
}

func writeTestTarget(t *testing.T, workDir, target string, items []types.PlaylistItem) {
	t.Helper()
	dir := filepath.Join(workDir, target)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	w, err := docstore.OpenWriter(filepath.Join(dir, "catalog.db"), filepath.Join(dir, "catalog.idx"))
	require.NoError(t, err)
	for _, item := range items {
		record, err := catalog.EncodeItem(item)
		require.NoError(t, err)
		require.NoError(t, w.Write(item.ProviderID, record))
	}
	require.NoError(t, w.Commit())
}

func TestServer_ServePlaylist_FiltersByBouquetAndRewritesURLs(t *testing.T) {
	cfgMgr := newTestConfigManager(t)
	auth := catalog.NewAuthenticator(cfgMgr)
	hm := health.NewManager("test")

	workDir := t.TempDir()
	writeTestTarget(t, workDir, "main", []types.PlaylistItem{
		{ProviderID: "a", VirtualID: 1, Group: "News", Name: "A", URL: "http://up/1"},
		{ProviderID: "b", VirtualID: 2, Group: "Sports", Name: "B", URL: "http://up/2"},
	})

	srv := New(cfgMgr, auth, hm, workDir, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/playlist/main.m3u?username=alice&password=secret", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "#EXTM3U")
	assert.Contains(t, string(body), "http://proxy.local/m3u-stream/alice/secret/1")
	assert.NotContains(t, string(body), "/m3u-stream/alice/secret/2")
}

func TestServer_ServePlaylist_WrongCredentialsRejected(t *testing.T) {
	cfgMgr := newTestConfigManager(t)
	auth := catalog.NewAuthenticator(cfgMgr)
	hm := health.NewManager("test")
	srv := New(cfgMgr, auth, hm, t.TempDir(), nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/playlist/main.m3u?username=alice&password=wrong", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, 401, w.Result().StatusCode)
}

func TestServer_ServePlaylist_UnknownTargetIs404(t *testing.T) {
	cfgMgr := newTestConfigManager(t)
	auth := catalog.NewAuthenticator(cfgMgr)
	hm := health.NewManager("test")
	srv := New(cfgMgr, auth, hm, t.TempDir(), nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/playlist/missing.m3u?username=alice&password=secret", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, 404, w.Result().StatusCode)
}
