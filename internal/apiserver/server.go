// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package apiserver

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/xg2g/internal/bouquet"
	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/filelock"
	"github.com/ManuGH/xg2g/internal/health"
	"github.com/ManuGH/xg2g/internal/rewrite"
	"github.com/ManuGH/xg2g/internal/types"
)

// Server is the catalog-serving HTTP surface: per-target playlist output,
// rendered at request time so each user's stream URLs embed their own
// credentials (see internal/ingest's DESIGN note on output artifacts),
// plus the operator-facing health/readiness endpoints.
type Server struct {
	configs *config.Manager
	auth    *catalog.Authenticator
	health  *health.Manager
	workDir string
	locks   *filelock.Registry
	logger  zerolog.Logger
}

// New builds a Server. workDir must match the ingestion pipeline's
// working directory, so {workDir}/{target}/catalog.db is where each
// target's committed items live. locks, if non-nil, is the same
// file-lock registry the ingestion pipeline writes under, so a playlist
// read never interleaves with an in-flight commit to the same target.
func New(configs *config.Manager, auth *catalog.Authenticator, hm *health.Manager, workDir string, locks *filelock.Registry, logger zerolog.Logger) *Server {
	return &Server{configs: configs, auth: auth, health: hm, workDir: workDir, locks: locks, logger: logger}
}

// Handler builds the mux routing health/readiness and playlist requests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.health.ServeHealth)
	mux.HandleFunc("/readyz", s.health.ServeReady)
	mux.HandleFunc("/playlist/", s.servePlaylist)
	return mux
}

// servePlaylist serves GET /playlist/{target}.m3u?username=&password=,
// authenticating against catalog.Authenticator and filtering items
// through the caller's bouquet allowlist before rewriting each item's
// outward URL to a locally-issued one.
func (s *Server) servePlaylist(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/playlist/"), ".m3u")
	if target == "" || strings.Contains(target, "/") {
		http.NotFound(w, r)
		return
	}

	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")
	_, expired, ok := s.auth.Authenticate(username, password)
	if !ok || expired {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var userBouquet []string
	for _, u := range s.configs.ApiProxy().Users {
		if u.Username == username {
			userBouquet = u.Bouquet
			break
		}
	}

	dbPath := filepath.Join(s.workDir, target, "catalog.db")
	idxPath := filepath.Join(s.workDir, target, "catalog.idx")

	if s.locks != nil {
		guard := s.locks.ReadLock(dbPath)
		defer guard.Release()
	}

	items, err := loadTargetItems(dbPath, idxPath)
	if err != nil {
		s.logger.Error().Err(err).Str("target", target).Msg("failed to load playlist target")
		http.Error(w, "target unavailable", http.StatusNotFound)
		return
	}

	server := rewrite.ServerInfo{PublicURL: s.configs.Main().Server.PublicURL}
	user := rewrite.UserCredentials{Username: username, Password: password}
	resolve := func(item types.PlaylistItem) string { return rewrite.GetStreamURL(server, user, item) }

	it := bouquet.NewIterator(&sliceSource{items: items}, bouquet.New(userBouquet))
	text := bouquet.NewM3UTextIterator(it, resolve)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	_, _ = w.Write([]byte(text.Header()))
	for {
		line, ok := text.Next()
		if !ok {
			break
		}
		_, _ = w.Write([]byte(line))
	}
}
