// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ManuGH/xg2g/internal/hls"
	"github.com/ManuGH/xg2g/internal/log"
	"github.com/ManuGH/xg2g/internal/rewrite"
	"github.com/ManuGH/xg2g/internal/types"
)

// HLSConfig bundles the pieces the manifest rewriter needs. A nil Cipher
// disables HLS manifest rewriting: ServeStream falls back to pumping an
// HLS item's manifest body through unrewritten, same as any other live
// item, matching the pre-4.H.1 behavior for deployments that never set
// hls_token.secret.
type HLSConfig struct {
	Cipher *rewrite.TokenCipher
	Server rewrite.ServerInfo
}

// HLSSegmentRequest is the parsed form of a locally-issued HLS segment URL,
// /m3u-stream/hls/{user}/{pass}/{input_id}/{virtual_id}/{token}.
type HLSSegmentRequest struct {
	Username  string
	Password  string
	InputID   string
	VirtualID uint32
	Token     string
}

// serveHLSManifest fetches entry's upstream manifest and rewrites every
// segment URI and URI="..." attribute into a locally-issued, token-bearing
// URL per 4.H.1, then writes the rewritten manifest to w.
func (h *StreamHandler) serveHLSManifest(w http.ResponseWriter, r *http.Request, req StreamRequest, entry CatalogEntry) {
	logger := log.WithComponent("hls-manifest")
	ctx := r.Context()

	base, err := url.Parse(entry.UpstreamURL)
	if err != nil {
		logger.Error().Err(err).Str("url", entry.UpstreamURL).Msg("invalid manifest base url")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	body, err := h.cfg.Upstream.Open(ctx, entry.UpstreamURL)
	if err != nil {
		logger.Warn().Err(err).Msg("manifest fetch failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		logger.Warn().Err(err).Msg("manifest read failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	inputID := strconv.FormatUint(uint64(req.VirtualID), 10)
	rewriteURI := func(resolved *url.URL) (string, error) {
		token, err := h.cfg.HLS.Cipher.Seal(req.Username, resolved.String())
		if err != nil {
			return "", err
		}
		return rewrite.GetHLSSegmentURL(h.cfg.HLS.Server,
			rewrite.UserCredentials{Username: req.Username, Password: req.Password},
			inputID, req.VirtualID, token), nil
	}

	rewritten, _, err := hls.RewriteManifest(base, string(raw), rewriteURI)
	if err != nil {
		logger.Warn().Err(err).Msg("manifest rewrite failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	_, _ = io.WriteString(w, rewritten)
}

// ServeHLSSegment handles one decrypted-token segment fetch: it opens
// req.Token to recover the session that minted it and the upstream URL it
// names, checks the session still belongs to req.Username, and proxies the
// upstream response unchanged. Unlike ServeStream this does not run
// admission: the manifest fetch that minted the token already passed
// admission for this viewing session, and HTTP range-split segment/sub-
// manifest requests are an implementation detail of the client's HLS
// player rather than a second independent stream.
func (h *StreamHandler) ServeHLSSegment(w http.ResponseWriter, r *http.Request, req HLSSegmentRequest) {
	logger := log.WithComponent("hls-segment")
	ctx := r.Context()

	if _, _, ok := h.cfg.Auth.Authenticate(req.Username, req.Password); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if h.cfg.HLS.Cipher == nil {
		http.NotFound(w, r)
		return
	}

	session, upstreamURL, err := h.cfg.HLS.Cipher.Open(req.Token)
	if err != nil || session != req.Username {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := h.cfg.Upstream.Open(ctx, upstreamURL)
	if err != nil {
		logger.Warn().Err(err).Msg("segment fetch failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer body.Close()

	HeaderFilterFor(types.ItemLiveHLS).Apply(w.Header())
	if _, err := io.Copy(w, body); err != nil {
		logger.Debug().Err(err).Msg("segment copy ended")
	}
}
