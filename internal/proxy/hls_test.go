// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/xg2g/internal/providermgr"
	"github.com/ManuGH/xg2g/internal/rewrite"
	"github.com/ManuGH/xg2g/internal/types"
	"github.com/ManuGH/xg2g/internal/usermgr"
)

func testCipher(t *testing.T) *rewrite.TokenCipher {
	t.Helper()
	var secret [16]byte
	copy(secret[:], "0123456789abcdef")
	c, err := rewrite.NewTokenCipher(secret)
	require.NoError(t, err)
	return c
}

func TestStreamHandler_RewritesHLSManifestWhenAdmitted(t *testing.T) {
	providers := providermgr.New()
	providers.Register("prov1", 5, 0, "")

	h := NewStreamHandler(HandlerConfig{
		Users:     usermgr.New(false),
		Providers: providers,
		Auth:      fakeAuth{maxConns: 5, ok: true},
		Catalog: fakeCatalog{entry: CatalogEntry{
			ProviderName: "prov1",
			UpstreamURL:  "http://upstream.test/hls/playlist.m3u8",
			ItemType:     types.ItemLiveHLS,
		}},
		Upstream: fakeUpstream{body: "#EXTM3U\n#EXTINF:10,\nseg001.ts\n"},
		HLS: HLSConfig{
			Cipher: testCipher(t),
			Server: rewrite.ServerInfo{PublicURL: "https://proxy.example"},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/m3u-stream/a/b/1", nil)
	h.ServeStream(rec, req, StreamRequest{Username: "a", Password: "b", VirtualID: 1})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "https://proxy.example/m3u-stream/hls/a/b/1/")
	assert.NotContains(t, rec.Body.String(), "upstream.test")
}

func TestStreamHandler_ServeHLSSegment_ResolvesTokenAndProxies(t *testing.T) {
	cipher := testCipher(t)
	token, err := cipher.Seal("alice", "http://upstream.test/hls/seg001.ts")
	require.NoError(t, err)

	h := NewStreamHandler(HandlerConfig{
		Users:     usermgr.New(false),
		Providers: providermgr.New(),
		Auth:      fakeAuth{maxConns: 5, ok: true},
		Upstream:  fakeUpstream{body: "segment-bytes"},
		HLS:       HLSConfig{Cipher: cipher},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/m3u-stream/hls/alice/pw/1/1/"+token, nil)
	h.ServeHLSSegment(rec, req, HLSSegmentRequest{Username: "alice", Password: "pw", InputID: "1", VirtualID: 1, Token: token})

	require.Equal(t, "segment-bytes", rec.Body.String())
}

func TestStreamHandler_ServeHLSSegment_RejectsTokenMintedForAnotherUser(t *testing.T) {
	cipher := testCipher(t)
	token, err := cipher.Seal("alice", "http://upstream.test/hls/seg001.ts")
	require.NoError(t, err)

	h := NewStreamHandler(HandlerConfig{
		Users:     usermgr.New(false),
		Providers: providermgr.New(),
		Auth:      fakeAuth{maxConns: 5, ok: true},
		Upstream:  fakeUpstream{body: "segment-bytes"},
		HLS:       HLSConfig{Cipher: cipher},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/m3u-stream/hls/mallory/pw/1/1/"+token, nil)
	h.ServeHLSSegment(rec, req, HLSSegmentRequest{Username: "mallory", Password: "pw", InputID: "1", VirtualID: 1, Token: token})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamHandler_ServeHLSSegment_NotFoundWhenCipherUnset(t *testing.T) {
	h := NewStreamHandler(HandlerConfig{
		Users:     usermgr.New(false),
		Providers: providermgr.New(),
		Auth:      fakeAuth{maxConns: 5, ok: true},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/m3u-stream/hls/a/b/1/1/tok", nil)
	h.ServeHLSSegment(rec, req, HLSSegmentRequest{Username: "a", Password: "b", InputID: "1", VirtualID: 1, Token: "tok"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
