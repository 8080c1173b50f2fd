// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/xg2g/internal/types"
)

func TestCopyAllowedHeaders_OnlyCopiesAllowlist(t *testing.T) {
	src := http.Header{}
	src.Set("Range", "bytes=0-100")
	src.Set("Authorization", "Bearer secret")
	src.Set("Host", "internal.example")
	src.Set("User-Agent", "test-agent")

	dst := http.Header{}
	CopyAllowedHeaders(dst, src)

	assert.Equal(t, "bytes=0-100", dst.Get("Range"))
	assert.Equal(t, "test-agent", dst.Get("User-Agent"))
	assert.Empty(t, dst.Get("Authorization"))
	assert.Empty(t, dst.Get("Host"))
}

func TestHeaderFilterFor_StripsRangeHeadersForLiveItems(t *testing.T) {
	h := http.Header{}
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Range", "bytes 0-10/20")

	HeaderFilterFor(types.ItemLive).Apply(h)

	assert.Empty(t, h.Get("Accept-Ranges"))
	assert.Empty(t, h.Get("Content-Range"))
}

func TestHeaderFilterFor_PreservesRangeHeadersForVideo(t *testing.T) {
	h := http.Header{}
	h.Set("Accept-Ranges", "bytes")

	HeaderFilterFor(types.ItemVideo).Apply(h)

	assert.Equal(t, "bytes", h.Get("Accept-Ranges"))
}

func TestFallbackHeaderFilter_ForcesContentType(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", "123")

	FallbackHeaderFilter().Apply(h)

	assert.Equal(t, "video/mp2t", h.Get("Content-Type"))
	assert.Empty(t, h.Get("Content-Length"))
}
