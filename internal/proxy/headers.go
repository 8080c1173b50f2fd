// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"net/http"

	"golang.org/x/net/http/httpguts"

	"github.com/ManuGH/xg2g/internal/types"
)

// AllowedUpstreamHeaders is the client→upstream copy allowlist (§6.3).
// Host, Authorization, and any locally-issued credential header are never
// forwarded regardless of this list.
var AllowedUpstreamHeaders = []string{"Range", "User-Agent", "Accept", "Accept-Encoding", "Icy-MetaData"}

// CopyAllowedHeaders copies src's allowlisted headers into dst, validating
// each value with httpguts before copy.
func CopyAllowedHeaders(dst, src http.Header) {
	for _, name := range AllowedUpstreamHeaders {
		if !httpguts.ValidHeaderFieldName(name) {
			continue
		}
		for _, v := range src.Values(name) {
			if !httpguts.ValidHeaderFieldValue(v) {
				continue
			}
			dst.Add(name, v)
		}
	}
}

// HeaderFilter strips response headers before they reach the client.
type HeaderFilter struct {
	stripRange   bool
	fallbackOnly bool
}

// HeaderFilterFor returns the header policy for itemType: Live/LiveUnknown
// strip accept-ranges/range/content-range, everything else preserves them.
func HeaderFilterFor(itemType types.ItemType) HeaderFilter {
	switch itemType {
	case types.ItemLive, types.ItemLiveUnknown:
		return HeaderFilter{stripRange: true}
	default:
		return HeaderFilter{}
	}
}

// FallbackHeaderFilter is always used for fallback-video responses: it
// forces content-type to video/mp2t and strips any inherited
// content-type/content-length/*range* headers.
func FallbackHeaderFilter() HeaderFilter {
	return HeaderFilter{stripRange: true, fallbackOnly: true}
}

var rangeHeaders = []string{"Accept-Ranges", "Range", "Content-Range"}

// Apply removes the headers this policy strips from h, and for fallback
// streams also removes Content-Type/Content-Length before the caller sets
// Content-Type: video/mp2t.
func (f HeaderFilter) Apply(h http.Header) {
	if f.stripRange {
		for _, name := range rangeHeaders {
			h.Del(name)
		}
	}
	if f.fallbackOnly {
		h.Del("Content-Type")
		h.Del("Content-Length")
		h.Set("Content-Type", "video/mp2t")
	}
}
