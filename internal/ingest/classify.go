// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest

import (
	"net/url"
	"strings"

	"github.com/ManuGH/xg2g/internal/types"
)

// ClassifyLive refines a bare ItemLive entry into ItemLiveHLS/ItemLiveDash/
// ItemLiveUnknown based on the URL's path extension, query string, or
// fragment, per the ingestion pipeline's URL heuristic.
func ClassifyLive(rawURL string) types.ItemType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return types.ItemLiveUnknown
	}
	path := u.Path
	hasQueryOrFragment := u.RawQuery != "" || u.Fragment != ""

	switch {
	case strings.HasSuffix(path, ".mpd"):
		return types.ItemLiveDash
	case strings.HasSuffix(path, ".m3u8") || hasQueryOrFragment:
		return types.ItemLiveHLS
	default:
		return types.ItemLiveUnknown
	}
}
