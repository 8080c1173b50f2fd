// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ManuGH/xg2g/internal/proxy"
)

// streamRouter parses the locally-issued URL shapes internal/rewrite
// produces: /m3u-stream/{user}/{pass}/{virtual_id} for live/VOD/series
// streams and /m3u-stream/hls/{user}/{pass}/{input_id}/{virtual_id}/{token}
// for HLS segment fetches (4.H.1), dispatching each to the matching
// proxy.StreamHandler method. internal/proxy deliberately leaves this
// parsing to its caller; this is that caller.
type streamRouter struct {
	handler *proxy.StreamHandler
}

func newStreamRouter(handler *proxy.StreamHandler) *streamRouter {
	return &streamRouter{handler: handler}
}

func (s *streamRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 1 || segments[0] != "m3u-stream" {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 7 && segments[1] == "hls" {
		virtualID, err := strconv.ParseUint(segments[5], 10, 32)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.handler.ServeHLSSegment(w, r, proxy.HLSSegmentRequest{
			Username:  segments[2],
			Password:  segments[3],
			InputID:   segments[4],
			VirtualID: uint32(virtualID),
			Token:     segments[6],
		})
		return
	}

	if len(segments) != 4 {
		http.NotFound(w, r)
		return
	}

	virtualID, err := strconv.ParseUint(segments[3], 10, 32)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.handler.ServeStream(w, r, proxy.StreamRequest{
		Username:  segments[1],
		Password:  segments[2],
		VirtualID: uint32(virtualID),
	})
}
