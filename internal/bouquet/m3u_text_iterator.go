// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bouquet

import (
	"fmt"
	"strings"

	"github.com/ManuGH/xg2g/internal/types"
)

// URLResolver rewrites one stored item's upstream URL into the URL a
// client should be handed, per the rewrite pipeline (component H). It is
// injected rather than imported directly so that bouquet stays independent
// of server/credential concerns.
type URLResolver func(item types.PlaylistItem) string

// M3UTextIterator wraps an Iterator to emit extended-M3U text: one
// #EXTINF/URL pair per eligible item, preceded by the #EXTM3U header. It
// reuses the wrapped Iterator's lookahead state rather than re-scanning,
// per m3u_playlist_iterator.rs's Iterator/text-iterator split.
type M3UTextIterator struct {
	it       *Iterator
	resolve  URLResolver
	wroteHdr bool
}

// NewM3UTextIterator builds a text iterator over it, resolving each
// item's outward URL with resolve.
func NewM3UTextIterator(it *Iterator, resolve URLResolver) *M3UTextIterator {
	return &M3UTextIterator{it: it, resolve: resolve}
}

// Header returns the leading #EXTM3U line, emitted exactly once.
func (m *M3UTextIterator) Header() string {
	if m.wroteHdr {
		return ""
	}
	m.wroteHdr = true
	return "#EXTM3U\n"
}

// Next returns the next item's rendered #EXTINF/URL text and whether an
// item was produced.
func (m *M3UTextIterator) Next() (line string, ok bool) {
	item, _, ok := m.it.Next()
	if !ok {
		return "", false
	}
	return renderEXTINF(item) + "\n" + m.resolve(item) + "\n", true
}

func renderEXTINF(item types.PlaylistItem) string {
	var b strings.Builder
	b.WriteString("#EXTINF:-1")
	if item.ProviderID != "" {
		fmt.Fprintf(&b, ` tvg-id="%s"`, item.ProviderID)
	}
	if item.Logo != "" {
		fmt.Fprintf(&b, ` tvg-logo="%s"`, item.Logo)
	}
	if item.Group != "" {
		fmt.Fprintf(&b, ` group-title="%s"`, item.Group)
	}
	b.WriteByte(',')
	b.WriteString(item.Name)
	return b.String()
}
