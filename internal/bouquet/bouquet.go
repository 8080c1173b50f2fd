// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bouquet implements the bouquet filter (component I): a
// per-user optional allowlist of category names applied lazily while
// iterating a stored playlist.
package bouquet

import "github.com/ManuGH/xg2g/internal/types"

// Filter is a per-user category allowlist. A nil or empty Filter allows
// every item (no restriction configured).
type Filter struct {
	allowed map[string]bool
}

// New builds a Filter from a set of category names. An empty slice
// produces a Filter that allows everything.
func New(categories []string) Filter {
	if len(categories) == 0 {
		return Filter{}
	}
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	return Filter{allowed: allowed}
}

func (f Filter) permits(item types.PlaylistItem) bool {
	if f.allowed == nil {
		return true
	}
	return f.allowed[item.Group]
}

// Source yields items in storage order; Iterator wraps it with the
// bouquet allowlist and a one-ahead lookahead so HasNext is exact without
// double-buffering a full slice. Grounded on m3u_playlist_iterator.rs's
// lookup_item one-ahead buffer.
type Source interface {
	// Next returns the next item and true, or the zero value and false at
	// end of the underlying store.
	Next() (types.PlaylistItem, bool)
}

// Iterator applies a Filter lazily over a Source, skipping items whose
// group is not allowed, and reports whether a next eligible item exists
// after every emission.
type Iterator struct {
	src    Source
	filter Filter

	lookahead    types.PlaylistItem
	haveLookahead bool
}

// NewIterator builds an Iterator and primes its one-ahead lookahead slot.
func NewIterator(src Source, filter Filter) *Iterator {
	it := &Iterator{src: src, filter: filter}
	it.advance()
	return it
}

// advance fills the lookahead slot with the next permitted item from src,
// skipping any item the filter rejects.
func (it *Iterator) advance() {
	for {
		item, ok := it.src.Next()
		if !ok {
			it.haveLookahead = false
			return
		}
		if it.filter.permits(item) {
			it.lookahead = item
			it.haveLookahead = true
			return
		}
	}
}

// Next returns the current lookahead item, whether another eligible item
// follows it, and whether an item was returned at all.
func (it *Iterator) Next() (item types.PlaylistItem, hasNext bool, ok bool) {
	if !it.haveLookahead {
		return types.PlaylistItem{}, false, false
	}
	item = it.lookahead
	it.advance()
	return item, it.haveLookahead, true
}
