// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package apiserver is the catalog/health/readiness HTTP surface
// (daemon.Deps.APIHandler): per-target playlist output and the
// operator-facing health endpoints, built over the streaming core's
// storage components without exposing them directly to clients.
package apiserver

import (
	"fmt"

	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/docstore"
	"github.com/ManuGH/xg2g/internal/types"
)

// sliceSource adapts a pre-loaded item slice to bouquet.Source, preserving
// the indexed document store's iteration order (offset ascending), which
// is the order a round trip must reproduce per SPEC_FULL invariant 5.
type sliceSource struct {
	items []types.PlaylistItem
	pos   int
}

func (s *sliceSource) Next() (types.PlaylistItem, bool) {
	if s.pos >= len(s.items) {
		return types.PlaylistItem{}, false
	}
	item := s.items[s.pos]
	s.pos++
	return item, true
}

// loadTargetItems reads every item currently committed to a target's
// store, in storage order.
func loadTargetItems(dbPath, idxPath string) ([]types.PlaylistItem, error) {
	var items []types.PlaylistItem
	err := docstore.Iter(dbPath, idxPath, func(rec docstore.Record) error {
		item, decodeErr := catalog.DecodeItem(rec.Value)
		if decodeErr != nil {
			return decodeErr
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apiserver: load target %s: %w", dbPath, err)
	}
	return items, nil
}
