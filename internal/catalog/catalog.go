// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog is the composition-root adapter between the indexed
// document store (component C), the virtual-ID mapping (component D),
// and the streaming core's narrow CatalogResolver interface. It keeps
// an in-memory index of every ingested PlaylistItem keyed by provider
// id, refreshed whenever the ingestion pipeline commits a target.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ManuGH/xg2g/internal/docstore"
	"github.com/ManuGH/xg2g/internal/proxy"
	"github.com/ManuGH/xg2g/internal/types"
	"github.com/ManuGH/xg2g/internal/vidmap"
)

// EncodeItem is the canonical docstore record codec for a PlaylistItem.
func EncodeItem(item types.PlaylistItem) ([]byte, error) {
	return json.Marshal(item)
}

// DecodeItem reverses EncodeItem.
func DecodeItem(record []byte) (types.PlaylistItem, error) {
	var item types.PlaylistItem
	if err := json.Unmarshal(record, &item); err != nil {
		return types.PlaylistItem{}, fmt.Errorf("catalog: decode item: %w", err)
	}
	return item, nil
}

// Catalog resolves a virtual ID to the stream it names: vidmap maps the
// virtual ID to a (content_uuid, provider_id) pair; the in-memory item
// index (loaded from docstore at ingestion time) maps provider_id to the
// full PlaylistItem, which carries the upstream URL and item type.
type Catalog struct {
	vidmap *vidmap.Mapping

	mu    sync.RWMutex
	items map[string]types.PlaylistItem
}

// New builds a Catalog backed by vm. The item index starts empty; call
// LoadTarget once per ingested target's committed store.
func New(vm *vidmap.Mapping) *Catalog {
	return &Catalog{vidmap: vm, items: make(map[string]types.PlaylistItem)}
}

// LoadTarget adds or overwrites one item per record in this (dbPath,
// idxPath) pair's current committed contents. Items loaded earlier whose
// keys are no longer in the store are not removed. Safe to call again
// after each ingestion run.
func (c *Catalog) LoadTarget(dbPath, idxPath string) error {
	fresh := make(map[string]types.PlaylistItem)
	err := docstore.Iter(dbPath, idxPath, func(rec docstore.Record) error {
		item, err := DecodeItem(rec.Value)
		if err != nil {
			return err
		}
		fresh[rec.Key] = item
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: load target %s: %w", dbPath, err)
	}

	c.mu.Lock()
	for key, item := range fresh {
		c.items[key] = item
	}
	c.mu.Unlock()
	return nil
}

// Resolve implements proxy.CatalogResolver.
func (c *Catalog) Resolve(_ context.Context, virtualID uint32) (proxy.CatalogEntry, error) {
	rec, ok, err := c.vidmap.Lookup(virtualID)
	if err != nil {
		return proxy.CatalogEntry{}, fmt.Errorf("catalog: lookup virtual id %d: %w", virtualID, err)
	}
	if !ok {
		return proxy.CatalogEntry{}, fmt.Errorf("catalog: virtual id %d not found", virtualID)
	}

	c.mu.RLock()
	item, ok := c.items[rec.ProviderID]
	c.mu.RUnlock()
	if !ok {
		return proxy.CatalogEntry{}, fmt.Errorf("catalog: provider id %q not indexed", rec.ProviderID)
	}

	return proxy.CatalogEntry{
		ProviderName: item.InputName,
		UpstreamURL:  item.URL,
		ItemType:     item.ItemType,
	}, nil
}
