// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/proxy"
)

// multiCatalog resolves a virtual ID against every configured target's
// Catalog in order, returning the first hit. Each target owns its own
// vidmap.Mapping (component D's "one Badger instance per target"), so a
// virtual ID is only guaranteed unique within its own target; a deployment
// that ingests more than one target shares the streaming core's virtual-ID
// space across them and relies on this first-match order to disambiguate.
type multiCatalog struct {
	catalogs []*catalog.Catalog
}

func newMultiCatalog(catalogs []*catalog.Catalog) *multiCatalog {
	return &multiCatalog{catalogs: catalogs}
}

func (m *multiCatalog) Resolve(ctx context.Context, virtualID uint32) (proxy.CatalogEntry, error) {
	for _, cat := range m.catalogs {
		entry, err := cat.Resolve(ctx, virtualID)
		if err == nil {
			return entry, nil
		}
	}
	return proxy.CatalogEntry{}, fmt.Errorf("bootstrap: virtual id %d not found in any target", virtualID)
}
