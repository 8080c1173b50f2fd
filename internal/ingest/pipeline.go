// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest

import "github.com/ManuGH/xg2g/internal/types"

// Stage is one named transform in the filter/sort/rename/mapping chain.
// The DSLs themselves are out of scope; a nil Stage is a
// no-op, letting an external DSL evaluator be plugged in per target
// without this pipeline depending on it.
type Stage func([]types.PlaylistItem) ([]types.PlaylistItem, error)

// Hooks holds the four transform stages applied in filter, sort, rename,
// mapping order.
type Hooks struct {
	Filter  Stage
	Sort    Stage
	Rename  Stage
	Mapping Stage
}

// Apply runs every configured stage over items in order, short-circuiting
// on the first error.
func (h Hooks) Apply(items []types.PlaylistItem) ([]types.PlaylistItem, error) {
	var err error
	for _, stage := range []Stage{h.Filter, h.Sort, h.Rename, h.Mapping} {
		if stage == nil {
			continue
		}
		items, err = stage(items)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}
