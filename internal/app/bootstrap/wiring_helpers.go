// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap

import (
	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/ingest"
	"github.com/ManuGH/xg2g/internal/providermgr"
)

// registerProviders populates a providermgr.Manager from every configured
// source's connection limit and priority, grouping alias sources with
// their primary's selection group.
func registerProviders(providers *providermgr.Manager, sources []config.Source) {
	for _, source := range sources {
		providers.Register(source.Name, source.MaxConnections, source.Priority, source.AliasOf)
	}
}

// noopHooks resolves every target to a Hooks value with no stages: the
// filter/sort/rename/mapping DSLs are out of scope, so an operator
// running without an external DSL evaluator ingests every source item
// unmodified.
func noopHooks(config.TargetDef) ingest.Hooks {
	return ingest.Hooks{}
}
