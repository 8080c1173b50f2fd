// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ManuGH/xg2g/internal/catalog"
	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/docstore"
	"github.com/ManuGH/xg2g/internal/filelock"
	"github.com/ManuGH/xg2g/internal/fsutil"
	"github.com/ManuGH/xg2g/internal/m3u"
	"github.com/ManuGH/xg2g/internal/metrics"
	platformnet "github.com/ManuGH/xg2g/internal/platform/net"
	"github.com/ManuGH/xg2g/internal/types"
	"github.com/ManuGH/xg2g/internal/vidmap"
	"github.com/ManuGH/xg2g/internal/xtream"
)

// contentUUIDNamespace scopes m3u-sourced content_uuid generation,
// mirroring internal/xtream/parser.go's own per-format namespacing so
// the same upstream URL never collides across input kinds.
var contentUUIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("xg2g:m3u"))

// Pipeline runs the ingestion pipeline for every target named in a
// MappingsConfig: fetch, parse, normalize, transform, assign virtual ids,
// and persist to the indexed document store.
type Pipeline struct {
	fetcher  *Fetcher
	workDir  string
	hooksFor func(target config.TargetDef) Hooks
	locks    *filelock.Registry
}

// NewPipeline builds a Pipeline rooted at workDir (the configured working
// directory, under which each target gets its own subdirectory).
// hooksFor resolves a target's filter/sort/rename/mapping DSL strings into
// executable Stage funcs; passing nil runs every target with no-op hooks.
func NewPipeline(fetcher *Fetcher, workDir string, hooksFor func(config.TargetDef) Hooks) *Pipeline {
	if hooksFor == nil {
		hooksFor = func(config.TargetDef) Hooks { return Hooks{} }
	}
	return &Pipeline{fetcher: fetcher, workDir: workDir, hooksFor: hooksFor}
}

// SetLocks installs the file-lock registry (component B) guarding a
// target's `.db` path against concurrent readers while a commit is in
// flight. Optional: a nil registry (the default) skips locking, for
// callers that only ever run one ingestion at a time against a given
// store.
func (p *Pipeline) SetLocks(locks *filelock.Registry) {
	p.locks = locks
}

// SetOutboundPolicy installs an allowlist every source URL this pipeline
// fetches must satisfy. Unset (the default), sources are fetched
// unrestricted.
func (p *Pipeline) SetOutboundPolicy(policy platformnet.OutboundPolicy) {
	p.fetcher.SetOutboundPolicy(policy)
}

// TargetPaths returns the on-disk locations a committed target uses,
// rooted under the pipeline's working directory. targetName comes from
// configuration, not request input, but is still confined against
// traversal (".." segments, symlink escapes) the same way fsutil guards
// every other config-driven path in this codebase.
func (p *Pipeline) TargetPaths(targetName string) (dbPath, idxPath, vidmapDir string, err error) {
	dir, err := fsutil.ConfineRelPath(p.workDir, targetName)
	if err != nil {
		return "", "", "", fmt.Errorf("ingest: target %s: %w", targetName, err)
	}
	return filepath.Join(dir, "catalog.db"), filepath.Join(dir, "catalog.idx"), filepath.Join(dir, "id_mapping.db"), nil
}

// IngestTarget runs one target to completion: every named input source is
// fetched and normalized, the target's hooks are applied, each surviving
// item is assigned a virtual id, and the result is committed to the
// target's indexed document store. cat, if non-nil, has LoadTarget called
// against the freshly committed store so in-memory resolution picks up
// the new contents immediately.
func (p *Pipeline) IngestTarget(ctx context.Context, target config.TargetDef, sources []config.Source, cat *catalog.Catalog) (err error) {
	defer func() {
		if err != nil {
			metrics.IncIngestFailure(target.Name)
			metrics.RecordPlaylistFileValidity(target.Name, false)
		}
	}()

	items, err := p.fetchAndNormalize(ctx, target, sources)
	if err != nil {
		return fmt.Errorf("ingest: target %s: %w", target.Name, err)
	}

	items, err = p.hooksFor(target).Apply(items)
	if err != nil {
		return fmt.Errorf("ingest: target %s: apply hooks: %w", target.Name, err)
	}

	dbPath, idxPath, vidmapDir, err := p.TargetPaths(target.Name)
	if err != nil {
		return err
	}
	vm, err := vidmap.Open(vidmapDir)
	if err != nil {
		return fmt.Errorf("ingest: target %s: open vidmap: %w", target.Name, err)
	}
	defer func() { _ = vm.Close() }()

	if p.locks != nil {
		guard := p.locks.WriteLock(dbPath)
		defer guard.Release()
	}

	w, err := docstore.OpenWriter(dbPath, idxPath)
	if err != nil {
		return fmt.Errorf("ingest: target %s: open writer: %w", target.Name, err)
	}

	for i := range items {
		item := &items[i]
		vid, err := vm.GetOrAssign(item.ContentUUID, item.ProviderID, item.ItemType, 0)
		if err != nil {
			w.Abort()
			return fmt.Errorf("ingest: target %s: assign virtual id: %w", target.Name, err)
		}
		item.VirtualID = vid

		record, err := catalog.EncodeItem(*item)
		if err != nil {
			w.Abort()
			return fmt.Errorf("ingest: target %s: encode item: %w", target.Name, err)
		}
		if err := w.Write(item.ProviderID, record); err != nil {
			if errors.Is(err, docstore.ErrDuplicate) {
				continue
			}
			w.Abort()
			return fmt.Errorf("ingest: target %s: write item: %w", target.Name, err)
		}
	}

	if err := w.Commit(); err != nil {
		return fmt.Errorf("ingest: target %s: commit: %w", target.Name, err)
	}
	if err := vm.Persist(); err != nil {
		return fmt.Errorf("ingest: target %s: persist vidmap: %w", target.Name, err)
	}

	if cat != nil {
		if err := cat.LoadTarget(dbPath, idxPath); err != nil {
			return fmt.Errorf("ingest: target %s: reload catalog: %w", target.Name, err)
		}
	}

	recordIngestMetrics(target.Name, items)
	return nil
}

func recordIngestMetrics(target string, items []types.PlaylistItem) {
	var live, vod, series int
	for _, item := range items {
		switch item.ItemType {
		case types.ItemVideo:
			vod++
		case types.ItemSeries, types.ItemSeriesInfo:
			series++
		default:
			live++
		}
	}
	metrics.RecordTargetItemCount(target, len(items))
	metrics.RecordItemTypeCounts(target, live, vod, series)
	metrics.RecordPlaylistFileValidity(target, true)
}

// fetchAndNormalize fetches every input of every source named by target,
// parses it into canonical PlaylistItems, and fills content_uuid/bare-Live
// classification where the source format left them unset.
func (p *Pipeline) fetchAndNormalize(ctx context.Context, target config.TargetDef, sources []config.Source) ([]types.PlaylistItem, error) {
	byName := make(map[string]config.Source, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}

	var items []types.PlaylistItem
	for _, inputName := range target.Inputs {
		source, ok := byName[inputName]
		if !ok {
			return nil, fmt.Errorf("target %s: source %q not configured", target.Name, inputName)
		}
		for _, input := range source.Inputs {
			fetched, err := p.fetchInput(ctx, source, input)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", source.Name, err)
			}
			items = append(items, fetched...)
		}
	}

	for i := range items {
		item := &items[i]
		if item.ContentUUID == ([16]byte{}) {
			item.ContentUUID = uuid.NewSHA1(contentUUIDNamespace, []byte(item.InputName+"|"+item.Group+"|"+item.Name+"|"+item.URL))
		}
		if item.ItemType == types.ItemLive {
			item.ItemType = ClassifyLive(item.URL)
		}
	}
	return items, nil
}

func (p *Pipeline) fetchInput(ctx context.Context, source config.Source, input config.Input) ([]types.PlaylistItem, error) {
	switch input.Kind {
	case config.InputM3U:
		body, err := p.fetcher.FetchM3U(ctx, input.URL)
		if err != nil {
			return nil, err
		}
		channels := m3u.Parse(body)
		return m3u.ToPlaylistItems(channels, source.Name), nil

	case config.InputXtream:
		client, err := xtream.New(input.URL, xtream.Credentials{Username: input.Username, Password: input.Password})
		if err != nil {
			return nil, fmt.Errorf("xtream client for source %s: %w", source.Name, err)
		}

		liveCats, err := client.LiveCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream live categories: %w", err)
		}
		liveStreams, err := client.LiveStreams(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream live streams: %w", err)
		}
		items := xtream.ToLiveItems(liveStreams, liveCats, source.Name)

		vodCats, err := client.VODCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream vod categories: %w", err)
		}
		vodStreams, err := client.VODStreams(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream vod streams: %w", err)
		}
		items = append(items, xtream.ToVODItems(vodStreams, vodCats, source.Name)...)

		seriesCats, err := client.SeriesCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream series categories: %w", err)
		}
		series, err := client.SeriesList(ctx)
		if err != nil {
			return nil, fmt.Errorf("xtream series list: %w", err)
		}
		items = append(items, xtream.ToSeriesItems(series, seriesCats, source.Name)...)

		return items, nil

	default:
		return nil, fmt.Errorf("unknown input kind %q", input.Kind)
	}
}
