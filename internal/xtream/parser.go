// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/ManuGH/xg2g/internal/types"
)

// contentUUIDNamespace scopes content_uuid generation (google/uuid.NewSHA1)
// to this input format, so the same upstream stream_id never collides with
// an M3U item carrying the same URL.
var contentUUIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("xg2g:xtream"))

func contentUUID(providerID string) [16]byte {
	return uuid.NewSHA1(contentUUIDNamespace, []byte(providerID))
}

// ToLiveItems converts a get_live_streams response into canonical
// PlaylistItems, tagging each with its source category name.
func ToLiveItems(streams []LiveStream, categories []Category, inputName string) []types.PlaylistItem {
	names := categoryNames(categories)
	items := make([]types.PlaylistItem, 0, len(streams))
	for _, s := range streams {
		id := strconv.Itoa(int(s.StreamID))
		items = append(items, types.PlaylistItem{
			ProviderID:    id,
			ContentUUID:   contentUUID(id),
			ItemType:      types.ItemLive,
			XtreamCluster: types.ClusterLive,
			Name:          s.Name,
			Title:         s.Name,
			Group:         names[s.CategoryID],
			Logo:          s.StreamIcon,
			InputName:     inputName,
			CategoryID:    categoryIDInt(s.CategoryID),
		})
	}
	return items
}

// ToVODItems converts a get_vod_streams response into canonical
// PlaylistItems with VOD-specific AdditionalProperties populated.
func ToVODItems(streams []VODStream, categories []Category, inputName string) []types.PlaylistItem {
	names := categoryNames(categories)
	items := make([]types.PlaylistItem, 0, len(streams))
	for _, s := range streams {
		id := strconv.Itoa(int(s.StreamID))
		items = append(items, types.PlaylistItem{
			ProviderID:    id,
			ContentUUID:   contentUUID(id),
			ItemType:      types.ItemVideo,
			XtreamCluster: types.ClusterVideo,
			Name:          s.Name,
			Title:         s.Name,
			Group:         names[s.CategoryID],
			Logo:          s.StreamIcon,
			InputName:     inputName,
			CategoryID:    categoryIDInt(s.CategoryID),
			Additional: types.AdditionalProperties{
				Video: &types.VideoProps{
					Year:     atoiOrZero(s.Year),
					Rating:   s.Rating,
					Director: s.Director,
					Genre:    s.Genre,
					Plot:     s.Plot,
				},
			},
		})
	}
	return items
}

// ToSeriesItems converts a get_series response into canonical
// PlaylistItems of type ItemSeriesInfo, one per series (not per episode;
// episodes are resolved lazily via SeriesInfo and flattened by the caller
// into ItemSeries children carrying EpisodeProps).
func ToSeriesItems(series []Series, categories []Category, inputName string) []types.PlaylistItem {
	names := categoryNames(categories)
	items := make([]types.PlaylistItem, 0, len(series))
	for _, s := range series {
		id := strconv.Itoa(int(s.SeriesID))
		items = append(items, types.PlaylistItem{
			ProviderID:    id,
			ContentUUID:   contentUUID(id),
			ItemType:      types.ItemSeriesInfo,
			XtreamCluster: types.ClusterSeries,
			Name:          s.Name,
			Title:         s.Name,
			Group:         names[s.CategoryID],
			Logo:          s.Cover,
			InputName:     inputName,
			CategoryID:    categoryIDInt(s.CategoryID),
			Additional: types.AdditionalProperties{
				Series: &types.SeriesProps{
					Year:        0,
					Rating:      s.Rating,
					Genre:       s.Genre,
					Plot:        s.Plot,
					EpisodeRunt: int(s.EpisodeRun),
				},
			},
		})
	}
	return items
}

// ToEpisodeItems flattens one series' SeriesInfo into ItemSeries children,
// giving each episode the ProviderID "<seriesProviderID>:<episode id>". It
// does not set a parent virtual id (component D's ParentVirtualID).
func ToEpisodeItems(info *SeriesInfo, seriesProviderID string, inputName string) []types.PlaylistItem {
	var items []types.PlaylistItem
	for seasonStr, episodes := range info.Episodes {
		season, _ := strconv.Atoi(seasonStr)
		for _, ep := range episodes {
			id := fmt.Sprintf("%s:%s", seriesProviderID, ep.ID)
			items = append(items, types.PlaylistItem{
				ProviderID:    id,
				ContentUUID:   contentUUID(id),
				ItemType:      types.ItemSeries,
				XtreamCluster: types.ClusterSeries,
				Name:          ep.Title,
				Title:         ep.Title,
				InputName:     inputName,
				Additional: types.AdditionalProperties{
					Episode: &types.EpisodeProps{
						Season:   season,
						Episode:  int(ep.EpisodeNum),
						AirDate:  ep.Info.ReleaseDate,
						Plot:     ep.Info.Plot,
						Duration: ep.Info.Duration,
					},
				},
			})
		}
	}
	return items
}

func categoryNames(categories []Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		m[c.CategoryID] = c.CategoryName
	}
	return m
}

func categoryIDInt(s string) int32 {
	n, _ := strconv.Atoi(s)
	return int32(n)
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
