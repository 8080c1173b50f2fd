// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/xg2g/internal/types"
)

func TestToLiveItems_MapsCategoryNameAndFields(t *testing.T) {
	categories := []Category{{CategoryID: "5", CategoryName: "Sports"}}
	streams := []LiveStream{{StreamID: 100, Name: "ESPN", CategoryID: "5", StreamIcon: "icon.png"}}

	items := ToLiveItems(streams, categories, "provider-a")
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "100", item.ProviderID)
	assert.Equal(t, types.ItemLive, item.ItemType)
	assert.Equal(t, types.ClusterLive, item.XtreamCluster)
	assert.Equal(t, "Sports", item.Group)
	assert.Equal(t, "ESPN", item.Name)
	assert.Equal(t, "provider-a", item.InputName)
	assert.NotZero(t, item.ContentUUID)
}

func TestToVODItems_PopulatesVideoProps(t *testing.T) {
	streams := []VODStream{{
		StreamID: 7, Name: "Movie", CategoryID: "1",
		Year: "2020", Rating: "8.5", Director: "Someone", Genre: "Drama", Plot: "A plot.",
	}}

	items := ToVODItems(streams, nil, "provider-a")
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Additional.Video)
	assert.Equal(t, 2020, items[0].Additional.Video.Year)
	assert.Equal(t, "8.5", items[0].Additional.Video.Rating)
	assert.Equal(t, types.ItemVideo, items[0].ItemType)
}

func TestToEpisodeItems_FlattensSeasonsWithParentProviderID(t *testing.T) {
	info := &SeriesInfo{
		Episodes: map[string][]Episode{
			"1": {{ID: "e1", EpisodeNum: 1, Title: "Pilot", Info: EpisodeInfo{Plot: "intro"}}},
		},
	}

	items := ToEpisodeItems(info, "42", "provider-a")
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Additional.Episode)
	assert.Equal(t, 1, items[0].Additional.Episode.Season)
	assert.Equal(t, 1, items[0].Additional.Episode.Episode)
	assert.Equal(t, "Pilot", items[0].Name)
	assert.Contains(t, items[0].ProviderID, "42:e1")
}

func TestContentUUID_IsDeterministicPerProviderID(t *testing.T) {
	a := contentUUID("100")
	b := contentUUID("100")
	c := contentUUID("101")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
