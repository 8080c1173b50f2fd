// SPDX-License-Identifier: MIT
package types

import "time"

// ItemType identifies the transport/content shape of a PlaylistItem.
type ItemType string

const (
	ItemLive        ItemType = "live"
	ItemLiveUnknown ItemType = "live_unknown"
	ItemLiveHLS     ItemType = "live_hls"
	ItemLiveDash    ItemType = "live_dash"
	ItemVideo       ItemType = "video"
	ItemSeries      ItemType = "series"
	ItemSeriesInfo  ItemType = "series_info"
	ItemCatchup     ItemType = "catchup"
)

// IsValid reports whether t is one of the defined item types.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemLive, ItemLiveUnknown, ItemLiveHLS, ItemLiveDash, ItemVideo, ItemSeries, ItemSeriesInfo, ItemCatchup:
		return true
	default:
		return false
	}
}

// XtreamCluster is the coarse Xtream Codes grouping derived from ItemType.
type XtreamCluster string

const (
	ClusterLive   XtreamCluster = "live"
	ClusterVideo  XtreamCluster = "video"
	ClusterSeries XtreamCluster = "series"
)

// ClusterOf derives the Xtream cluster for item types that did not arrive
// from an Xtream source already carrying one.
func ClusterOf(t ItemType) XtreamCluster {
	switch t {
	case ItemVideo:
		return ClusterVideo
	case ItemSeries, ItemSeriesInfo:
		return ClusterSeries
	default:
		return ClusterLive
	}
}

// VideoProps holds VOD-specific metadata for Video items.
type VideoProps struct {
	Year     int    `json:"year,omitempty"`
	Rating   string `json:"rating,omitempty"`
	Director string `json:"director,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Plot     string `json:"plot,omitempty"`
}

// SeriesProps holds series-level metadata for SeriesInfo items.
type SeriesProps struct {
	Year        int    `json:"year,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Plot        string `json:"plot,omitempty"`
	EpisodeRunt int    `json:"episode_run_time,omitempty"`
}

// EpisodeProps holds per-episode metadata for Series items.
type EpisodeProps struct {
	Season   int    `json:"season"`
	Episode  int    `json:"episode"`
	AirDate  string `json:"air_date,omitempty"`
	Plot     string `json:"plot,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// AdditionalProperties is a closed, tagged variant: exactly one of the
// typed fields is populated, selected by ItemType. A private marker method
// keeps the set closed the way a Rust enum would, since Go has no sum types.
type AdditionalProperties struct {
	Video   *VideoProps
	Series  *SeriesProps
	Episode *EpisodeProps
}

func (AdditionalProperties) additionalProperties() {}

// PlaylistItem is the canonical in-memory representation of one channel,
// movie, series, or episode surfaced by any input source.
type PlaylistItem struct {
	VirtualID     uint32
	ProviderID    string
	ContentUUID   [16]byte
	ItemType      ItemType
	XtreamCluster XtreamCluster

	Name      string
	Title     string
	Group     string
	Logo      string
	LogoSmall string
	URL       string
	InputName string

	CategoryID int32

	Additional AdditionalProperties
}

// VirtualIdRecord is one entry of the virtual-id mapping tree (component D).
type VirtualIdRecord struct {
	VirtualID       uint32
	ProviderID      string
	ContentUUID     [16]byte
	ItemType        ItemType
	ParentVirtualID uint32
	LastUpdated     time.Time
}

// expirationWindow mirrors tuliprox's target_id_mapping.rs EXPIRATION_DURATION.
// Observational only: no read path consults IsExpired.
const expirationWindow = 180 * 24 * time.Hour

// IsExpired reports whether the record has aged past the observational
// expiration window. Never consulted by get_or_assign or any read path;
// exists so a future garbage-collection pass has something to check.
func (r VirtualIdRecord) IsExpired() bool {
	return time.Since(r.LastUpdated) > expirationWindow
}
