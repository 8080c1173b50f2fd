// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package xtream implements the Xtream Codes player_api.php JSON client:
// credentials in the query string, three category+stream calls per
// cluster (live/vod/series).
package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ManuGH/xg2g/internal/platform/httpx"
	platformnet "github.com/ManuGH/xg2g/internal/platform/net"
)

// Category is one entry of get_{live,vod,series}_categories.
type Category struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	ParentID     int32  `json:"parent_id"`
}

// LiveStream is one entry of get_live_streams.
type LiveStream struct {
	StreamID     int32  `json:"stream_id"`
	Name         string `json:"name"`
	StreamIcon   string `json:"stream_icon"`
	CategoryID   string `json:"category_id"`
	EPGChannelID string `json:"epg_channel_id"`
	TvArchive    int32  `json:"tv_archive"`
}

// VODStream is one entry of get_vod_streams.
type VODStream struct {
	StreamID     int32  `json:"stream_id"`
	Name         string `json:"name"`
	StreamIcon   string `json:"stream_icon"`
	CategoryID   string `json:"category_id"`
	ContainerExt string `json:"container_extension"`
	Rating       string `json:"rating"`
	Year         string `json:"year"`
	Director     string `json:"director"`
	Genre        string `json:"genre"`
	Plot         string `json:"plot"`
}

// Series is one entry of get_series.
type Series struct {
	SeriesID   int32  `json:"series_id"`
	Name       string `json:"name"`
	Cover      string `json:"cover"`
	CategoryID string `json:"category_id"`
	Rating     string `json:"rating"`
	Genre      string `json:"genre"`
	Plot       string `json:"plot"`
	EpisodeRun int32  `json:"episode_run_time"`
}

// SeriesInfo is the response shape of get_series_info: per-season episode
// lists keyed by season number string.
type SeriesInfo struct {
	Seasons  []Season             `json:"seasons"`
	Episodes map[string][]Episode `json:"episodes"`
}

// Season is one entry of get_series_info's "seasons" array.
type Season struct {
	SeasonNumber int32  `json:"season_number"`
	Name         string `json:"name"`
	Cover        string `json:"cover"`
	AirDate      string `json:"air_date"`
}

// Episode is one entry of get_series_info's per-season episode list.
type Episode struct {
	ID           string      `json:"id"`
	EpisodeNum   int32       `json:"episode_num"`
	Title        string      `json:"title"`
	ContainerExt string      `json:"container_extension"`
	Info         EpisodeInfo `json:"info"`
}

// EpisodeInfo is the nested "info" object of an Episode.
type EpisodeInfo struct {
	ReleaseDate string `json:"release_date"`
	Plot        string `json:"plot"`
	Duration    string `json:"duration"`
}

// Credentials are the Xtream Codes account used to authenticate every
// player_api.php call.
type Credentials struct {
	Username string
	Password string
}

// Client fetches category and stream listings from an Xtream Codes
// player_api.php endpoint.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// New returns a Client targeting baseURL (scheme+host, no path) using
// creds. baseURL must be a direct http(s) URL with no embedded
// credentials or fragment; player_api.php credentials always travel in
// the query string via creds, never in the URL itself.
func New(baseURL string, creds Credentials) (*Client, error) {
	u, ok := platformnet.ParseDirectHTTPURL(baseURL)
	if !ok {
		return nil, fmt.Errorf("xtream: invalid base url %s", platformnet.SanitizeURL(baseURL))
	}
	return &Client{
		baseURL:    strings.TrimSuffix(u.String(), "/"),
		creds:      creds,
		httpClient: httpx.NewClient(0),
	}, nil
}

func (c *Client) actionURL(action string, extra url.Values) string {
	q := url.Values{}
	q.Set("username", c.creds.Username)
	q.Set("password", c.creds.Password)
	q.Set("action", action)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.baseURL + "/player_api.php?" + q.Encode()
}

func (c *Client) fetchJSON(ctx context.Context, action string, extra url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL(action, extra), nil)
	if err != nil {
		return fmt.Errorf("xtream: build request for %s: %w", action, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xtream: fetch %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("xtream: %s returned status %d", action, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("xtream: decode %s response: %w", action, err)
	}
	return nil
}

// LiveCategories fetches get_live_categories.
func (c *Client) LiveCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	return out, c.fetchJSON(ctx, "get_live_categories", nil, &out)
}

// LiveStreams fetches get_live_streams.
func (c *Client) LiveStreams(ctx context.Context) ([]LiveStream, error) {
	var out []LiveStream
	return out, c.fetchJSON(ctx, "get_live_streams", nil, &out)
}

// VODCategories fetches get_vod_categories.
func (c *Client) VODCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	return out, c.fetchJSON(ctx, "get_vod_categories", nil, &out)
}

// VODStreams fetches get_vod_streams.
func (c *Client) VODStreams(ctx context.Context) ([]VODStream, error) {
	var out []VODStream
	return out, c.fetchJSON(ctx, "get_vod_streams", nil, &out)
}

// SeriesCategories fetches get_series_categories.
func (c *Client) SeriesCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	return out, c.fetchJSON(ctx, "get_series_categories", nil, &out)
}

// SeriesList fetches get_series.
func (c *Client) SeriesList(ctx context.Context) ([]Series, error) {
	var out []Series
	return out, c.fetchJSON(ctx, "get_series", nil, &out)
}

// SeriesInfo fetches get_series_info for one series_id.
func (c *Client) SeriesInfo(ctx context.Context, seriesID int32) (*SeriesInfo, error) {
	extra := url.Values{"series_id": {fmt.Sprintf("%d", seriesID)}}
	var out SeriesInfo
	if err := c.fetchJSON(ctx, "get_series_info", extra, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
