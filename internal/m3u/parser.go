// Package m3u parses extended M3U playlists: #EXTM3U header, one
// #EXTINF line per entry carrying duration plus tvg-* attributes, and a
// URL line.
package m3u

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ManuGH/xg2g/internal/types"
)

// Channel represents a single channel from the M3U playlist.
type Channel struct {
	Number        string  `json:"number"`
	Name          string  `json:"name"`
	TvgID         string  `json:"tvg_id"`
	TvgName       string  `json:"tvg_name"`
	TvgShift      string  `json:"tvg_shift"`
	Logo          string  `json:"logo"`
	Group         string  `json:"group"`
	URL           string  `json:"url"`
	Duration      float64 `json:"duration"`
	CatchupType   string  `json:"catchup_type,omitempty"`
	CatchupSource string  `json:"catchup_source,omitempty"`
	HasEPG        bool    `json:"has_epg"`
	Raw           string  `json:"-"` // Raw EXTINF line
}

// attrPattern matches one key="value" attribute pair anywhere on an
// EXTINF line, generalized over the hardcoded per-attribute index scans
// the original parser used.
var attrPattern = regexp.MustCompile(`([a-zA-Z0-9_-]+)="([^"]*)"`)

// DecodeBody transcodes a raw M3U response body to UTF-8 if it isn't
// already valid UTF-8. Most IPTV panels emit ISO-8859-1 for channel
// names with accented characters; a cheap validity probe avoids paying
// the transcode cost on the common UTF-8 case.
func DecodeBody(body []byte) (string, error) {
	if utf8.Valid(body) {
		return string(body), nil
	}
	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Parse parses M3U content and returns a list of channels.
func Parse(content string) []Channel {
	var channels []Channel
	lines := strings.Split(content, "\n")
	var current Channel
	var havePending bool

	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			current = parseEXTINF(line)
			havePending = true
		case line == "" || strings.HasPrefix(line, "#"):
			// ignore blank lines and any other directive/comment line
		default:
			if !havePending {
				continue
			}
			current.URL = line
			current.HasEPG = current.TvgID != ""
			channels = append(channels, current)
			havePending = false
		}
	}
	return channels
}

// parseEXTINF parses one #EXTINF line into a Channel, capturing the
// leading duration and every recognized tvg-*/catchup-* attribute.
func parseEXTINF(line string) Channel {
	ch := Channel{Raw: line}

	rest := strings.TrimPrefix(line, "#EXTINF:")
	sp := strings.IndexAny(rest, " \t")
	durationField := rest
	if sp != -1 {
		durationField = rest[:sp]
	}
	if d, err := strconv.ParseFloat(durationField, 64); err == nil {
		ch.Duration = d
	}

	for _, m := range attrPattern.FindAllStringSubmatch(line, -1) {
		key, val := strings.ToLower(m[1]), m[2]
		switch key {
		case "tvg-chno":
			ch.Number = val
		case "tvg-id":
			ch.TvgID = val
		case "tvg-name":
			ch.TvgName = val
		case "tvg-logo":
			ch.Logo = val
		case "tvg-shift":
			ch.TvgShift = val
		case "group-title":
			ch.Group = val
		case "catchup":
			ch.CatchupType = val
		case "catchup-source":
			ch.CatchupSource = val
		}
	}

	if idx := strings.LastIndex(line, ","); idx != -1 {
		ch.Name = strings.TrimSpace(line[idx+1:])
	}
	return ch
}

// ToPlaylistItems converts parsed Channels into canonical PlaylistItems,
// tagging each with its source input name. content_uuid assignment
// happens downstream once the ingestion step knows the owning source's
// identity (component K step 2 hands these to component D).
func ToPlaylistItems(channels []Channel, inputName string) []types.PlaylistItem {
	items := make([]types.PlaylistItem, 0, len(channels))
	for _, ch := range channels {
		name := ch.TvgName
		if name == "" {
			name = ch.Name
		}
		items = append(items, types.PlaylistItem{
			ProviderID:    ch.TvgID,
			ItemType:      types.ItemLive,
			XtreamCluster: types.ClusterLive,
			Name:          name,
			Title:         ch.Name,
			Group:         ch.Group,
			Logo:          ch.Logo,
			URL:           ch.URL,
			InputName:     inputName,
		})
	}
	return items
}
