// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rewrite

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/ManuGH/xg2g/internal/types"
)

// Prefixes for the locally-issued URL paths, per path segment one.
const (
	prefixStream   = "m3u-stream"
	prefixResource = "resource"
	prefixHLS      = "hls"
)

// ServerInfo carries the pieces of server identity needed to build an
// outward-facing URL.
type ServerInfo struct {
	PublicURL        string
	IncludeTypeInURL bool
}

// UserCredentials are the user's own credentials, echoed back into the
// rewritten URL so that a later request can be re-authenticated.
type UserCredentials struct {
	Username string
	Password string
}

// ClusterSet names the clusters a redirect or force-redirect rule applies
// to, mirroring the teacher's flag-set idiom for small enums of at most
// three members.
type ClusterSet struct {
	Live, VOD, Series bool
}

// HasCluster reports whether c names the cluster corresponding to itemType.
func (c ClusterSet) HasCluster(itemType types.ItemType) bool {
	switch types.ClusterOf(itemType) {
	case types.ClusterLive:
		return c.Live
	case types.ClusterVideo:
		return c.VOD
	case types.ClusterSeries:
		return c.Series
	default:
		return false
	}
}

// ProxyMode is the user's configured proxying behavior: which clusters are
// redirect-only (upstream URL handed to the client unchanged or masked)
// rather than proxied through this server.
type ProxyMode struct {
	Redirect ClusterSet
}

// IsRedirect reports whether itemType resolves to redirect mode, combining
// the user's proxy mode with the target's force-redirect override. Grounded
// on m3u_playlist_iterator.rs's is_redirect branch.
func IsRedirect(mode ProxyMode, forceRedirect ClusterSet, itemType types.ItemType) bool {
	return mode.Redirect.HasCluster(itemType) || forceRedirect.HasCluster(itemType)
}

func typeSegment(itemType types.ItemType) string {
	switch types.ClusterOf(itemType) {
	case types.ClusterLive:
		return "live"
	case types.ClusterVideo:
		return "movie"
	case types.ClusterSeries:
		return "series"
	default:
		return "live"
	}
}

func joinPath(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	for _, s := range segments {
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// GetStreamURL builds the locally-issued M3U-style media URL:
// /<prefix>/{type?}/<user>/<pass>/<virtual_id>. The type segment is only
// present when server.IncludeTypeInURL is set.
func GetStreamURL(server ServerInfo, user UserCredentials, item types.PlaylistItem) string {
	segments := []string{prefixStream}
	if server.IncludeTypeInURL {
		segments = append(segments, typeSegment(item.ItemType))
	}
	segments = append(segments, user.Username, user.Password, strconv.FormatUint(uint64(item.VirtualID), 10))
	return joinPath(server.PublicURL, segments...)
}

// GetResourceURL builds the locally-issued logo/artwork URL:
// /resource/<user>/<pass>/<virtual_id>.
func GetResourceURL(server ServerInfo, user UserCredentials, item types.PlaylistItem) string {
	return joinPath(server.PublicURL, prefixResource, user.Username, user.Password,
		strconv.FormatUint(uint64(item.VirtualID), 10))
}

// xtreamExtension picks the conventional Xtream file extension for an item
// type, used in generated .../<id>.<ext> stream URLs.
func xtreamExtension(itemType types.ItemType) string {
	switch itemType {
	case types.ItemLiveHLS:
		return "m3u8"
	case types.ItemLive, types.ItemLiveUnknown:
		return "ts"
	default:
		return "mp4"
	}
}

// GetXtreamStreamURL builds the conventional Xtream Codes stream URL,
// keyed on the item's cluster: /<cluster-path>/<user>/<pass>/<id>.<ext>.
func GetXtreamStreamURL(server ServerInfo, user UserCredentials, item types.PlaylistItem) string {
	clusterPath := typeSegment(item.ItemType)
	id := strconv.FormatUint(uint64(item.VirtualID), 10) + "." + xtreamExtension(item.ItemType)
	return joinPath(server.PublicURL, clusterPath, user.Username, user.Password, id)
}

// GetRewrittenURL is the single entry point of the rewrite pipeline: given
// the stored item, the requesting user's credentials and proxy mode, and
// the target's force-redirect overrides, it produces the URL the client
// should be handed for this item.
//
// When the resolved cluster is redirect-only, the stored upstream URL is
// returned unchanged unless maskRedirect requests an indirection URL that
// 302s to it instead; maskRedirect is the caller's should_rewrite_urls ==
// mask-the-redirect branch. Otherwise the conventional rewritten stream
// URL is produced, selecting Xtream or M3U shape via useXtreamShape.
func GetRewrittenURL(
	server ServerInfo,
	user UserCredentials,
	mode ProxyMode,
	forceRedirect ClusterSet,
	item types.PlaylistItem,
	useXtreamShape bool,
	maskRedirect bool,
) string {
	if IsRedirect(mode, forceRedirect, item.ItemType) {
		if !maskRedirect {
			return item.URL
		}
		return joinPath(server.PublicURL, "redirect", user.Username, user.Password,
			strconv.FormatUint(uint64(item.VirtualID), 10))
	}
	if useXtreamShape {
		return GetXtreamStreamURL(server, user, item)
	}
	return GetStreamURL(server, user, item)
}

// GetHLSSegmentURL builds the locally-issued HLS segment URL:
// /<prefix>/hls/<user>/<pass>/<input_id>/<virtual_id>/<token>, per 4.H.1.
func GetHLSSegmentURL(server ServerInfo, user UserCredentials, inputID string, virtualID uint32, token string) string {
	return joinPath(server.PublicURL, prefixStream, prefixHLS, user.Username, user.Password,
		inputID, strconv.FormatUint(uint64(virtualID), 10), token)
}

// ResourceCacheKey derives the stable key under which GetResourceURL's
// target is cached: a base64-encoded SHA-256 hash of the upstream URL,
// matching the LRU resource cache's base64(hash(url)) keying.
func ResourceCacheKey(upstreamURL string) string {
	sum := sha256.Sum256([]byte(upstreamURL))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
