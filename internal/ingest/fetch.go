// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingest implements the ingestion pipeline (component K): per-
// source fetch, parse, normalize, transform, virtual-id assignment, and
// persistence into the indexed document store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/xg2g/internal/m3u"
	platformnet "github.com/ManuGH/xg2g/internal/platform/net"
	"github.com/ManuGH/xg2g/internal/platform/httpx"
)

// Fetcher dials upstream playlist artifacts, coalescing concurrent fetches
// of the same URL across targets that share an input so the upstream only
// sees one request, mirroring the teacher's sfg singleflight.Group use for
// HLS preflight coalescing.
type Fetcher struct {
	client *http.Client
	group  singleflight.Group
	policy *platformnet.OutboundPolicy
}

// NewFetcher builds a Fetcher with the given per-request timeout. No
// outbound policy is applied until SetOutboundPolicy is called.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: httpx.NewClient(timeout)}
}

// SetOutboundPolicy installs an allowlist every fetched URL must satisfy.
// A nil-policy Fetcher (the default) fetches any URL its caller names.
func (f *Fetcher) SetOutboundPolicy(policy platformnet.OutboundPolicy) {
	f.policy = &policy
}

// FetchM3U retrieves and UTF-8-decodes the M3U body at url, coalescing
// concurrent callers.
func (f *Fetcher) FetchM3U(ctx context.Context, url string) (string, error) {
	v, err, _ := f.group.Do(url, func() (interface{}, error) {
		body, err := f.get(ctx, url)
		if err != nil {
			return nil, err
		}
		return m3u.DecodeBody(body)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	safeURL := platformnet.SanitizeURL(url)

	if f.policy != nil {
		validated, err := platformnet.ValidateOutboundURL(ctx, url, *f.policy)
		if err != nil {
			return nil, fmt.Errorf("ingest: outbound policy rejected %s: %w", safeURL, err)
		}
		url = validated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: build request for %s: %w", safeURL, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", safeURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ingest: fetch %s: status %d", safeURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
