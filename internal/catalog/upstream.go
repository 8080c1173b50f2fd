// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/xg2g/internal/platform/httpx"
)

// HTTPUpstream dials upstream stream URLs over a hardened HTTP client,
// implementing proxy.Upstream.
type HTTPUpstream struct {
	client *http.Client
}

// NewHTTPUpstream builds an HTTPUpstream with the given per-request
// timeout (0 disables the client-side deadline, relying on context
// cancellation instead, which the streaming core always supplies).
func NewHTTPUpstream(timeout time.Duration) *HTTPUpstream {
	return &HTTPUpstream{client: httpx.NewClient(timeout)}
}

// Open implements proxy.Upstream.
func (u *HTTPUpstream) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build upstream request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: dial upstream: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("catalog: upstream returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
