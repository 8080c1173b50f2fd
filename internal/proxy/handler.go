// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/xg2g/internal/log"
	"github.com/ManuGH/xg2g/internal/metrics"
	"github.com/ManuGH/xg2g/internal/providermgr"
	"github.com/ManuGH/xg2g/internal/resilience"
	"github.com/ManuGH/xg2g/internal/types"
	"github.com/ManuGH/xg2g/internal/usermgr"
)

// CatalogEntry is the subset of a resolved PlaylistItem the streaming
// handler needs: which provider owns it, what upstream URL to dial, and
// what item type governs header policy.
type CatalogEntry struct {
	ProviderName string
	UpstreamURL  string
	ItemType     types.ItemType
}

// CatalogResolver maps a request's (username, virtualID) pair to the
// upstream stream it names, wiring vidmap (component D) + docstore
// (component C) behind a narrow interface so this package stays free of
// their storage concerns.
type CatalogResolver interface {
	Resolve(ctx context.Context, virtualID uint32) (CatalogEntry, error)
}

// UserAuthenticator validates locally-issued credentials and reports the
// account's connection limit and expiry state.
type UserAuthenticator interface {
	Authenticate(username, password string) (maxConnections int, expired bool, ok bool)
}

// Upstream opens a streamed connection to an upstream URL, returning a
// body reader to pump to the client.
type Upstream interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// HandlerConfig bundles the dependencies and policy knobs a StreamHandler
// needs, mirroring SPEC_FULL §4.G end to end.
type HandlerConfig struct {
	Users     *usermgr.Manager
	Providers *providermgr.Manager
	Auth      UserAuthenticator
	Catalog   CatalogResolver
	Upstream  Upstream

	GracePeriod     time.Duration
	Reconnect       ReconnectPolicy
	Fallback        *RingBuffer
	FallbackLimiter *rate.Limiter

	// PersistDir, when non-empty, tees every served chunk to this directory
	// (component G.5). Empty disables persistence.
	PersistDir string

	// HLS configures manifest rewriting (4.H.1). Zero value (nil Cipher)
	// disables it: ItemLiveHLS items are then pumped like any other live
	// stream instead of being fetched, rewritten, and re-served as text.
	HLS HLSConfig
}

// StreamHandler serves `/m3u-stream/{user}/{pass}/{virtualID}`-shaped
// requests: authenticate, admit, dial upstream (with reconnect/backoff),
// and pump chunks to the client, falling back to a looped low-bitrate
// video when admission denies the live connection.
type StreamHandler struct {
	cfg HandlerConfig

	// breakers holds one resilience.CircuitBreaker per provider name,
	// built lazily on first dial. A provider whose upstream dials keep
	// failing trips its breaker open, so a reconnect storm against a
	// known-dead upstream short-circuits to the fallback path instead of
	// retrying per §4.G.4.
	breakers sync.Map
}

// NewStreamHandler builds a StreamHandler from cfg.
func NewStreamHandler(cfg HandlerConfig) *StreamHandler {
	return &StreamHandler{cfg: cfg}
}

// breakerFor returns the provider's circuit breaker, building it with the
// package defaults (3 failures of 5 minimum attempts inside a 60s window
// trips it, with a 30s cooldown before half-open) on first use.
func (h *StreamHandler) breakerFor(providerName string) *resilience.CircuitBreaker {
	if v, ok := h.breakers.Load(providerName); ok {
		return v.(*resilience.CircuitBreaker)
	}
	cb := resilience.NewCircuitBreaker(providerName, 0, 0, 0, 0)
	actual, _ := h.breakers.LoadOrStore(providerName, cb)
	return actual.(*resilience.CircuitBreaker)
}

// StreamRequest is the parsed form of an incoming stream URL, extracted
// by the caller's router (path shape is owned by internal/rewrite, not
// duplicated here).
type StreamRequest struct {
	Username  string
	Password  string
	VirtualID uint32
}

// ServeStream handles one admitted-or-fallback stream request end to end.
func (h *StreamHandler) ServeStream(w http.ResponseWriter, r *http.Request, req StreamRequest) {
	logger := log.WithComponent("stream-handler")
	ctx := r.Context()

	maxConns, expired, ok := h.cfg.Auth.Authenticate(req.Username, req.Password)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entry, err := h.cfg.Catalog.Resolve(ctx, req.VirtualID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	result, err := Admit(h.cfg.Users, h.cfg.Providers, req.Username, maxConns, expired, entry.ProviderName)
	if err != nil {
		if errors.Is(err, providermgr.ErrUnavailable) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		logger.Error().Err(err).Str("user", req.Username).Msg("admission check failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer result.Release()

	if result.Allowed {
		metrics.IncActiveStreams(entry.ProviderName)
		defer metrics.DecActiveStreams(entry.ProviderName)
	}

	if result.Allowed && entry.ItemType == types.ItemLiveHLS && h.cfg.HLS.Cipher != nil {
		h.serveHLSManifest(w, r, req, entry)
		return
	}

	mode := &StreamMode{}
	var reconnectStop atomic.Bool

	if !result.Allowed {
		mode.set(ModeUserExhausted)
		if result.FallbackReason == providermgr.StreamTypeProviderExhausted {
			mode.set(ModeProviderExhausted)
		}
		reconnectStop.Store(true)
	} else {
		timer := StartGraceTimer(h.cfg.GracePeriod, result.UserGranted, req.Username, h.cfg.Users, maxConns,
			entry.ProviderName, h.cfg.Providers, mode, &reconnectStop)
		defer timer.Stop()
	}

	var body io.ReadCloser
	if mode.Load() == ModeInner {
		body, err = h.dialWithReconnect(ctx, &reconnectStop, entry.ProviderName, entry.UpstreamURL)
		if err != nil {
			logger.Warn().Err(err).Str("provider", entry.ProviderName).Msg("upstream dial failed, falling back")
			mode.set(ModeProviderExhausted)
		} else {
			defer body.Close()
		}
	}

	if mode.Load() == ModeInner {
		HeaderFilterFor(entry.ItemType).Apply(w.Header())
	} else {
		FallbackHeaderFilter().Apply(w.Header())
	}

	var client io.Writer = w
	if h.cfg.PersistDir != "" && body != nil {
		tee, terr := NewTee(client, teeFilePath(h.cfg.PersistDir, req.VirtualID), func(total int64, ferr error) {
			if ferr != nil {
				logger.Warn().Err(ferr).Msg("persist-and-tee finalize error")
			}
		})
		if terr == nil {
			defer tee.Close()
			client = tee
		}
	}

	var upstream io.Reader
	if body != nil {
		upstream = body
	} else {
		upstream = emptyReader{}
	}

	pump := &ChunkPump{
		Upstream: upstream,
		Client:   client,
		Mode:     mode,
		Fallback: h.cfg.Fallback,
		Limiter:  h.cfg.FallbackLimiter,
	}
	if err := pump.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug().Err(err).Msg("stream pump ended")
	}
}

// dialWithReconnect dials url through the reconnect/backoff loop, guarded by
// providerName's circuit breaker: a provider whose dials keep failing trips
// the breaker open and every subsequent call fails fast with
// resilience.ErrCircuitOpen instead of burning through the full reconnect
// policy against a provider known to be down.
func (h *StreamHandler) dialWithReconnect(ctx context.Context, stop *atomic.Bool, providerName, url string) (io.ReadCloser, error) {
	cb := h.breakerFor(providerName)
	if !cb.AllowRequest() {
		return nil, resilience.ErrCircuitOpen
	}

	var body io.ReadCloser
	err := Reconnect(ctx, h.cfg.Reconnect, stop, func(ctx context.Context) error {
		cb.RecordAttempt()
		b, err := h.cfg.Upstream.Open(ctx, url)
		if err != nil {
			cb.RecordTechnicalFailure()
			return err
		}
		cb.RecordSuccess()
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

type emptyReader struct{}

func (emptyReader) Read(_ []byte) (int, error) { return 0, io.EOF }

func teeFilePath(dir string, virtualID uint32) string {
	return dir + "/" + strconv.FormatUint(uint64(virtualID), 16) + ".ts"
}
