// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package proxy implements the streaming core (component G): admission,
// the grace-period state machine, the chunk pump, reconnect/retry,
// persist-and-tee, and header policy.
package proxy

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ManuGH/xg2g/internal/providermgr"
	"github.com/ManuGH/xg2g/internal/usermgr"
)

// Mode is the per-stream fallback state, checked on every chunk-pump
// iteration. INNER is the default passthrough state; the other two are
// terminal for the lifetime of one stream.
type Mode int32

const (
	ModeInner Mode = iota
	ModeUserExhausted
	ModeProviderExhausted
)

// StreamMode is a lock-free per-stream mode cell: the chunk pump reads it
// on every iteration (§5's "admission critical sections do not yield"
// extended to the pump's hot path), the grace timer writes it once.
type StreamMode struct {
	v atomic.Int32
}

func (m *StreamMode) Load() Mode {
	return Mode(m.v.Load())
}

func (m *StreamMode) set(v Mode) {
	m.v.Store(int32(v))
}

// GraceTimer runs the single-shot grace-period check of 4.G.2. d is the
// grace period; userGranted reports whether the admission permission was
// GracePeriod (rather than Allowed outright); reconnectStop is flipped to
// request the reconnect loop stop once the stream has moved out of INNER.
//
// Implemented as a time.AfterFunc single-shot, matching the teacher's
// debounce-timer idiom in config/reload.go's watchLoop.
func StartGraceTimer(
	d time.Duration,
	userGranted bool,
	username string,
	users *usermgr.Manager,
	maxUserConns int,
	providerName string,
	providers *providermgr.Manager,
	mode *StreamMode,
	reconnectStop *atomic.Bool,
) *time.Timer {
	return time.AfterFunc(d, func() {
		if userGranted && users.UserConnections(username) > maxUserConns {
			mode.set(ModeUserExhausted)
			reconnectStop.Store(true)
			return
		}
		if providers.IsOverLimit(providerName) {
			mode.set(ModeProviderExhausted)
			reconnectStop.Store(true)
			return
		}
	})
}

// AdmissionResult is the outcome of 4.G.1's admission sequence.
type AdmissionResult struct {
	Allowed        bool
	UserGranted    bool // permission was GracePeriod, not outright Allowed
	UserGuard      *usermgr.Guard
	ProviderGuard  *providermgr.Guard
	FallbackReason providermgr.CustomStreamType
}

// Admit runs the admission sequence: user account expiry short-circuit,
// user connection accounting, then provider slot acquisition. A non-nil,
// non-Allowed AdmissionResult means the caller should serve the
// corresponding fallback stream with HTTP 200 rather than an error.
func Admit(
	users *usermgr.Manager,
	providers *providermgr.Manager,
	username string,
	maxUserConns int,
	userExpired bool,
	providerName string,
) (*AdmissionResult, error) {
	if userExpired {
		return &AdmissionResult{Allowed: false, FallbackReason: providermgr.StreamTypeUserAccountExpired}, nil
	}

	userGuard, permission := users.AddConnection(username, maxUserConns)
	if permission == usermgr.Exhausted {
		return &AdmissionResult{Allowed: false, FallbackReason: providermgr.StreamTypeUserExhausted}, nil
	}

	providerGuard, err := providers.TryAcquire(providerName)
	if err != nil {
		if errors.Is(err, providermgr.ErrExhausted) {
			userGuard.Release()
			return &AdmissionResult{Allowed: false, FallbackReason: providermgr.StreamTypeProviderExhausted}, nil
		}
		userGuard.Release()
		return nil, err
	}

	return &AdmissionResult{
		Allowed:       true,
		UserGranted:   permission == usermgr.GracePeriod,
		UserGuard:     userGuard,
		ProviderGuard: providerGuard,
	}, nil
}

// Release drops both guards held by a successful admission. Idempotent,
// safe to call from a defer alongside an early-return release.
func (a *AdmissionResult) Release() {
	if a == nil {
		return
	}
	if a.UserGuard != nil {
		a.UserGuard.Release()
	}
	if a.ProviderGuard != nil {
		a.ProviderGuard.Release()
	}
}
