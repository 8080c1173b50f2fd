// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"sync/atomic"
	"time"
)

// ReconnectPolicy is the backoff schedule for 4.G.4: attempts × base
// delay × multiplier.
type ReconnectPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultReconnectPolicy matches SPEC_FULL's documented defaults.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Attempts: 3, BaseDelay: 250 * time.Millisecond, Multiplier: 1.0}
}

// delayFor returns the backoff delay before attempt n (0-indexed).
func (p ReconnectPolicy) delayFor(n int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Reconnect retries connect until it succeeds, the policy's attempts are
// exhausted, or stop is set (by the grace-period timer notifying
// USER_EXHAUSTED/PROVIDER_EXHAUSTED). Retries happen only on connect/read
// failure, per 4.G.4 — a success on the first try never sleeps.
func Reconnect(ctx context.Context, policy ReconnectPolicy, stop *atomic.Bool, connect func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if stop.Load() {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = connect(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < policy.Attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.delayFor(attempt)):
			}
		}
	}
	return lastErr
}
