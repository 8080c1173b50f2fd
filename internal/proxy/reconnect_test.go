// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnect_SucceedsFirstTryWithoutSleeping(t *testing.T) {
	var calls int
	var stop atomic.Bool
	policy := ReconnectPolicy{Attempts: 3, BaseDelay: time.Minute, Multiplier: 1.0}

	start := time.Now()
	err := Reconnect(context.Background(), policy, &stop, func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReconnect_RetriesUpToAttemptsThenReturnsLastError(t *testing.T) {
	var calls int
	var stop atomic.Bool
	policy := ReconnectPolicy{Attempts: 3, BaseDelay: time.Millisecond, Multiplier: 1.0}
	wantErr := errors.New("connect refused")

	err := Reconnect(context.Background(), policy, &stop, func(_ context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestReconnect_AbortsWhenStopFlagSet(t *testing.T) {
	var calls int
	var stop atomic.Bool
	stop.Store(true)
	policy := DefaultReconnectPolicy()

	err := Reconnect(context.Background(), policy, &stop, func(_ context.Context) error {
		calls++
		return errors.New("should not be called")
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestReconnect_AbortsOnContextCancellation(t *testing.T) {
	var stop atomic.Bool
	policy := ReconnectPolicy{Attempts: 5, BaseDelay: 50 * time.Millisecond, Multiplier: 1.0}

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Reconnect(ctx, policy, &stop, func(_ context.Context) error {
		calls++
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 1)
}
