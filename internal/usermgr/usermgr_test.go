// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usermgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConnection_AllowedUpToLimit(t *testing.T) {
	m := New(true)
	g, perm := m.AddConnection("alice", 1)
	require.Equal(t, Allowed, perm)
	require.NotNil(t, g)
	assert.Equal(t, 1, m.UserConnections("alice"))
	g.Release()
	assert.Equal(t, 0, m.UserConnections("alice"))
}

func TestAddConnection_GracePeriodThenExhausted(t *testing.T) {
	m := New(true)
	g1, perm1 := m.AddConnection("u", 1)
	require.Equal(t, Allowed, perm1)

	g2, perm2 := m.AddConnection("u", 1)
	require.Equal(t, GracePeriod, perm2)
	require.NotNil(t, g2)

	g3, perm3 := m.AddConnection("u", 1)
	require.Equal(t, Exhausted, perm3)
	require.Nil(t, g3)

	assert.Equal(t, 2, m.UserConnections("u"), "exhausted attempt must not leave a phantom increment")

	g1.Release()
	g2.Release()
}

func TestAddConnection_NoGraceWindowConfigured(t *testing.T) {
	m := New(false)
	g1, perm1 := m.AddConnection("u", 1)
	require.Equal(t, Allowed, perm1)

	_, perm2 := m.AddConnection("u", 1)
	assert.Equal(t, Exhausted, perm2, "without a grace window, exceeding max goes straight to Exhausted")

	g1.Release()
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	m := New(true)
	g, perm := m.AddConnection("u", 2)
	require.Equal(t, Allowed, perm)

	g.Release()
	g.Release()
	assert.Equal(t, 0, m.UserConnections("u"))
}

func TestSubscribe_ReceivesDeltaOnChange(t *testing.T) {
	m := New(true)
	ch := make(chan Delta, 4)
	m.Subscribe(ch)

	g, perm := m.AddConnection("u", 3)
	require.Equal(t, Allowed, perm)
	g.Release()

	require.Len(t, ch, 2)
	first := <-ch
	assert.Equal(t, "u", first.Username)
	assert.Equal(t, 1, first.ConnectionCount)
	second := <-ch
	assert.Equal(t, 0, second.ConnectionCount)
}
