// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package usermgr implements the active-user manager (component F):
// per-username connection counting with a grace-period allowance for
// seamless channel-zap, plus an optional observational fan-out of deltas.
package usermgr

import (
	"sync"
)

// Permission is the outcome of AddConnection.
type Permission int

const (
	Allowed Permission = iota
	GracePeriod
	Exhausted
)

func (p Permission) String() string {
	switch p {
	case Allowed:
		return "allowed"
	case GracePeriod:
		return "grace_period"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Delta is published to subscribers on any connection-count change.
type Delta struct {
	Username         string
	UserCount        int
	ConnectionCount  int
}

// Notifier receives deltas. Implementations must not block; Manager sends
// on a best-effort basis (see subscribe fan-out below).
type Notifier interface {
	Notify(Delta)
}

type userState struct {
	mu    sync.Mutex
	count int
}

// Manager maintains {username -> connection_count} and emits deltas to
// subscribers. Ordering is strictly the order of AddConnection calls;
// there is no fair-queueing.
type Manager struct {
	graceEnabled bool

	mu    sync.Mutex
	users map[string]*userState

	subMu sync.RWMutex
	subs  []chan<- Delta

	fanout Notifier // optional, e.g. Redis pub/sub adapter
}

// New builds a Manager. graceEnabled mirrors whether a grace window is
// configured at all; when false, AddConnection never returns GracePeriod.
func New(graceEnabled bool) *Manager {
	return &Manager{
		graceEnabled: graceEnabled,
		users:        make(map[string]*userState),
	}
}

// SetFanout installs an optional observational fan-out (e.g. Redis
// pub/sub). It never arbitrates admission; it only mirrors deltas.
func (m *Manager) SetFanout(n Notifier) {
	m.fanout = n
}

func (m *Manager) stateFor(username string) *userState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.users[username]
	if !ok {
		s = &userState{}
		m.users[username] = s
	}
	return s
}

// Guard decrements on Release and emits a delta. Idempotent.
type Guard struct {
	once     sync.Once
	mgr      *Manager
	username string
	state    *userState
}

// Release decrements the user's connection count and publishes a delta.
func (g *Guard) Release() {
	g.once.Do(func() {
		g.state.mu.Lock()
		g.state.count--
		count := g.state.count
		g.state.mu.Unlock()
		g.mgr.publish(Delta{Username: g.username, ConnectionCount: count, UserCount: g.mgr.userCount()})
	})
}

// AddConnection admits one more connection for username against maxConnections.
func (m *Manager) AddConnection(username string, maxConnections int) (*Guard, Permission) {
	state := m.stateFor(username)

	state.mu.Lock()
	state.count++
	count := state.count
	state.mu.Unlock()

	var perm Permission
	switch {
	case count <= maxConnections:
		perm = Allowed
	case m.graceEnabled && count == maxConnections+1:
		perm = GracePeriod
	default:
		perm = Exhausted
	}

	if perm == Exhausted {
		// No guard is returned; the caller does not open an upstream
		// stream, and the speculative increment must be undone.
		state.mu.Lock()
		state.count--
		state.mu.Unlock()
		return nil, Exhausted
	}

	m.publish(Delta{Username: username, ConnectionCount: count, UserCount: m.userCount()})
	return &Guard{mgr: m, username: username, state: state}, perm
}

// UserConnections returns username's current connection count.
func (m *Manager) UserConnections(username string) int {
	m.mu.Lock()
	s, ok := m.users[username]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (m *Manager) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.users {
		s.mu.Lock()
		if s.count > 0 {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// Subscribe registers ch to receive every future Delta. Sends are
// non-blocking; a full channel drops the delta.
func (m *Manager) Subscribe(ch chan<- Delta) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, ch)
}

func (m *Manager) publish(d Delta) {
	m.subMu.RLock()
	for _, ch := range m.subs {
		select {
		case ch <- d:
		default:
		}
	}
	m.subMu.RUnlock()

	if m.fanout != nil {
		m.fanout.Notify(d)
	}
}
