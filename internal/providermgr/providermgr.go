// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package providermgr implements the provider manager (component E):
// admission control over a finite pool of upstream connection slots per
// named provider, with alias providers sharing the same selection group
// as their primary.
package providermgr

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/xg2g/internal/metrics"
)

var (
	// ErrUnavailable is returned by TryAcquire for an unknown provider name.
	ErrUnavailable = errors.New("providermgr: unknown provider")
	// ErrExhausted is returned by TryAcquire when no eligible slot has capacity.
	ErrExhausted = errors.New("providermgr: all eligible slots are exhausted")
)

// Slot is one provider's connection pool definition and live counters.
type Slot struct {
	name           string
	maxConnections int
	priority       int16
	aliasOf        string // empty for a primary

	mu          sync.Mutex
	activeCount int
	grantedAt   time.Time
}

// Manager maintains a registry of provider slots keyed by provider name.
// Aliases are registered as their own Slot, grouped with their primary by
// AliasOf for selection purposes; each slot counts its own connections.
type Manager struct {
	mu    sync.RWMutex
	slots map[string]*Slot

	detailsMu sync.Mutex
	details   map[string]detail
}

// New builds a Manager with no registered slots.
func New() *Manager {
	return &Manager{slots: make(map[string]*Slot)}
}

// Register adds or replaces a provider slot definition. aliasOf, if
// non-empty, names the primary slot this one is grouped with for
// selection (it still has its own capacity and counters).
func (m *Manager) Register(name string, maxConnections int, priority int16, aliasOf string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = &Slot{name: name, maxConnections: maxConnections, priority: priority, aliasOf: aliasOf}
}

// primaryName resolves name to the root of its selection group: itself if
// it is a primary, or its AliasOf target if it is an alias.
func (m *Manager) primaryName(name string) string {
	if s, ok := m.slots[name]; ok && s.aliasOf != "" {
		return s.aliasOf
	}
	return name
}

// eligibleSlots returns the primary slot plus every alias grouped under
// it, ordered per the deterministic tie-break: fewest active connections,
// then lowest priority number, then primary before aliases, then
// lexicographic name.
func (m *Manager) eligibleSlots(name string) []*Slot {
	root := m.primaryName(name)
	primary, ok := m.slots[root]
	if !ok {
		return nil
	}

	group := []*Slot{primary}
	for n, s := range m.slots {
		if s.aliasOf == root && n != root {
			group = append(group, s)
		}
	}

	sort.SliceStable(group, func(i, j int) bool {
		si, sj := group[i], group[j]
		ci := si.snapshotCount()
		cj := sj.snapshotCount()
		if ci != cj {
			return ci < cj
		}
		if si.priority != sj.priority {
			return si.priority < sj.priority
		}
		iPrimary := si.aliasOf == ""
		jPrimary := sj.aliasOf == ""
		if iPrimary != jPrimary {
			return iPrimary
		}
		return si.name < sj.name
	})
	return group
}

func (s *Slot) snapshotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCount
}

// Guard represents one admitted connection against a Slot. Release is
// idempotent via sync.Once, the guard-on-drop idiom this codebase uses
// for every resource with no language-level destructor.
type Guard struct {
	once sync.Once
	slot *Slot
}

// Release decrements the slot's active count. Safe to call multiple times
// or concurrently; only the first call has effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		g.slot.mu.Lock()
		g.slot.activeCount--
		g.slot.mu.Unlock()
	})
}

// TryAcquire performs synchronous admission against name's eligible slots.
// Selection among eligible slots is deterministic given identical state,
// so concurrent admissions with identical inputs pick identical slots.
func (m *Manager) TryAcquire(name string) (*Guard, error) {
	m.mu.RLock()
	slots := m.eligibleSlots(name)
	m.mu.RUnlock()

	if slots == nil {
		metrics.RecordReject(name, "unknown_provider")
		return nil, ErrUnavailable
	}

	for _, s := range slots {
		s.mu.Lock()
		if s.activeCount < s.maxConnections {
			s.activeCount++
			s.grantedAt = time.Now()
			s.mu.Unlock()
			metrics.RecordAdmit(s.name)
			return &Guard{slot: s}, nil
		}
		s.mu.Unlock()
	}
	metrics.RecordReject(name, "exhausted")
	return nil, ErrExhausted
}

// IsOverLimit reports whether all of name's eligible slots are at or above
// their max_connections. Observational; used by the grace-period check.
func (m *Manager) IsOverLimit(name string) bool {
	m.mu.RLock()
	slots := m.eligibleSlots(name)
	m.mu.RUnlock()

	if slots == nil {
		return true
	}
	for _, s := range slots {
		s.mu.Lock()
		underLimit := s.activeCount < s.maxConnections
		s.mu.Unlock()
		if underLimit {
			return false
		}
	}
	return true
}

// CustomStreamType tags a connection for telemetry when no regular
// provider stream could be started. Mirrors tuliprox's full taxonomy, not
// just the two exhaustion variants the streaming core reacts to.
type CustomStreamType int

const (
	StreamTypeNormal CustomStreamType = iota
	StreamTypeUserExhausted
	StreamTypeProviderExhausted
	StreamTypeUserAccountExpired
	StreamTypeChannelUnavailable
	StreamTypeProvisioning
)

// detail is telemetry-only metadata about one remote connection.
type detail struct {
	streamType CustomStreamType
	updatedAt  time.Time
}

// UpdateStreamDetail tags remoteAddr's connection with streamType for
// telemetry. Never consulted by admission logic.
func (m *Manager) UpdateStreamDetail(remoteAddr string, streamType CustomStreamType) {
	m.detailsMu.Lock()
	defer m.detailsMu.Unlock()
	if m.details == nil {
		m.details = make(map[string]detail)
	}
	m.details[remoteAddr] = detail{streamType: streamType, updatedAt: time.Now()}
}
