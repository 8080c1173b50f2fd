// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "sync/atomic"

// Holder is the atomic snapshot holder (component A). It publishes an
// immutable value of type T: Load is wait-free and never serializes with
// Store, and a reader sees either the fully old or fully new value, never
// a partial update. Go's GC reclaims a retired value once the last reader
// that loaded it drops its reference, standing in for the explicit
// refcounted reclaim a non-GC'd language would need.
type Holder[T any] struct {
	ptr   atomic.Pointer[T]
	epoch atomic.Uint64
}

// NewHolder creates a Holder already populated with initial.
func NewHolder[T any](initial T) *Holder[T] {
	h := &Holder[T]{}
	h.Store(initial)
	return h
}

// Load returns the current value. Never blocks.
func (h *Holder[T]) Load() T {
	p := h.ptr.Load()
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Store publishes next, incrementing the epoch, and returns it.
func (h *Holder[T]) Store(next T) uint64 {
	e := h.epoch.Add(1)
	h.ptr.Store(&next)
	return e
}

// Epoch returns the number of successful Store calls so far.
func (h *Holder[T]) Epoch() uint64 {
	return h.epoch.Load()
}
