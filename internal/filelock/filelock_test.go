// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package filelock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadLock_ConcurrentReadersProceed(t *testing.T) {
	r := New()
	g1 := r.ReadLock("/data/a.db")
	defer g1.Release()

	done := make(chan struct{})
	go func() {
		g2 := r.ReadLock("/data/a.db")
		defer g2.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader blocked behind first reader")
	}
}

func TestWriteLock_ExcludesReaders(t *testing.T) {
	r := New()
	wg := r.WriteLock("/data/a.db")

	var acquired atomic.Bool
	readerDone := make(chan struct{})
	go func() {
		g := r.ReadLock("/data/a.db")
		acquired.Store(true)
		g.Release()
		close(readerDone)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, acquired.Load(), "reader must block while a writer holds the lock")

	wg.Release()
	<-readerDone
	assert.True(t, acquired.Load())
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	r := New()
	g := r.WriteLock("/data/a.db")
	g.Release()
	assert.NotPanics(t, func() { g.Release() })
}

func TestLockFor_DifferentPathsIndependent(t *testing.T) {
	r := New()
	g1 := r.WriteLock("/data/a.db")
	defer g1.Release()

	done := make(chan struct{})
	go func() {
		g2 := r.WriteLock("/data/b.db")
		g2.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on unrelated path should not block")
	}
}
