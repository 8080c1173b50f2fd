// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// teeChannelCapacity bounds the persist-and-tee forwarding channel (§5:
// "on overflow it drops and finalizes with an error").
const teeChannelCapacity = 64

// ErrTeeOverflow is the finalize error recorded when the persistence
// channel could not keep up and the tee was aborted.
var ErrTeeOverflow = errors.New("proxy: persist-and-tee channel overflow")

// Tee forks every chunk written to it into an async writer that persists
// to path, grounded directly on persist_pipe_stream.rs's tee_stream shape:
// Write delivers to the client directly, and a buffered channel feeds a
// background goroutine that writes an os.File. Client delivery via Write
// never blocks on persistence.
type Tee struct {
	client io.Writer
	file   *os.File
	path   string
	ch     chan []byte
	done   chan struct{}

	total   atomic.Int64
	aborted atomic.Bool

	once    sync.Once
	onClose func(totalBytes int64, err error)
}

// NewTee opens path for writing and starts the background persistence
// goroutine. onClose is invoked exactly once, from Close or from the
// background goroutine on overflow, with the total persisted byte count
// and any finalize error (nil on clean completion).
func NewTee(client io.Writer, path string, onClose func(totalBytes int64, err error)) (*Tee, error) {
	f, err := os.Create(path) // #nosec G304 -- path is derived from a validated cache key, not raw user input
	if err != nil {
		return nil, fmt.Errorf("proxy: open tee file %s: %w", path, err)
	}

	t := &Tee{
		client:  client,
		file:    f,
		path:    path,
		ch:      make(chan []byte, teeChannelCapacity),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	go t.run()
	return t, nil
}

func (t *Tee) run() {
	defer close(t.done)
	var writeErr error
	for chunk := range t.ch {
		if writeErr != nil {
			continue // drain without writing once broken, to unblock senders
		}
		if _, err := t.file.Write(chunk); err != nil {
			writeErr = err
		}
	}
	t.finish(writeErr)
}

func (t *Tee) finish(writeErr error) {
	_ = t.file.Close()
	if writeErr != nil || t.aborted.Load() {
		_ = os.Remove(t.path)
		if writeErr == nil {
			writeErr = ErrTeeOverflow
		}
	}
	t.once.Do(func() {
		if t.onClose != nil {
			t.onClose(t.total.Load(), writeErr)
		}
	})
}

// Write forwards p to the client synchronously, then forks a copy onto
// the persistence channel. A full channel means persistence cannot keep
// up; the tee is aborted (file unlinked) but the return value and error
// still reflect only the client write, which is never affected. Write is
// driven by a single chunk-pump goroutine and is not safe for concurrent
// callers.
func (t *Tee) Write(p []byte) (int, error) {
	n, err := t.client.Write(p)
	if n > 0 && !t.aborted.Load() {
		cp := make([]byte, n)
		copy(cp, p[:n])
		select {
		case t.ch <- cp:
			t.total.Add(int64(n))
		default:
			t.aborted.Store(true)
			close(t.ch)
		}
	}
	return n, err
}

// Close signals end-of-stream to the persistence goroutine and waits for
// it to flush and invoke onClose.
func (t *Tee) Close() {
	if !t.aborted.Load() {
		close(t.ch)
	}
	<-t.done
}
