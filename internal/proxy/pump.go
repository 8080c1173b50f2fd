// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// fallbackFrameSize approximates 8000 bytes per frame tick (~64 kbps
// class) to mimic a real low-bitrate stream.
const fallbackFrameSize = 8000

// RingBuffer cycles through a pre-recorded MPEG-TS fallback video,
// yielding fixed-size frames indefinitely.
type RingBuffer struct {
	data []byte
	pos  int
}

// NewRingBuffer wraps a non-empty byte slice for indefinite cyclic replay.
func NewRingBuffer(data []byte) *RingBuffer {
	return &RingBuffer{data: data}
}

// Next returns the next frame, wrapping around the end of data.
func (r *RingBuffer) Next() []byte {
	if len(r.data) == 0 {
		return nil
	}
	frame := make([]byte, 0, fallbackFrameSize)
	for len(frame) < fallbackFrameSize {
		remaining := fallbackFrameSize - len(frame)
		avail := len(r.data) - r.pos
		take := remaining
		if avail < take {
			take = avail
		}
		frame = append(frame, r.data[r.pos:r.pos+take]...)
		r.pos += take
		if r.pos >= len(r.data) {
			r.pos = 0
		}
	}
	return frame
}

// ChunkPump reads bytes from an upstream stream and forwards them to a
// client writer, switching to a paced fallback ring buffer once mode
// leaves ModeInner (4.G.3).
type ChunkPump struct {
	Upstream io.Reader
	Client   io.Writer
	Mode     *StreamMode
	Fallback *RingBuffer
	Limiter  *rate.Limiter // paces fallback frames to ~64 kbps class
	OnWrite  func(n int)   // optional, e.g. session.UpdateActivity
}

// Run pumps chunks until ctx is cancelled, the upstream read ends, or a
// client write fails. It returns the terminating error, or nil on a clean
// upstream EOF.
func (p *ChunkPump) Run(ctx context.Context) error {
	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if p.Mode.Load() != ModeInner {
			if err := p.pumpFallback(ctx); err != nil {
				return err
			}
			continue
		}

		n, err := p.Upstream.Read(buf)
		if n > 0 {
			if werr := p.write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (p *ChunkPump) pumpFallback(ctx context.Context) error {
	if p.Limiter != nil {
		if err := p.Limiter.WaitN(ctx, fallbackFrameSize); err != nil {
			return err
		}
	}
	frame := p.Fallback.Next()
	if frame == nil {
		return nil
	}
	return p.write(frame)
}

func (p *ChunkPump) write(b []byte) error {
	n, err := p.Client.Write(b)
	if p.OnWrite != nil && n > 0 {
		p.OnWrite(n)
	}
	return err
}
