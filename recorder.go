// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voznote/capture/audio"
)

// RecorderChunkInterval bounds memory loss risk on process interruption.
// Encoded output is cut into a chunk at least this often.
const RecorderChunkInterval = 100 * time.Millisecond

// ChunkRecorder is the recorder sink of the capture graph. It encodes the
// mixed stream and keeps an append only ordered chunk sequence. Chunks are
// never reordered, zero length encoder output is discarded.
//
// Write happens on the mixer routine, Pause and Finalize on caller routines.
type ChunkRecorder struct {
	enc      audio.Encoder
	interval time.Duration

	// now is injectable for testing chunk cuts
	now func() time.Time

	paused atomic.Bool

	mu        sync.Mutex
	pending   []byte
	chunks    [][]byte
	lastFlush time.Time
	finalized bool
	final     []byte
	finalErr  error
}

func NewChunkRecorder(enc audio.Encoder) *ChunkRecorder {
	return &ChunkRecorder{
		enc:      enc,
		interval: RecorderChunkInterval,
		now:      time.Now,
	}
}

// Write consumes one mixed LPCM frame. While paused input is dropped so the
// artifact contains no paused range at all.
func (r *ChunkRecorder) Write(b []byte) (int, error) {
	if r.paused.Load() {
		return len(b), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return len(b), nil
	}

	encoded, err := r.enc.Encode(b)
	if err != nil {
		return 0, fmt.Errorf("encoding chunk: %w", err)
	}
	r.pending = append(r.pending, encoded...)

	now := r.now()
	if r.lastFlush.IsZero() {
		r.lastFlush = now
	}
	if now.Sub(r.lastFlush) >= r.interval {
		r.flush(now)
	}
	return len(b), nil
}

func (r *ChunkRecorder) flush(now time.Time) {
	if len(r.pending) > 0 {
		r.chunks = append(r.chunks, r.pending)
		r.pending = nil
	}
	r.lastFlush = now
}

// Pause toggles chunk encoding.
func (r *ChunkRecorder) Pause(toggle bool) {
	r.paused.Store(toggle)
}

// MimeType reports realized encoding of this recorder.
func (r *ChunkRecorder) MimeType() string {
	return r.enc.MimeType()
}

// ChunkCount returns number of cut chunks so far.
func (r *ChunkRecorder) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

// Finalize concatenates chunks in delivery order and lets the encoder patch
// end of stream framing. Second call returns the same outcome, also when
// the encoder failed.
func (r *ChunkRecorder) Finalize() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return r.final, r.finalErr
	}
	r.flush(r.now())
	r.finalized = true

	var size int
	for _, c := range r.chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	r.final, r.finalErr = r.enc.Finalize(data)
	return r.final, r.finalErr
}
