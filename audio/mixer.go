// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MixerFrameDuration is the pacing of the mix loop. 20ms matches one opus
// frame at 48kHz so encoders downstream never need to rebuffer.
const MixerFrameDuration = 20 * time.Millisecond

// Mixer is summing point of the capture graph. Any number of live inputs
// feed PCM frames through channels, mixer paces on a fixed frame clock and
// writes one mixed frame per tick to out. Inputs that fall behind contribute
// silence for the missing range, so output duration tracks wall clock the
// same way a live audio graph does.
type Mixer struct {
	format     Format
	frameBytes int
	out        io.Writer

	mu     sync.Mutex
	inputs []*mixerInput

	// onWriteErr fires when a sink write fails and the mix loop gives up
	onWriteErr func(error)

	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	startOnce sync.Once
	stopOnce  sync.Once
}

type mixerInput struct {
	frames <-chan []byte

	mu  sync.Mutex
	buf []byte
	max int
}

func NewMixer(format Format, out io.Writer) *Mixer {
	frameBytes := format.DurationBytes(MixerFrameDuration)
	return &Mixer{
		format:     format,
		frameBytes: frameBytes,
		out:        out,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// AddInput connects source frames channel into mixer. Must be called before
// Start.
func (m *Mixer) AddInput(frames <-chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, &mixerInput{
		frames: frames,
		// Keep at most ~200ms queued per input before dropping oldest
		max: m.frameBytes * 10,
	})
}

// OnWriteError registers callback invoked when the sink rejects a mixed
// frame. The mix loop terminates after it. Must be set before Start.
func (m *Mixer) OnWriteError(f func(error)) {
	m.onWriteErr = f
}

// Start runs the mix loop in background. One feeder routine per input moves
// frames off the source channel so a stalled mix tick never blocks capture
// callbacks.
func (m *Mixer) Start() {
	m.startOnce.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()
		for _, in := range m.inputs {
			go in.feed(m.stopCh)
		}
		go m.run()
	})
}

// Stop terminates mix loop and waits for it to exit. Safe to call multiple
// times. After Stop returns no more writes happen on out.
func (m *Mixer) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.doneCh
	}
}

func (m *Mixer) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(MixerFrameDuration)
	defer ticker.Stop()

	mixed := make([]byte, m.frameBytes)
	take := make([]byte, m.frameBytes)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mixFrame(mixed, take)
			if _, err := m.out.Write(mixed); err != nil {
				log.Error().Err(err).Msg("Mixer output write failed")
				if m.onWriteErr != nil {
					m.onWriteErr(err)
				}
				return
			}
		}
	}
}

// mixFrame fills mixed with saturated sum of one frame from every input.
// Inputs with no pending data contribute silence.
func (m *Mixer) mixFrame(mixed []byte, take []byte) {
	for i := range mixed {
		mixed[i] = 0
	}

	m.mu.Lock()
	inputs := m.inputs
	m.mu.Unlock()

	for _, in := range inputs {
		n := in.take(take)
		if n == 0 {
			continue
		}
		PCMSum(mixed[:n], take[:n])
	}
}

func (in *mixerInput) feed(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case frame, ok := <-in.frames:
			if !ok {
				return
			}
			in.mu.Lock()
			in.buf = append(in.buf, frame...)
			if len(in.buf) > in.max {
				// Source outpaced the frame clock. Drop oldest.
				in.buf = in.buf[len(in.buf)-in.max:]
			}
			in.mu.Unlock()
		}
	}
}

func (in *mixerInput) take(dst []byte) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := copy(dst, in.buf)
	in.buf = in.buf[n:]
	return n
}
