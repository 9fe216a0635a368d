// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package device

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/voznote/capture"
)

// frameQueueSize is capacity of the device to mixer handoff in callbacks.
// Device callback never blocks, frames get dropped when mixer stalls longer
// than the queue.
const frameQueueSize = 64

// deviceSource adapts one malgo device to capture.Source. The device data
// callback copies PCM off the driver buffer and hands it over a channel.
// Device stop outside Close, e.g. hardware unplugged or OS revoked the
// loopback, closes done.
type deviceSource struct {
	kind   capture.SourceKind
	dev    *malgo.Device
	frames chan []byte

	done     chan struct{}
	doneOnce sync.Once

	closing   atomic.Bool
	closeOnce sync.Once
}

func openSource(mctx *malgo.AllocatedContext, cfg malgo.DeviceConfig, kind capture.SourceKind) (*deviceSource, error) {
	s := &deviceSource{
		kind:   kind,
		frames: make(chan []byte, frameQueueSize),
		done:   make(chan struct{}),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, frameCount uint32) {
			frame := make([]byte, len(inputSamples))
			copy(frame, inputSamples)
			select {
			case s.frames <- frame:
			default:
			}
		},
		Stop: func() {
			if s.closing.Load() {
				return
			}
			s.doneOnce.Do(func() {
				close(s.done)
			})
		},
	}

	dev, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, err
	}
	s.dev = dev
	return s, nil
}

func (s *deviceSource) Kind() capture.SourceKind {
	return s.kind
}

func (s *deviceSource) Frames() <-chan []byte {
	return s.frames
}

func (s *deviceSource) Done() <-chan struct{} {
	return s.done
}

// Close stops and releases the device. Idempotent, also safe when the
// device already stopped on its own.
func (s *deviceSource) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		if s.dev != nil {
			// Stop error is expected when device already ended externally
			_ = s.dev.Stop()
			s.dev.Uninit()
			s.dev = nil
		}
	})
	return nil
}

// HasAudio satisfies capture.DisplaySource. A successfully opened loopback
// device always carries audio, the video only share case exists on
// platforms where display capture is a screen share with optional audio.
func (s *deviceSource) HasAudio() bool {
	return true
}
