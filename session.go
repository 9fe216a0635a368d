// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// session is one live recording attempt: the built graph, the attached
// recorder and elapsed time accounting. All fields are guarded by the
// controller mutex except what types guard themselves.
type session struct {
	id       string
	graph    *graph
	recorder *ChunkRecorder

	state State

	// startedAt is the reference instant of the running range, zero while
	// paused. accumulated carries elapsed time of all finished ranges, so
	// resume offsets the reference instead of resetting it.
	startedAt   time.Time
	accumulated time.Duration

	// closed stops session routines (tick loop, interrupt watcher)
	closed chan struct{}
}

// elapsed derives recorded time from the clock reading, never from timer
// callbacks, so tick jitter and stalls cannot skew it. Monotonic while
// recording, frozen while paused.
func (s *session) elapsed(now time.Time) time.Duration {
	if s.state == StateRecording && !s.startedAt.IsZero() {
		return s.accumulated + now.Sub(s.startedAt)
	}
	return s.accumulated
}

func (s *session) pause(now time.Time) {
	s.accumulated += now.Sub(s.startedAt)
	s.startedAt = time.Time{}
	s.state = StatePaused
}

func (s *session) resume(now time.Time) {
	s.startedAt = now
	s.state = StateRecording
}
