// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"context"
	"sync"
	"time"
)

// Fakes for lifecycle testing. Real hardware sources live in the device
// package, these only honor the Source contracts.

type fakeSource struct {
	kind   SourceKind
	frames chan []byte
	done   chan struct{}

	mu       sync.Mutex
	closes   int
	doneOnce sync.Once
}

func newFakeSource(kind SourceKind) *fakeSource {
	return &fakeSource{
		kind:   kind,
		frames: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

func (s *fakeSource) Kind() SourceKind      { return s.kind }
func (s *fakeSource) Frames() <-chan []byte { return s.frames }
func (s *fakeSource) Done() <-chan struct{} { return s.done }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *fakeSource) released() bool {
	return s.closeCount() > 0
}

// end simulates the source terminating outside our control, like the OS
// level stop sharing action.
func (s *fakeSource) end() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

func (s *fakeSource) push(frame []byte) {
	s.frames <- frame
}

type fakeDisplaySource struct {
	*fakeSource
	hasAudio bool
}

func newFakeDisplaySource(hasAudio bool) *fakeDisplaySource {
	return &fakeDisplaySource{
		fakeSource: newFakeSource(SourceDisplay),
		hasAudio:   hasAudio,
	}
}

func (s *fakeDisplaySource) HasAudio() bool { return s.hasAudio }

type fakeProvider struct {
	mic    *fakeSource
	micErr error

	display    *fakeDisplaySource
	displayErr error
	// displayFn overrides display acquisition entirely when set
	displayFn func(ctx context.Context) (DisplaySource, error)

	mu           sync.Mutex
	micCalls     int
	displayCalls int
}

func (p *fakeProvider) AcquireMicrophone(ctx context.Context) (Source, error) {
	p.mu.Lock()
	p.micCalls++
	p.mu.Unlock()
	if p.micErr != nil {
		return nil, p.micErr
	}
	return p.mic, nil
}

func (p *fakeProvider) AcquireDisplay(ctx context.Context) (DisplaySource, error) {
	p.mu.Lock()
	p.displayCalls++
	p.mu.Unlock()
	if p.displayFn != nil {
		return p.displayFn(ctx)
	}
	if p.displayErr != nil {
		return nil, p.displayErr
	}
	return p.display, nil
}

func (p *fakeProvider) acquireCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.micCalls + p.displayCalls
}

// fakeClock is manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
