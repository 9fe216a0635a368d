// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voznote/capture/audio"
)

// ElapsedTickInterval is cadence of the elapsed time notification loop,
// roughly an animation frame. Elapsed value itself is always derived from
// the clock, the ticker only schedules delivery.
const ElapsedTickInterval = 33 * time.Millisecond

// Controller owns the recording lifecycle: Idle -> Recording <-> Paused ->
// Idle. At most one session is live at a time. All operations are safe for
// concurrent use.
type Controller struct {
	provider SourceProvider
	registry *EncoderRegistry
	prefs    []string
	format   audio.Format
	log      zerolog.Logger

	// now is injectable for testing elapsed accounting
	now func() time.Time

	onState   func(State)
	onElapsed func(time.Duration)

	mu          sync.Mutex
	starting    bool
	sess        *session
	lastResult  *Result
	lastElapsed time.Duration
}

type ControllerOption func(c *Controller)

func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

func WithEncoderRegistry(reg *EncoderRegistry) ControllerOption {
	return func(c *Controller) {
		c.registry = reg
	}
}

func WithEncodingPreference(prefs []string) ControllerOption {
	return func(c *Controller) {
		c.prefs = prefs
	}
}

func WithFormat(format audio.Format) ControllerOption {
	return func(c *Controller) {
		c.format = format
	}
}

// WithClock overrides time source. Testing only.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// WithStateHandler registers callback invoked after every state transition.
func WithStateHandler(f func(State)) ControllerOption {
	return func(c *Controller) {
		c.onState = f
	}
}

// WithElapsedHandler registers callback receiving elapsed time on every
// tick while recording. Used by UI timer and visualization shells.
func WithElapsedHandler(f func(time.Duration)) ControllerOption {
	return func(c *Controller) {
		c.onElapsed = f
	}
}

func NewController(provider SourceProvider, opts ...ControllerOption) *Controller {
	c := &Controller{
		provider: provider,
		registry: DefaultEncoderRegistry(),
		prefs:    DefaultEncodingPreference,
		format:   audio.DefaultFormat,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start acquires requested sources, builds the capture graph and begins
// recording. Selection is validated before any acquisition attempt. Start
// while a session is live is rejected with ErrInvalidState.
//
// ctx bounds source acquisition, which may hang on a permission prompt.
// Cancelling releases everything acquired so far.
func (c *Controller) Start(ctx context.Context, sel SourceSelection) error {
	if sel.empty() {
		return ErrInvalidRequest
	}

	c.mu.Lock()
	if c.sess != nil || c.starting {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.starting = true
	c.mu.Unlock()

	sess, err := c.startSession(ctx, sel)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.sess = sess
	c.lastResult = nil
	c.lastElapsed = 0
	c.mu.Unlock()

	sess.graph.start()
	go c.watchInterrupt(sess)
	if c.onElapsed != nil {
		go c.tickLoop(sess)
	}

	c.log.Info().Str("id", sess.id).Str("mimeType", sess.recorder.MimeType()).Msg("Recording started")
	c.notifyState(StateRecording)
	return nil
}

func (c *Controller) startSession(ctx context.Context, sel SourceSelection) (*session, error) {
	mimeType := c.registry.Resolve(c.prefs)
	if len(c.prefs) > 0 && mimeType != c.prefs[0] {
		// Silent degradation, realized type stays authoritative
		c.log.Debug().Str("requested", c.prefs[0]).Str("realized", mimeType).Msg("Preferred encoding not supported")
	}
	enc, err := c.registry.NewEncoder(mimeType, c.format)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	rec := NewChunkRecorder(enc)
	rec.now = c.now

	g, err := buildGraph(ctx, c.provider, sel, c.format, rec, c.log)
	if err != nil {
		return nil, err
	}

	return &session{
		id:        uuid.NewString(),
		graph:     g,
		recorder:  rec,
		state:     StateRecording,
		startedAt: c.now(),
		closed:    make(chan struct{}),
	}, nil
}

// Pause suspends chunk encoding and freezes elapsed time. No-op unless
// Recording.
func (c *Controller) Pause() {
	c.mu.Lock()
	s := c.sess
	if s == nil || s.state != StateRecording {
		c.mu.Unlock()
		return
	}
	s.pause(c.now())
	s.recorder.Pause(true)
	c.mu.Unlock()

	c.log.Debug().Str("id", s.id).Msg("Recording paused")
	c.notifyState(StatePaused)
}

// Resume continues chunk encoding from the frozen elapsed value. No-op
// unless Paused.
func (c *Controller) Resume() {
	c.mu.Lock()
	s := c.sess
	if s == nil || s.state != StatePaused {
		c.mu.Unlock()
		return
	}
	s.resume(c.now())
	s.recorder.Pause(false)
	c.mu.Unlock()

	c.log.Debug().Str("id", s.id).Msg("Recording resumed")
	c.notifyState(StateRecording)
}

// Stop tears the session down, releases every acquired source and finalizes
// chunks into one Result. Calling while Idle is a no-op returning nil.
func (c *Controller) Stop() (*Result, error) {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return nil, nil
	}
	c.sess = nil
	duration := s.elapsed(c.now())
	c.lastElapsed = duration
	close(s.closed)
	c.mu.Unlock()

	// Stop mixing before finalization so no chunk is delivered after
	s.graph.close()

	data, err := s.recorder.Finalize()
	if err != nil {
		c.log.Error().Err(err).Str("id", s.id).Msg("Recording finalization failed")
		c.notifyState(StateIdle)
		return nil, fmt.Errorf("finalizing recording: %w", err)
	}

	res := &Result{
		ID:       s.id,
		Data:     data,
		MIMEType: s.recorder.MimeType(),
		Duration: duration,
	}

	c.mu.Lock()
	c.lastResult = res
	c.mu.Unlock()

	c.log.Info().Str("id", s.id).Str("mimeType", res.MIMEType).Int("size", len(res.Data)).Dur("dur", res.Duration).Msg("Recording stopped")
	c.notifyState(StateIdle)
	return res, nil
}

// State returns current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StateIdle
	}
	return c.sess.state
}

// Elapsed returns recorded time of the live session, or of the last
// finished one. Reset happens only on next Start. Notes subsystem samples
// this at note creation time.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return c.lastElapsed
	}
	return c.sess.elapsed(c.now())
}

// Analyzer returns the visualization tap, valid only while a session is
// live. Nil when Idle.
func (c *Controller) Analyzer() *audio.Analyzer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	return c.sess.graph.analyzer
}

// MimeType returns realized encoding of the live session, empty when Idle.
func (c *Controller) MimeType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.recorder.MimeType()
}

// Result returns artifact of the last completed session, nil before first
// stop and after next start.
func (c *Controller) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

func (c *Controller) watchInterrupt(s *session) {
	select {
	case <-s.graph.interrupted:
		c.log.Info().Str("id", s.id).Msg("Capture interrupted, stopping")
		if _, err := c.Stop(); err != nil {
			c.log.Error().Err(err).Msg("Stop on external interrupt failed")
		}
	case <-s.closed:
	}
}

func (c *Controller) tickLoop(s *session) {
	ticker := time.NewTicker(ElapsedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.sess != s {
				c.mu.Unlock()
				return
			}
			state := s.state
			elapsed := s.elapsed(c.now())
			c.mu.Unlock()

			if state == StateRecording {
				c.onElapsed(elapsed)
			}
		}
	}
}

func (c *Controller) notifyState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
