// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voznote/capture/audio"
)

func TestStartNoSourcesRejected(t *testing.T) {
	provider := &fakeProvider{}
	c := NewController(provider)

	err := c.Start(context.Background(), SourceSelection{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, StateIdle, c.State())
	// Validation happens before any acquisition attempt
	assert.Equal(t, 0, provider.acquireCalls())
}

func TestStartWhileLiveRejected(t *testing.T) {
	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider)

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	defer c.Stop()

	err := c.Start(context.Background(), SourceSelection{Microphone: true})
	require.ErrorIs(t, err, ErrInvalidState)

	c.Pause()
	err = c.Start(context.Background(), SourceSelection{Microphone: true})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestStartOnlySourceFails(t *testing.T) {
	provider := &fakeProvider{micErr: errors.New("permission denied")}
	c := NewController(provider)

	err := c.Start(context.Background(), SourceSelection{Microphone: true})
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Analyzer())
}

func TestStartCancelledMidAcquisition(t *testing.T) {
	mic := newFakeSource(SourceMicrophone)
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{
		mic: mic,
		// Caller gives up while the display permission prompt is pending
		displayFn: func(ctx context.Context) (DisplaySource, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	c := NewController(provider)

	err := c.Start(ctx, SourceSelection{Microphone: true, SystemAudio: true})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, c.State())
	assert.True(t, mic.released(), "source acquired before cancellation must be released")
}

func TestStartPartialFailureProceeds(t *testing.T) {
	display := newFakeDisplaySource(true)
	provider := &fakeProvider{
		micErr:  errors.New("device busy"),
		display: display,
	}
	c := NewController(provider)

	err := c.Start(context.Background(), SourceSelection{Microphone: true, SystemAudio: true})
	require.NoError(t, err)
	assert.Equal(t, StateRecording, c.State())

	res, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, display.released())
}

func TestVideoOnlyShareWithoutOtherSource(t *testing.T) {
	display := newFakeDisplaySource(false)
	provider := &fakeProvider{display: display}
	c := NewController(provider)

	err := c.Start(context.Background(), SourceSelection{SystemAudio: true})
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateIdle, c.State())
	// Non-audio tracks are released right away
	assert.True(t, display.released())
}

func TestVideoOnlyShareWithMicrophone(t *testing.T) {
	mic := newFakeSource(SourceMicrophone)
	display := newFakeDisplaySource(false)
	provider := &fakeProvider{mic: mic, display: display}
	c := NewController(provider)

	err := c.Start(context.Background(), SourceSelection{Microphone: true, SystemAudio: true})
	require.NoError(t, err)
	assert.True(t, display.released())
	assert.False(t, mic.released())

	_, err = c.Stop()
	require.NoError(t, err)
	assert.True(t, mic.released())
}

func TestPauseResumeElapsed(t *testing.T) {
	clock := newFakeClock()
	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider, WithClock(clock.Now))

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))

	clock.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Elapsed())

	c.Pause()
	assert.Equal(t, StatePaused, c.State())
	clock.Advance(3 * time.Second)
	assert.Equal(t, 5*time.Second, c.Elapsed(), "elapsed must freeze while paused")

	c.Resume()
	assert.Equal(t, StateRecording, c.State())
	clock.Advance(2 * time.Second)
	assert.Equal(t, 7*time.Second, c.Elapsed(), "resume must offset, not reset")

	res, err := c.Stop()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, res.Duration)
	// Value survives until next start
	assert.Equal(t, 7*time.Second, c.Elapsed())
}

func TestPauseResumeWrongStateNoop(t *testing.T) {
	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider)

	c.Pause()
	c.Resume()
	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	c.Resume()
	assert.Equal(t, StateRecording, c.State())

	c.Pause()
	c.Pause()
	assert.Equal(t, StatePaused, c.State())

	_, err := c.Stop()
	require.NoError(t, err)
}

func TestStopIdempotent(t *testing.T) {
	mic := newFakeSource(SourceMicrophone)
	provider := &fakeProvider{mic: mic}
	c := NewController(provider)

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))

	res, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, res)

	// Second stop is a no-op, no duplicate result emission
	res2, err := c.Stop()
	require.NoError(t, err)
	assert.Nil(t, res2)

	assert.Equal(t, 1, mic.closeCount())
	assert.Same(t, res, c.Result())
}

func TestStopReleasesAllSources(t *testing.T) {
	mic := newFakeSource(SourceMicrophone)
	display := newFakeDisplaySource(true)
	provider := &fakeProvider{mic: mic, display: display}
	c := NewController(provider)

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true, SystemAudio: true}))
	_, err := c.Stop()
	require.NoError(t, err)

	assert.True(t, mic.released())
	assert.True(t, display.released())
	assert.Nil(t, c.Analyzer())
}

func TestExternalInterruptStopsSession(t *testing.T) {
	display := newFakeDisplaySource(true)
	provider := &fakeProvider{display: display}

	var states []State
	done := make(chan struct{})
	c := NewController(provider, WithStateHandler(func(s State) {
		states = append(states, s)
		if s == StateIdle {
			close(done)
		}
	}))

	require.NoError(t, c.Start(context.Background(), SourceSelection{SystemAudio: true}))

	// User hits the OS level stop sharing affordance
	display.end()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on external interrupt")
	}

	assert.Equal(t, StateIdle, c.State())
	assert.True(t, display.released())
	require.NotNil(t, c.Result(), "interrupted session still yields a valid artifact")
	assert.Equal(t, []State{StateRecording, StateIdle}, states)
}

func TestAnalyzerTapLifecycle(t *testing.T) {
	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider)

	assert.Nil(t, c.Analyzer())

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	tap := c.Analyzer()
	require.NotNil(t, tap)
	assert.Equal(t, 128, tap.BinCount())
	assert.Len(t, tap.Snapshot(), 128)

	_, err := c.Stop()
	require.NoError(t, err)
	assert.Nil(t, c.Analyzer())
}

func TestStartClearsPriorResult(t *testing.T) {
	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider)

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	_, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, c.Result())

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	assert.Nil(t, c.Result())
	assert.Equal(t, time.Duration(0), c.Elapsed())
	_, err = c.Stop()
	require.NoError(t, err)
}

func TestEncodingFallbackToDefault(t *testing.T) {
	reg := NewEncoderRegistry()
	reg.Register(audio.MimeTypeWavUlaw, func(f audio.Format) (audio.Encoder, error) {
		return audio.NewWavUlawEncoder(f)
	})
	reg.SetDefault(audio.MimeTypeWavUlaw)

	provider := &fakeProvider{mic: newFakeSource(SourceMicrophone)}
	c := NewController(provider, WithEncoderRegistry(reg))

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	assert.Equal(t, audio.MimeTypeWavUlaw, c.MimeType())

	res, err := c.Stop()
	require.NoError(t, err)
	assert.Equal(t, audio.MimeTypeWavUlaw, res.MIMEType)
}

func TestRecordEndToEndWav(t *testing.T) {
	mic := newFakeSource(SourceMicrophone)
	provider := &fakeProvider{mic: mic}
	c := NewController(provider)

	require.NoError(t, c.Start(context.Background(), SourceSelection{Microphone: true}))
	assert.Equal(t, audio.MimeTypeWav, c.MimeType())

	// Keep feeding the graph while it runs on its own frame clock
	stop := make(chan struct{})
	go func() {
		frame := make([]byte, 1920)
		for i := range frame {
			frame[i] = byte(i)
		}
		for {
			select {
			case <-stop:
				return
			case <-time.After(10 * time.Millisecond):
				mic.push(frame)
			}
		}
	}()

	time.Sleep(300 * time.Millisecond)
	res, err := c.Stop()
	close(stop)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, audio.MimeTypeWav, res.MIMEType)
	assert.Equal(t, ".wav", res.FileExtension())
	require.Greater(t, len(res.Data), 44)

	dec := audio.NewWavDecoder(bytes.NewReader(res.Data))
	require.NoError(t, dec.FwdToPCM())
	assert.Greater(t, dec.PCMLen(), int64(0))
	assert.Equal(t, int64(len(res.Data)-44), dec.PCMLen())
}
