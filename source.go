// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import "context"

type SourceKind int

const (
	SourceMicrophone SourceKind = iota + 1
	SourceDisplay
)

func (k SourceKind) String() string {
	switch k {
	case SourceMicrophone:
		return "microphone"
	case SourceDisplay:
		return "display"
	}
	return "unknown"
}

// SourceSelection is what the caller wants captured. Comes straight from
// the source selection UI as a boolean pair.
type SourceSelection struct {
	Microphone  bool
	SystemAudio bool
}

func (s SourceSelection) empty() bool {
	return !s.Microphone && !s.SystemAudio
}

// Source is one live acquired audio producing stream.
//
// Frames delivers LPCM S16LE frames in capture order. Done is closed when
// the source terminates on its own, outside any call of ours. Close revokes
// underlying hardware access and must be safe to call multiple times, also
// after the source already stopped externally.
type Source interface {
	Kind() SourceKind
	Frames() <-chan []byte
	Done() <-chan struct{}
	Close() error
}

// DisplaySource is a display/system share. The share may carry no audio at
// all when user picked video only, which is not an acquisition failure.
type DisplaySource interface {
	Source
	// HasAudio reports whether the share carries an audio track.
	HasAudio() bool
}

// SourceProvider acquires live sources from the platform. Acquisition may
// block on a permission prompt for arbitrary time, bounded only by ctx.
type SourceProvider interface {
	AcquireMicrophone(ctx context.Context) (Source, error)
	AcquireDisplay(ctx context.Context) (DisplaySource, error)
}
