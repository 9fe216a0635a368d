// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import "time"

// Format describes raw LPCM signed 16bit little endian audio.
type Format struct {
	SampleRate  int
	NumChannels int
}

// DefaultFormat is used across capture graph. 48kHz is required by opus
// and native rate for most capture devices.
var DefaultFormat = Format{
	SampleRate:  48000,
	NumChannels: 1,
}

// BytesPerSecond returns stream rate for 16bit samples.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.NumChannels * 2
}

// DurationBytes converts duration to number of 16bit stream bytes, aligned
// on full frame.
func (f Format) DurationBytes(dur time.Duration) int {
	raw := int(dur.Seconds() * float64(f.BytesPerSecond()))
	frame := f.NumChannels * 2
	return (raw / frame) * frame
}
