// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"io"

	"github.com/go-audio/wav"
)

// NewWavDecoder decodes RIFF/WAVE artifacts, mainly to verify finalized
// recordings. Input must be seekable, in-memory artifacts wrap in
// bytes.Reader.
func NewWavDecoder(r io.ReadSeeker) *wav.Decoder {
	return wav.NewDecoder(r)
}
