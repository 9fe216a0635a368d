// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

// MIME identifiers of encodings this package can realize.
const (
	MimeTypeWav     = "audio/wav"
	MimeTypeWavUlaw = "audio/wav; codecs=ulaw"
	MimeTypeOgg     = "audio/ogg"
	MimeTypeOggOpus = "audio/ogg; codecs=opus"
)

// Encoder turns mixed LPCM into container bytes incrementally. Encode is
// called with frame aligned LPCM and returns whatever container bytes that
// input produced, possibly none while encoder buffers. Finalize receives
// concatenation of everything Encode returned and patches or appends
// container framing that is only known at end of stream.
//
// MimeType reports the realized encoding, which may differ from the one
// requested during negotiation.
type Encoder interface {
	MimeType() string
	Encode(lpcm []byte) ([]byte, error)
	Finalize(data []byte) ([]byte, error)
}
