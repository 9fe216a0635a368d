// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/zaf/g711"
)

const (
	wavHeaderSize   = 44
	wavFmtChunkSize = 16

	WavFormatPCM  = 1
	WavFormatUlaw = 7
)

// WavEncoder streams a RIFF/WAVE container. Header is emitted with zero
// sizes on first Encode and patched during Finalize, same trick a seekable
// wav writer does on Close.
type WavEncoder struct {
	format      Format
	audioFormat int
	bitDepth    int

	headerWritten bool
	dataSize      int
}

// NewWavEncoder encodes 16bit PCM wav.
func NewWavEncoder(format Format) (*WavEncoder, error) {
	return &WavEncoder{
		format:      format,
		audioFormat: WavFormatPCM,
		bitDepth:    16,
	}, nil
}

// NewWavUlawEncoder encodes G711 mu-law wav. Halves the stream size at
// telephony quality.
func NewWavUlawEncoder(format Format) (*WavEncoder, error) {
	return &WavEncoder{
		format:      format,
		audioFormat: WavFormatUlaw,
		bitDepth:    8,
	}, nil
}

func (e *WavEncoder) MimeType() string {
	if e.audioFormat == WavFormatUlaw {
		return MimeTypeWavUlaw
	}
	return MimeTypeWav
}

func (e *WavEncoder) Encode(lpcm []byte) ([]byte, error) {
	payload := lpcm
	if e.audioFormat == WavFormatUlaw {
		payload = g711.EncodeUlaw(lpcm)
	}

	e.dataSize += len(payload)
	if e.headerWritten {
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}

	e.headerWritten = true
	out := make([]byte, wavHeaderSize+len(payload))
	e.writeHeader(out)
	copy(out[wavHeaderSize:], payload)
	return out, nil
}

// Finalize patches RIFF and data chunk sizes in place.
func (e *WavEncoder) Finalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		// Nothing was captured. Produce a valid empty container.
		data = make([]byte, wavHeaderSize)
		e.writeHeader(data)
		return data, nil
	}
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav stream shorter than header. len=%d", len(data))
	}

	binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)-8))
	binary.LittleEndian.PutUint32(data[40:44], uint32(e.dataSize))
	return data, nil
}

func (e *WavEncoder) writeHeader(header []byte) {
	numChannels := e.format.NumChannels
	bitsPerSample := e.bitDepth
	sampleRate := e.format.SampleRate

	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], uint32(e.dataSize+wavHeaderSize-8))
	copy(header[8:12], []byte("WAVE"))

	// fmt subchunk
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], wavFmtChunkSize)
	binary.LittleEndian.PutUint16(header[20:22], uint16(e.audioFormat))
	binary.LittleEndian.PutUint16(header[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*bitsPerSample*numChannels/8)) // Byte rate calculation
	binary.LittleEndian.PutUint16(header[32:34], uint16(bitsPerSample*numChannels/8))            // Block align
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))

	// data chunk
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], uint32(e.dataSize))
}
