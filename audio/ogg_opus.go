// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"bytes"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"
)

// OggOpusEncoder encodes LPCM into opus frames and packs them through pion
// ogg container writer. Ogg pages are self delimiting so chunked output
// concatenates into a valid file without end of stream patching.
type OggOpusEncoder struct {
	enc *opus.Encoder
	ogg *oggwriter.OggWriter
	out *bytes.Buffer

	format       Format
	frameSamples int
	pcmInt16     []int16
	opusBuf      []byte
	pending      []byte

	timestamp uint32
	seq       uint16
}

// NewOggOpusEncoder creates encoder with given target bitrate.
// Opus requires one of 8/12/16/24/48kHz sample rates.
func NewOggOpusEncoder(format Format, bitrate int) (*OggOpusEncoder, error) {
	enc, err := opus.NewEncoder(format.SampleRate, format.NumChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("creating opus encoder: %w", err)
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		return nil, fmt.Errorf("setting opus bitrate: %w", err)
	}

	out := bytes.NewBuffer(nil)
	ogg, err := oggwriter.NewWith(out, uint32(format.SampleRate), uint16(format.NumChannels))
	if err != nil {
		return nil, fmt.Errorf("creating ogg writer: %w", err)
	}

	// 20ms opus frames
	frameSamples := format.SampleRate / 50 * format.NumChannels
	return &OggOpusEncoder{
		enc:          enc,
		ogg:          ogg,
		out:          out,
		format:       format,
		frameSamples: frameSamples,
		pcmInt16:     make([]int16, frameSamples),
		opusBuf:      make([]byte, 4000),
	}, nil
}

func (e *OggOpusEncoder) MimeType() string {
	return MimeTypeOggOpus
}

func (e *OggOpusEncoder) Encode(lpcm []byte) ([]byte, error) {
	e.pending = append(e.pending, lpcm...)

	frameBytes := e.frameSamples * 2
	for len(e.pending) >= frameBytes {
		if err := e.encodeFrame(e.pending[:frameBytes]); err != nil {
			return nil, err
		}
		e.pending = e.pending[frameBytes:]
	}

	return e.drain(), nil
}

// Finalize flushes the remainder padded with silence to full opus frame.
func (e *OggOpusEncoder) Finalize(data []byte) ([]byte, error) {
	frameBytes := e.frameSamples * 2
	if len(e.pending) > 0 {
		frame := make([]byte, frameBytes)
		copy(frame, e.pending)
		if err := e.encodeFrame(frame); err != nil {
			return nil, err
		}
		e.pending = nil
	}
	if err := e.ogg.Close(); err != nil {
		return nil, fmt.Errorf("closing ogg writer: %w", err)
	}

	return append(data, e.drain()...), nil
}

func (e *OggOpusEncoder) encodeFrame(frame []byte) error {
	SamplesByteToInt16(frame, e.pcmInt16)

	n, err := e.enc.Encode(e.pcmInt16, e.opusBuf)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}

	payload := make([]byte, n)
	copy(payload, e.opusBuf[:n])

	e.seq++
	e.timestamp += uint32(e.frameSamples / e.format.NumChannels)
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			SequenceNumber: e.seq,
			Timestamp:      e.timestamp,
		},
		Payload: payload,
	}
	if err := e.ogg.WriteRTP(pkt); err != nil {
		return fmt.Errorf("ogg write: %w", err)
	}
	return nil
}

func (e *OggOpusEncoder) drain() []byte {
	if e.out.Len() == 0 {
		return nil
	}
	chunk := make([]byte, e.out.Len())
	copy(chunk, e.out.Bytes())
	e.out.Reset()
	return chunk
}
