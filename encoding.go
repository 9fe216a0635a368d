// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"fmt"

	"github.com/voznote/capture/audio"
)

// RecorderBitrate is fixed encoding bitrate for compressed encodings.
// Moderate constant balancing file size and intelligibility, not user
// configurable.
const RecorderBitrate = 96000

// DefaultEncodingPreference is the ranked list requested at recorder
// creation. Most compatible container first, then compressed.
var DefaultEncodingPreference = []string{
	audio.MimeTypeWav,
	audio.MimeTypeOggOpus,
	audio.MimeTypeOgg,
}

type EncoderFactory func(format audio.Format) (audio.Encoder, error)

// EncoderRegistry holds encodings the platform supports. Resolution picks
// the first preference present in the registry, falling back to the
// registry default when none matches. The realized encoder MimeType stays
// authoritative over the requested identifier.
type EncoderRegistry struct {
	factories   map[string]EncoderFactory
	defaultMime string
}

func NewEncoderRegistry() *EncoderRegistry {
	return &EncoderRegistry{
		factories: map[string]EncoderFactory{},
	}
}

// DefaultEncoderRegistry mirrors what current platform build supports.
func DefaultEncoderRegistry() *EncoderRegistry {
	reg := NewEncoderRegistry()
	reg.Register(audio.MimeTypeWav, func(f audio.Format) (audio.Encoder, error) {
		return audio.NewWavEncoder(f)
	})
	reg.Register(audio.MimeTypeWavUlaw, func(f audio.Format) (audio.Encoder, error) {
		return audio.NewWavUlawEncoder(f)
	})
	oggOpus := func(f audio.Format) (audio.Encoder, error) {
		return audio.NewOggOpusEncoder(f, RecorderBitrate)
	}
	reg.Register(audio.MimeTypeOggOpus, oggOpus)
	// Codec unspecified ogg realizes as opus
	reg.Register(audio.MimeTypeOgg, oggOpus)
	reg.SetDefault(audio.MimeTypeWav)
	return reg
}

func (r *EncoderRegistry) Register(mimeType string, f EncoderFactory) {
	r.factories[mimeType] = f
}

// SetDefault marks platform default encoding used when no preference is
// supported. Must be registered.
func (r *EncoderRegistry) SetDefault(mimeType string) {
	r.defaultMime = mimeType
}

func (r *EncoderRegistry) Supported(mimeType string) bool {
	_, ok := r.factories[mimeType]
	return ok
}

// Resolve returns first supported identifier from prefs, or the platform
// default when nothing matches.
func (r *EncoderRegistry) Resolve(prefs []string) string {
	for _, mt := range prefs {
		if r.Supported(mt) {
			return mt
		}
	}
	return r.defaultMime
}

// NewEncoder creates encoder for resolved identifier.
func (r *EncoderRegistry) NewEncoder(mimeType string, format audio.Format) (audio.Encoder, error) {
	f, ok := r.factories[mimeType]
	if !ok {
		return nil, fmt.Errorf("encoding not registered mimeType=%q", mimeType)
	}
	return f(format)
}
