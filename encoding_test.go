// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voznote/capture/audio"
)

func TestResolvePreferenceOrder(t *testing.T) {
	reg := DefaultEncoderRegistry()

	assert.Equal(t, audio.MimeTypeWav, reg.Resolve(DefaultEncodingPreference))
	assert.Equal(t, audio.MimeTypeOggOpus, reg.Resolve([]string{"audio/mp4", audio.MimeTypeOggOpus}))
}

func TestResolveFallsBackToDefault(t *testing.T) {
	reg := DefaultEncoderRegistry()

	mt := reg.Resolve([]string{"audio/mp4", "audio/flac"})
	assert.Equal(t, audio.MimeTypeWav, mt)

	mt = reg.Resolve(nil)
	assert.Equal(t, audio.MimeTypeWav, mt)
}

func TestRealizedMimeTypeAuthoritative(t *testing.T) {
	reg := DefaultEncoderRegistry()

	// Codec unspecified ogg is supported but realizes as ogg/opus. The
	// encoder reported type wins over the requested identifier.
	require.True(t, reg.Supported(audio.MimeTypeOgg))

	enc, err := reg.NewEncoder(audio.MimeTypeWav, audio.DefaultFormat)
	require.NoError(t, err)
	assert.Equal(t, audio.MimeTypeWav, enc.MimeType())
}

func TestNewEncoderUnknownMimeType(t *testing.T) {
	reg := DefaultEncoderRegistry()
	_, err := reg.NewEncoder("audio/flac", audio.DefaultFormat)
	require.Error(t, err)
}
