// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSilence(t *testing.T) {
	a := NewAnalyzer()

	snap := a.Snapshot()
	require.Len(t, snap, AnalyzerBins)
	assert.Equal(t, make([]byte, AnalyzerBins), snap)

	_, err := a.Write(make([]byte, AnalyzerFFTSize*2))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, AnalyzerBins), a.Snapshot())
}

func TestSnapshotSinePeaksAtBin(t *testing.T) {
	a := NewAnalyzer()

	// Full scale sine exactly on bin 32
	const bin = 32
	samples := make([]int16, AnalyzerFFTSize)
	for i := range samples {
		samples[i] = int16(32000 * math.Sin(2*math.Pi*float64(bin)*float64(i)/AnalyzerFFTSize))
	}
	buf := make([]byte, len(samples)*2)
	SamplesInt16ToBytes(samples, buf)

	_, err := a.Write(buf)
	require.NoError(t, err)

	snap := a.Snapshot()
	require.Len(t, snap, AnalyzerBins)

	peak := 0
	for i, v := range snap {
		if v > snap[peak] {
			peak = i
		}
	}
	assert.Equal(t, bin, peak)
	assert.Greater(t, snap[peak], byte(200))

	// Off peak bins stay quiet
	assert.Less(t, snap[bin/2], byte(20))
}

func TestWriteKeepsMostRecentWindow(t *testing.T) {
	a := NewAnalyzer()

	// Overfill with loud then feed a full window of silence
	loud := frameOf(30000, AnalyzerFFTSize)
	_, err := a.Write(loud)
	require.NoError(t, err)
	_, err = a.Write(make([]byte, AnalyzerFFTSize*2))
	require.NoError(t, err)

	assert.Equal(t, make([]byte, AnalyzerBins), a.Snapshot())
}

func TestBinCount(t *testing.T) {
	assert.Equal(t, 128, NewAnalyzer().BinCount())
}
