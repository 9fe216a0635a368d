// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// AnalyzerFFTSize is fixed transform size of the visualization tap.
	AnalyzerFFTSize = 256
	// AnalyzerBins is number of frequency bins exposed per snapshot.
	AnalyzerBins = AnalyzerFFTSize / 2
)

// Analyzer is frequency domain tap on the mixed output. It keeps only the
// most recent transform window and computes magnitudes on demand, so a
// consumer polls Snapshot at its own cadence without backpressure on the
// graph.
//
// It is only for visualization. Recorded artifact never goes through it.
type Analyzer struct {
	fft *fourier.FFT

	mu     sync.Mutex
	window []float64
	filled int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		fft:    fourier.NewFFT(AnalyzerFFTSize),
		window: make([]float64, AnalyzerFFTSize),
	}
}

// Write consumes mixed LPCM and shifts it into the transform window.
// Implements io.Writer so analyzer tees directly off the mixer output.
func (a *Analyzer) Write(b []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i+1 < len(b); i += 2 {
		sample := int16(uint16(b[i]) | uint16(b[i+1])<<8)
		if a.filled < len(a.window) {
			a.window[a.filled] = float64(sample) / 32768.0
			a.filled++
			continue
		}
		copy(a.window, a.window[1:])
		a.window[len(a.window)-1] = float64(sample) / 32768.0
	}
	return len(b), nil
}

// Snapshot returns current per bin magnitudes scaled 0-255. Always returns
// AnalyzerBins values. Silent or empty window yields zeros.
func (a *Analyzer) Snapshot() []byte {
	a.mu.Lock()
	seq := make([]float64, AnalyzerFFTSize)
	copy(seq, a.window)
	a.mu.Unlock()

	coeffs := a.fft.Coefficients(nil, seq)

	out := make([]byte, AnalyzerBins)
	for i := 0; i < AnalyzerBins; i++ {
		// Normalize to 0..1 full-scale sine and clip
		mag := cmplx.Abs(coeffs[i]) * 2 / AnalyzerFFTSize
		v := math.Round(mag * 255)
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// BinCount returns number of bins in every snapshot.
func (a *Analyzer) BinCount() int {
	return AnalyzerBins
}
