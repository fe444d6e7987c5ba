// Package features implements Component C: fixed-shape acoustic feature
// extraction over a short analysis window around each onset, grounded on
// pkg/acousticdna/fingerprint's spectrum-derivation helpers.
package features

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/dsp"
)

const (
	WindowMs  = 50
	PreRollMs = 5

	LowBandHz = 200
	MidBandHz = 2000
)

// Extract computes the fixed FeatureVector for one onset at timestampMs,
// given a peak amplitude already measured by the onset detector.
func Extract(samples []float64, sampleRate int, timestampMs, peakAmplitude float64) beatforge.FeatureVector {
	startMs := timestampMs - PreRollMs
	if startMs < 0 {
		startMs = 0
	}
	startSample := int(startMs / 1000.0 * float64(sampleRate))
	windowSamples := int(WindowMs / 1000.0 * float64(sampleRate))
	endSample := startSample + windowSamples
	if endSample > len(samples) {
		endSample = len(samples)
	}
	if startSample >= endSample {
		return beatforge.FeatureVector{PeakAmplitude: peakAmplitude}
	}
	window := samples[startSample:endSample]

	win := dsp.HannWindow(len(window))
	windowed := make([]float64, len(window))
	for i, s := range window {
		windowed[i] = s * win[i]
	}
	spectrum := fft.FFTReal(windowed)
	half := len(spectrum)/2 + 1
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}

	centroid := dsp.SpectralCentroid(mag, len(windowed), sampleRate)
	zcr := dsp.ZeroCrossingRate(window)
	low, mid, high := dsp.BandEnergyRatios(mag, len(windowed), sampleRate, LowBandHz, MidBandHz)

	return beatforge.FeatureVector{
		SpectralCentroid: centroid,
		ZCR:              zcr,
		LowBandEnergy:    low,
		MidBandEnergy:    mid,
		HighBandEnergy:   high,
		PeakAmplitude:    peakAmplitude,
	}
}
