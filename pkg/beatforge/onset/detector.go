// Package onset implements Component B: spectral-flux novelty detection
// with local-maxima peak picking, grounded on pkg/acousticdna/fingerprint's
// STFT usage and generalized from fingerprint/peak-picking to onset timing.
package onset

import (
	"math"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/dsp"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

const (
	WindowSize      = 1024
	HopSize         = 512
	PeakWindowMs    = 30
	RefractoryMs    = 50
	NoveltyMeanMs   = 300
	NoveltyEpsilon  = 1e-6
	Threshold       = 0.6
	DefaultDurationMs = 100
	PeakAmpWindowMs = 25
)

// Onset is a detected event boundary.
type Onset struct {
	TimestampMs   float64
	DurationMs    float64
	PeakAmplitude float64
}

// Detect runs spectral-flux onset detection over a mono sample stream.
// Returns beatforge.StageOnset / NoOnsets when fewer than one peak survives.
func Detect(samples []float64, sampleRate int) ([]Onset, error) {
	frames := dsp.STFT(samples, WindowSize, HopSize)
	if len(frames) < 2 {
		return nil, beatforge.NewError(beatforge.StageOnset, "", "NoOnsets: insufficient frames for analysis", nil)
	}

	hopMs := float64(HopSize) / float64(sampleRate) * 1000.0
	raw := make([]float64, len(frames))
	for i := 1; i < len(frames); i++ {
		raw[i] = spectralFlux(frames[i-1].Magnitude, frames[i].Magnitude)
	}

	meanHalfWindowFrames := int(NoveltyMeanMs/2/hopMs + 0.5)
	if meanHalfWindowFrames < 1 {
		meanHalfWindowFrames = 1
	}
	novelty := normalize(raw, meanHalfWindowFrames)

	peakWindowFrames := int(PeakWindowMs/hopMs + 0.5)
	if peakWindowFrames < 1 {
		peakWindowFrames = 1
	}
	refractoryFrames := int(RefractoryMs/hopMs + 0.5)
	if refractoryFrames < 1 {
		refractoryFrames = 1
	}

	var onsets []Onset
	lastPeak := -refractoryFrames - 1
	for i := range novelty {
		if novelty[i] < Threshold {
			continue
		}
		if !isLocalMax(novelty, i, peakWindowFrames) {
			continue
		}
		if i-lastPeak < refractoryFrames {
			continue
		}
		centerMs := (float64(frames[i].OffsetSamples) + float64(WindowSize)/2) / float64(sampleRate) * 1000.0
		peakAmp := peakAmplitudeAround(samples, sampleRate, centerMs, PeakAmpWindowMs)
		onsets = append(onsets, Onset{
			TimestampMs:   centerMs,
			DurationMs:    DefaultDurationMs,
			PeakAmplitude: peakAmp,
		})
		lastPeak = i
	}

	logger.Debugf("onset: %d frames, %d onsets, threshold=%.2f", len(frames), len(onsets), Threshold)
	if len(onsets) < 1 {
		return nil, beatforge.NewError(beatforge.StageOnset, "", "NoOnsets: no novelty peak survived thresholding", nil)
	}
	return onsets, nil
}

// spectralFlux is the half-wave-rectified positive energy increase between
// two consecutive spectra.
func spectralFlux(prev, cur []float64) float64 {
	var sum float64
	for i := range cur {
		d := cur[i] - prev[i]
		if d > 0 {
			sum += d
		}
	}
	return sum
}

// normalize subtracts a centered local mean and divides by local standard
// deviation plus epsilon, over a sliding window of halfWindow frames each
// side.
func normalize(raw []float64, halfWindow int) []float64 {
	out := make([]float64, len(raw))
	for i := range raw {
		lo := i - halfWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + halfWindow
		if hi >= len(raw) {
			hi = len(raw) - 1
		}
		n := hi - lo + 1
		var mean float64
		for j := lo; j <= hi; j++ {
			mean += raw[j]
		}
		mean /= float64(n)
		var variance float64
		for j := lo; j <= hi; j++ {
			d := raw[j] - mean
			variance += d * d
		}
		variance /= float64(n)
		std := math.Sqrt(variance)
		out[i] = (raw[i] - mean) / (std + NoveltyEpsilon)
	}
	return out
}

// isLocalMax reports whether novelty[i] is the maximum within ±window
// frames of itself.
func isLocalMax(novelty []float64, i, window int) bool {
	lo := i - window
	if lo < 0 {
		lo = 0
	}
	hi := i + window
	if hi >= len(novelty) {
		hi = len(novelty) - 1
	}
	for j := lo; j <= hi; j++ {
		if j != i && novelty[j] > novelty[i] {
			return false
		}
	}
	return true
}

// peakAmplitudeAround returns the raw waveform absolute max within
// ±windowMs of centerMs.
func peakAmplitudeAround(samples []float64, sampleRate int, centerMs, windowMs float64) float64 {
	centerSample := int(centerMs / 1000.0 * float64(sampleRate))
	halfSamples := int(windowMs / 1000.0 * float64(sampleRate))
	lo := centerSample - halfSamples
	if lo < 0 {
		lo = 0
	}
	hi := centerSample + halfSamples
	if hi >= len(samples) {
		hi = len(samples) - 1
	}
	if lo > hi {
		return 0
	}
	return dsp.PeakAmplitude(samples[lo : hi+1])
}
