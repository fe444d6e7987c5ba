// Package dsp holds the spectral-analysis primitives shared by onset
// detection, feature extraction and tempo estimation: windowing, STFT
// framing and magnitude-spectrum computation. Grounded on
// pkg/acousticdna/fingerprint/spectrogram.go's windowing approach, backed
// by github.com/mjibson/go-dsp/fft for the transform itself.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// HannWindow returns a Hann window of length n.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Frame is one windowed analysis frame: its sample offset into the source
// buffer and the magnitude spectrum of its first half (Nyquist-folded).
type Frame struct {
	OffsetSamples int
	Magnitude     []float64 // length windowSize/2 + 1
}

// STFT splits samples into overlapping Hann-windowed frames of windowSize
// with the given hop and returns each frame's magnitude spectrum.
func STFT(samples []float64, windowSize, hop int) []Frame {
	if windowSize <= 0 || hop <= 0 || len(samples) < windowSize {
		return nil
	}
	win := HannWindow(windowSize)
	var frames []Frame
	for start := 0; start+windowSize <= len(samples); start += hop {
		windowed := make([]float64, windowSize)
		for i := 0; i < windowSize; i++ {
			windowed[i] = samples[start+i] * win[i]
		}
		spectrum := fft.FFTReal(windowed)
		mag := make([]float64, windowSize/2+1)
		for i := range mag {
			mag[i] = cmplx.Abs(spectrum[i])
		}
		frames = append(frames, Frame{OffsetSamples: start, Magnitude: mag})
	}
	return frames
}

// BinFrequency converts an FFT bin index to Hz for the given window size
// and sample rate.
func BinFrequency(bin, windowSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(windowSize)
}

// SpectralCentroid computes the magnitude-weighted mean frequency of a
// spectrum, in Hz.
func SpectralCentroid(mag []float64, windowSize, sampleRate int) float64 {
	var weighted, total float64
	for i, m := range mag {
		f := BinFrequency(i, windowSize, sampleRate)
		weighted += f * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ZeroCrossingRate returns the fraction of adjacent sample pairs with
// opposite sign, in [0,1].
func ZeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// BandEnergyRatios splits a magnitude spectrum into low/mid/high bands at
// the given Hz boundaries and returns each band's share of total energy.
// The three outputs sum to 1 unless the spectrum has zero total energy, in
// which case all three are 0.
func BandEnergyRatios(mag []float64, windowSize, sampleRate int, lowHz, midHz float64) (low, mid, high float64) {
	var totalEnergy, lowEnergy, midEnergy, highEnergy float64
	for i, m := range mag {
		energy := m * m
		totalEnergy += energy
		f := BinFrequency(i, windowSize, sampleRate)
		switch {
		case f < lowHz:
			lowEnergy += energy
		case f < midHz:
			midEnergy += energy
		default:
			highEnergy += energy
		}
	}
	if totalEnergy == 0 {
		return 0, 0, 0
	}
	return lowEnergy / totalEnergy, midEnergy / totalEnergy, highEnergy / totalEnergy
}

// PeakAmplitude returns the maximum absolute sample value in a window.
func PeakAmplitude(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
	}
	return peak
}
