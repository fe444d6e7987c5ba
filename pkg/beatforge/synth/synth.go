// Package synth implements Component I: an offline subtractive-synth
// renderer. The Rust original's render/synth.rs and render/effects.rs are
// string-name placeholders only (no real DSP was ever implemented there),
// so the voice DSP here is built fresh from §4.I; the mixing helpers
// (midi-to-frequency, soft limiter, sidechain envelope shape) are grounded
// on the real logic in render/mixer.rs.
package synth

import (
	"math"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

const (
	SampleRate = 44100
	Limiter    = 0.95
)

// Render renders an Arrangement to normalized mono PCM samples at 44.1kHz
// (§4.I). Lane gains default to 1.0.
func Render(arr *beatforge.Arrangement) []float64 {
	totalSamples := int(arr.TotalDurationMs/1000.0*SampleRate) + SampleRate/2 // tail room for release
	mix := make([]float64, totalSamples)

	kickEvents := kickTriggerTimes(arr)

	for i := range arr.DrumLanes {
		lane := &arr.DrumLanes[i]
		switch lane.Name {
		case beatforge.LaneKick:
			renderVoices(mix, lane.Notes, renderKick)
		case beatforge.LaneSnare:
			renderVoices(mix, lane.Notes, renderSnare)
		case beatforge.LaneHat:
			renderVoices(mix, lane.Notes, renderHat)
		}
	}

	duckAmount := 0.0
	for i := range arr.DrumLanes {
		if arr.DrumLanes[i].Name == beatforge.LaneKick {
			duckAmount = arr.DrumLanes[i].DuckAmount
		}
	}

	pitched := make([]float64, totalSamples)
	if arr.BassLane != nil {
		renderVoices(pitched, arr.BassLane.Notes, renderBass)
	}
	if arr.PadLane != nil {
		renderVoices(pitched, arr.PadLane.Notes, renderPad)
	}
	if arr.ArpLane != nil {
		renderVoices(pitched, arr.ArpLane.Notes, renderPad)
	}

	if duckAmount > 0 {
		applySidechain(pitched, kickEvents, duckAmount)
	}

	for i := range mix {
		mix[i] += pitched[i]
	}

	for i := range mix {
		mix[i] = softLimit(mix[i], Limiter)
	}
	return mix
}

// kickTriggerTimes returns every kick note's onset time in ms, the
// sidechain's trigger source (§4.I "triggered by each kick event").
func kickTriggerTimes(arr *beatforge.Arrangement) []float64 {
	for i := range arr.DrumLanes {
		if arr.DrumLanes[i].Name == beatforge.LaneKick {
			times := make([]float64, len(arr.DrumLanes[i].Notes))
			for j, n := range arr.DrumLanes[i].Notes {
				times[j] = n.TimestampMs
			}
			return times
		}
	}
	return nil
}

type voiceFn func(note beatforge.ArrangedNote, sampleRate int) []float64

func renderVoices(mix []float64, notes []beatforge.ArrangedNote, fn voiceFn) {
	for _, n := range notes {
		voice := fn(n, SampleRate)
		start := int(n.TimestampMs / 1000.0 * SampleRate)
		for i, s := range voice {
			idx := start + i
			if idx >= 0 && idx < len(mix) {
				mix[idx] += s
			}
		}
	}
}

func velocityGain(v int) float64 {
	return float64(beatforge.ClampVelocity(v)) / 127.0
}

// renderKick: 150->60Hz sine pitch-sweep over 50ms, exp decay to 300ms.
func renderKick(n beatforge.ArrangedNote, sampleRate int) []float64 {
	durationMs := 300.0
	samples := make([]float64, int(durationMs/1000.0*float64(sampleRate)))
	gain := velocityGain(n.Velocity)
	var phase float64
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		sweepT := math.Min(t/0.05, 1.0)
		freq := 150.0 + (60.0-150.0)*sweepT
		phase += 2 * math.Pi * freq / float64(sampleRate)
		decay := math.Exp(-t / (0.3 / 5))
		samples[i] = math.Sin(phase) * decay * gain
	}
	return samples
}

// renderSnare: noise through bandpass centered 2kHz (Q=1), exp decay 150ms,
// plus a 200Hz sine body 100ms.
func renderSnare(n beatforge.ArrangedNote, sampleRate int) []float64 {
	durationMs := 150.0
	samples := make([]float64, int(durationMs/1000.0*float64(sampleRate)))
	gain := velocityGain(n.Velocity)
	rng := newNoiseSource(uint64(len(samples)) + 1)
	bp := newBandpass(2000, 1.0, sampleRate)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		noise := bp.process(rng.next())
		decay := math.Exp(-t / (0.15 / 5))
		body := 0.0
		if t < 0.1 {
			body = math.Sin(2*math.Pi*200*t) * math.Exp(-t/(0.1/5))
		}
		samples[i] = (noise*0.7 + body*0.5) * decay * gain
	}
	return samples
}

// renderHat: noise highpassed at 8kHz, exp decay 40ms.
func renderHat(n beatforge.ArrangedNote, sampleRate int) []float64 {
	durationMs := 40.0
	samples := make([]float64, int(durationMs/1000.0*float64(sampleRate)))
	gain := velocityGain(n.Velocity)
	rng := newNoiseSource(uint64(len(samples)) + 7)
	hp := newHighpass(8000, sampleRate)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		noise := hp.process(rng.next())
		decay := math.Exp(-t / (0.04 / 5))
		samples[i] = noise * decay * gain
	}
	return samples
}

// renderBass: sawtooth through 800Hz lowpass, ADSR (A=5ms,D=50ms,S=0.6,
// R=min(duration,300ms)).
func renderBass(n beatforge.ArrangedNote, sampleRate int) []float64 {
	durationMs := n.DurationMs
	release := math.Min(durationMs, 300)
	totalMs := durationMs + release
	samples := make([]float64, int(totalMs/1000.0*float64(sampleRate)))
	gain := velocityGain(n.Velocity)
	freq := midiToFreq(n.MidiNote)
	lp := newLowpass(800, sampleRate)
	for i := range samples {
		t := float64(i) / float64(sampleRate) * 1000.0
		saw := sawtooth(freq, i, sampleRate)
		filtered := lp.process(saw)
		env := adsr(t, durationMs, 5, 50, 0.6, release)
		samples[i] = filtered * env * gain
	}
	return samples
}

// renderPad: square through time-varying lowpass sweeping 1200->400Hz,
// attack 20ms, release 100ms.
func renderPad(n beatforge.ArrangedNote, sampleRate int) []float64 {
	durationMs := n.DurationMs
	release := 100.0
	totalMs := durationMs + release
	samples := make([]float64, int(totalMs/1000.0*float64(sampleRate)))
	gain := velocityGain(n.Velocity)
	freq := midiToFreq(n.MidiNote)
	lp := newLowpass(1200, sampleRate)
	for i := range samples {
		t := float64(i) / float64(sampleRate) * 1000.0
		sweepT := math.Min(t/durationMs, 1.0)
		cutoff := 1200.0 + (400.0-1200.0)*sweepT
		lp.setCutoff(cutoff, sampleRate)
		sq := squareWave(freq, i, sampleRate)
		filtered := lp.process(sq)
		env := attackRelease(t, durationMs, 20, release)
		samples[i] = filtered * env * gain
	}
	return samples
}

// applySidechain ducks pitched's gain by 1 - duckAmount*env(t), env being a
// 150ms exponential decay retriggered at each kick event (§4.I).
func applySidechain(pitched []float64, kickTimesMs []float64, duckAmount float64) {
	if len(kickTimesMs) == 0 {
		return
	}
	for i := range pitched {
		tMs := float64(i) / SampleRate * 1000.0
		env := duckEnvelope(tMs, kickTimesMs)
		pitched[i] *= 1 - duckAmount*env
	}
}

// duckEnvelope finds the most recent kick before tMs and returns its
// exponential decay value at tMs (1.0 at the kick, decaying over 150ms).
func duckEnvelope(tMs float64, kickTimesMs []float64) float64 {
	best := -1.0
	for _, k := range kickTimesMs {
		if k <= tMs && tMs-k < 150 {
			elapsed := tMs - k
			val := math.Exp(-elapsed / (150.0 / 5))
			if val > best {
				best = val
			}
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func softLimit(sample, threshold float64) float64 {
	if math.Abs(sample) <= threshold {
		return sample
	}
	sign := 1.0
	if sample < 0 {
		sign = -1.0
	}
	return sign * (threshold + (1-threshold)*math.Tanh((math.Abs(sample)-threshold)/(1-threshold)))
}

func midiToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12.0)
}

func adsr(tMs, sustainedDurationMs, attackMs, decayMs, sustain, releaseMs float64) float64 {
	switch {
	case tMs < attackMs:
		return tMs / attackMs
	case tMs < attackMs+decayMs:
		decayT := (tMs - attackMs) / decayMs
		return 1.0 + (sustain-1.0)*decayT
	case tMs < sustainedDurationMs:
		return sustain
	case tMs < sustainedDurationMs+releaseMs:
		releaseT := (tMs - sustainedDurationMs) / releaseMs
		return sustain * (1.0 - releaseT)
	default:
		return 0
	}
}

func attackRelease(tMs, sustainedDurationMs, attackMs, releaseMs float64) float64 {
	switch {
	case tMs < attackMs:
		return tMs / attackMs
	case tMs < sustainedDurationMs:
		return 1.0
	case tMs < sustainedDurationMs+releaseMs:
		return 1.0 - (tMs-sustainedDurationMs)/releaseMs
	default:
		return 0
	}
}

func sawtooth(freq float64, sampleIndex, sampleRate int) float64 {
	period := float64(sampleRate) / freq
	phase := math.Mod(float64(sampleIndex), period) / period
	return 2*phase - 1
}

func squareWave(freq float64, sampleIndex, sampleRate int) float64 {
	period := float64(sampleRate) / freq
	phase := math.Mod(float64(sampleIndex), period) / period
	if phase < 0.5 {
		return 1
	}
	return -1
}
