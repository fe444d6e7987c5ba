// Package tempo implements Component E: BPM and beat-phase estimation
// from an onset train via autocorrelation, grounded on pkg/acousticdna's
// FFT-based numeric style but using scientificgo.org/fft directly for the
// autocorrelation transform (a dependency the teacher carried only
// indirectly).
package tempo

import (
	"math"
	"math/cmplx"

	sfft "scientificgo.org/fft"

	"github.com/himanishpuri/beatforge/pkg/logger"
)

const (
	ImpulseResolutionMs = 5
	MinBPM              = 40.0
	MaxBPM              = 240.0
	PriorPeakBPM        = 120.0
	PriorSigmaLogTempo  = 0.35
	LowConfidenceBound  = 0.2
	FallbackBPM         = 120.0
)

// Result is the estimator's output (§4.E).
type Result struct {
	BPM               float64
	Confidence        float64
	BeatPositionsMs   []float64
	FallbackApplied   bool
}

// Estimate runs autocorrelation-based tempo estimation over onset
// timestamps spanning totalDurationMs. A low-confidence result (< 0.2) is
// recovered locally to 120 BPM with FallbackApplied set, never surfaced as
// an error (§7).
func Estimate(onsetTimestampsMs []float64, totalDurationMs float64) Result {
	impulses := buildImpulseTrain(onsetTimestampsMs, totalDurationMs)
	autocorr := autocorrelate(impulses)

	minLag := int(60000.0 / MaxBPM / ImpulseResolutionMs)
	maxLag := int(60000.0 / MinBPM / ImpulseResolutionMs)
	if maxLag >= len(autocorr) {
		maxLag = len(autocorr) - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	bestLag, bestScore, mean, stddev := pickBestLag(autocorr, minLag, maxLag)
	bpmCandidate := 60000.0 / (float64(bestLag) * ImpulseResolutionMs)

	bpmCandidate, bestLag = octaveCorrect(bpmCandidate, bestLag, impulses)

	beatMs := 60000.0 / bpmCandidate
	phaseMs := bestPhase(impulses, beatMs)
	beatPositions := beatPositionsFrom(phaseMs, beatMs, totalDurationMs)

	confidence := 0.0
	if stddev > 0 {
		confidence = (bestScore - mean) / stddev
	}
	confidence = clip01(confidence)

	result := Result{BPM: bpmCandidate, Confidence: confidence, BeatPositionsMs: beatPositions}
	if confidence < LowConfidenceBound {
		logger.Warnf("tempo: low confidence %.3f, falling back to %.0f BPM", confidence, FallbackBPM)
		result.BPM = FallbackBPM
		result.FallbackApplied = true
		beatMs = 60000.0 / FallbackBPM
		result.BeatPositionsMs = beatPositionsFrom(0, beatMs, totalDurationMs)
	}
	return result
}

// buildImpulseTrain rasterizes onset timestamps onto a fixed-resolution
// impulse train.
func buildImpulseTrain(onsetTimestampsMs []float64, totalDurationMs float64) []float64 {
	n := int(totalDurationMs/ImpulseResolutionMs) + 1
	if n < 1 {
		n = 1
	}
	train := make([]float64, n)
	for _, t := range onsetTimestampsMs {
		idx := int(t / ImpulseResolutionMs)
		if idx >= 0 && idx < n {
			train[idx] = 1
		}
	}
	return train
}

// autocorrelate computes the full autocorrelation of train via FFT-based
// convolution (accumulators in f64 per §9 "numeric semantics").
func autocorrelate(train []float64) []float64 {
	n := len(train)
	size := nextPowerOfTwo(2 * n)
	padded := make([]complex128, size)
	for i, v := range train {
		padded[i] = complex(v, 0)
	}
	spectrum := sfft.Fft(padded, false)
	for i, c := range spectrum {
		spectrum[i] = complex(cmplx.Abs(c)*cmplx.Abs(c), 0)
	}
	inverse := sfft.Fft(spectrum, true)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = real(inverse[i])
	}
	return out
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// pickBestLag scans [minLag,maxLag], weighting each lag's autocorrelation
// by a log-normal prior peaked at PriorPeakBPM, and returns the winning
// lag plus the unweighted mean/stddev of the scanned range (for confidence).
func pickBestLag(autocorr []float64, minLag, maxLag int) (bestLag int, bestScore, mean, stddev float64) {
	var sum, sumSq float64
	count := 0
	bestWeighted := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		if lag >= len(autocorr) {
			break
		}
		score := autocorr[lag]
		bpm := 60000.0 / (float64(lag) * ImpulseResolutionMs)
		weight := logNormalPrior(bpm)
		weighted := score * weight
		sum += score
		sumSq += score * score
		count++
		if weighted > bestWeighted {
			bestWeighted = weighted
			bestLag = lag
			bestScore = score
		}
	}
	if count > 0 {
		mean = sum / float64(count)
		variance := sumSq/float64(count) - mean*mean
		if variance > 0 {
			stddev = math.Sqrt(variance)
		}
	}
	return
}

// logNormalPrior weights a candidate BPM by closeness (in log-tempo space)
// to the 120 BPM musical center.
func logNormalPrior(bpm float64) float64 {
	logRatio := math.Log(bpm / PriorPeakBPM)
	return math.Exp(-(logRatio * logRatio) / (2 * PriorSigmaLogTempo * PriorSigmaLogTempo))
}

// octaveCorrect tests doubling (if candidate < 70) or halving (if > 180)
// and keeps whichever version has the higher phase-alignment score.
func octaveCorrect(bpm float64, lag int, impulses []float64) (float64, int) {
	var altBPM float64
	var altLag int
	switch {
	case bpm < 70:
		altBPM = bpm * 2
		altLag = lag / 2
	case bpm > 180:
		altBPM = bpm / 2
		altLag = lag * 2
	default:
		return bpm, lag
	}
	if altLag < 1 {
		return bpm, lag
	}
	origScore := phaseAlignmentScore(impulses, 60000.0/bpm)
	altScore := phaseAlignmentScore(impulses, 60000.0/altBPM)
	if altScore > origScore {
		return altBPM, altLag
	}
	return bpm, lag
}

// phaseAlignmentScore returns the best phase score for a candidate beat
// period (used only to compare octave candidates against each other).
func phaseAlignmentScore(impulses []float64, beatMs float64) float64 {
	_, score := bestPhaseWithScore(impulses, beatMs)
	return score
}

// bestPhase is the argmax phase in [0, beatMs) of the impulse sum at
// phase + n*beatMs (§4.E step 6).
func bestPhase(impulses []float64, beatMs float64) float64 {
	phase, _ := bestPhaseWithScore(impulses, beatMs)
	return phase
}

func bestPhaseWithScore(impulses []float64, beatMs float64) (float64, float64) {
	beatSteps := int(beatMs / ImpulseResolutionMs)
	if beatSteps < 1 {
		return 0, 0
	}
	bestScore := math.Inf(-1)
	var bestPhaseMs float64
	for p := 0; p < beatSteps; p++ {
		var sum float64
		for idx := p; idx < len(impulses); idx += beatSteps {
			sum += impulses[idx]
		}
		if sum > bestScore {
			bestScore = sum
			bestPhaseMs = float64(p) * ImpulseResolutionMs
		}
	}
	return bestPhaseMs, bestScore
}

func beatPositionsFrom(phaseMs, beatMs, totalDurationMs float64) []float64 {
	var positions []float64
	for t := phaseMs; t < totalDurationMs; t += beatMs {
		positions = append(positions, t)
	}
	return positions
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
