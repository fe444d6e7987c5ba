// Package classify implements Component D: a fixed rule-based classifier
// with explicit precedence, grounded on the numeric-threshold style of
// pkg/acousticdna/fingerprint/peaks.go's peak-acceptance rules.
package classify

import (
	"math"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

// thresholds holds the default (multiplier == 1.0) rule constants.
type thresholds struct {
	bilabialLowBandEnergy   float64
	bilabialCentroidMax     float64
	bilabialPeakAmplitude   float64
	hihatHighBandEnergy     float64
	hihatZCR                float64
	clickMidBandEnergy      float64
	clickZCRMin             float64
	clickZCRMax             float64
	clickCentroidMin        float64
	clickCentroidMax        float64
	humZCRMax               float64
	humLowMidEnergy         float64
}

func defaults() thresholds {
	return thresholds{
		bilabialLowBandEnergy: 0.55,
		bilabialCentroidMax:   700,
		bilabialPeakAmplitude: 0.15,
		hihatHighBandEnergy:   0.45,
		hihatZCR:              0.30,
		clickMidBandEnergy:    0.40,
		clickZCRMin:           0.08,
		clickZCRMax:           0.30,
		clickCentroidMin:      700,
		clickCentroidMax:      3500,
		humZCRMax:             0.05,
		humLowMidEnergy:       0.7,
	}
}

// multiplier looks up a per-class calibration multiplier, defaulting to 1.0
// for missing keys; unknown map keys are simply never read.
func multiplier(profile *beatforge.CalibrationProfile, class beatforge.EventClass) float64 {
	if profile == nil || profile.Thresholds == nil {
		return 1.0
	}
	if m, ok := profile.Thresholds[class]; ok {
		return m
	}
	return 1.0
}

// Classify applies the fixed-precedence rule set to one feature vector and
// returns its class and confidence. The classifier never fails: HumVoiced
// is the totality-guaranteeing fallback. A calibration profile's multiplier
// for a class scales every threshold of that class, not just its primary
// one, so that doubling a multiplier is equivalent to doubling each of the
// class's corresponding thresholds (§8 calibration-linearity invariant).
func Classify(f beatforge.FeatureVector, profile *beatforge.CalibrationProfile) (beatforge.EventClass, float64) {
	t := defaults()

	bilabialMult := multiplier(profile, beatforge.BilabialPlosive)
	bilabialLow := t.bilabialLowBandEnergy * bilabialMult
	bilabialCentroidMax := t.bilabialCentroidMax * bilabialMult
	bilabialPeakAmplitude := t.bilabialPeakAmplitude * bilabialMult
	if f.LowBandEnergy >= bilabialLow && f.SpectralCentroid < bilabialCentroidMax && f.PeakAmplitude >= bilabialPeakAmplitude {
		return beatforge.BilabialPlosive, confidenceFromDistance(f.LowBandEnergy, bilabialLow)
	}

	hihatMult := multiplier(profile, beatforge.HihatNoise)
	hihatHigh := t.hihatHighBandEnergy * hihatMult
	hihatZCR := t.hihatZCR * hihatMult
	if f.HighBandEnergy >= hihatHigh && f.ZCR >= hihatZCR {
		return beatforge.HihatNoise, confidenceFromDistance(f.HighBandEnergy, hihatHigh)
	}

	clickMult := multiplier(profile, beatforge.Click)
	clickMid := t.clickMidBandEnergy * clickMult
	clickZCRMin := t.clickZCRMin * clickMult
	clickZCRMax := t.clickZCRMax * clickMult
	clickCentroidMin := t.clickCentroidMin * clickMult
	clickCentroidMax := t.clickCentroidMax * clickMult
	if f.MidBandEnergy >= clickMid && f.ZCR >= clickZCRMin && f.ZCR <= clickZCRMax &&
		f.SpectralCentroid >= clickCentroidMin && f.SpectralCentroid <= clickCentroidMax {
		return beatforge.Click, confidenceFromDistance(f.MidBandEnergy, clickMid)
	}

	// HumVoiced: explicit condition or unconditional fallback.
	confidence := math.Max(0.3, 1-f.ZCR*2)
	return beatforge.HumVoiced, confidence
}

// confidenceFromDistance normalizes how far a feature exceeds its threshold,
// clipped to [0.5, 0.99] per §4.D.
func confidenceFromDistance(value, threshold float64) float64 {
	if threshold == 0 {
		return 0.5
	}
	distance := (value - threshold) / threshold
	c := 0.5 + distance
	if c < 0.5 {
		return 0.5
	}
	if c > 0.99 {
		return 0.99
	}
	return c
}
