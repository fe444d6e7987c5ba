// Package groove implements Component F (grid construction and
// quantization), grounded on the Rust original's groove/grid.rs and
// groove/quantize.rs. Swing uses a 2/3 slot-duration factor (SPEC_FULL.md
// §4.F), and triplet+swing collapses to straight timing with swing_amount
// forced to 0 (SPEC_FULL.md §10).
package groove

import "github.com/himanishpuri/beatforge/pkg/beatforge"

// BuildSlots returns every grid slot timestamp (ms) across bar_count bars,
// honoring swing per §4.F. Slot spacing is beat_ms / division.SubdivisionsPerBeat();
// halftime feel doubles effective bar length downstream in the arranger,
// not here (the grid itself is unchanged, per §4.F "Halftime feel").
func BuildSlots(plan beatforge.GridPlan) []float64 {
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	subs := plan.Division.SubdivisionsPerBeat()
	if subs < 1 {
		subs = 1
	}
	slotMs := plan.SlotMs()
	totalSlots := plan.BarCount * beatsPerBar * subs

	swingAmount := plan.SwingAmount
	if plan.Division == beatforge.DivisionTriplet {
		// Open Question resolution (§9/§10): triplet+swing == straight.
		swingAmount = 0
	}
	swingApplies := plan.Division == beatforge.DivisionEighth || plan.Division == beatforge.DivisionSixteenth

	slots := make([]float64, totalSlots)
	for k := 0; k < totalSlots; k++ {
		t := plan.BeatPhaseMs + float64(k)*slotMs
		if swingApplies && swingAmount > 0 && k%2 == 1 {
			t += swingAmount * slotMs * (2.0 / 3.0)
		}
		slots[k] = t
	}
	return slots
}

// NearestSlot returns the index and timestamp of the slot closest to t.
func NearestSlot(slots []float64, t float64) (index int, timestamp float64) {
	if len(slots) == 0 {
		return -1, 0
	}
	best := 0
	bestDist := abs(slots[0] - t)
	for i := 1; i < len(slots); i++ {
		d := abs(slots[i] - t)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, slots[best]
}

// PositionOf converts a slot index back into bar/beat/subdivision
// coordinates.
func PositionOf(plan beatforge.GridPlan, slotIndex int) beatforge.GridPosition {
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	subs := plan.Division.SubdivisionsPerBeat()
	if subs < 1 {
		subs = 1
	}
	slotsPerBar := beatsPerBar * subs
	if slotsPerBar < 1 {
		slotsPerBar = 1
	}
	bar := slotIndex / slotsPerBar
	rem := slotIndex % slotsPerBar
	beat := rem / subs
	sub := rem % subs
	return beatforge.GridPosition{Bar: bar, Beat: beat, Subdivision: sub}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
