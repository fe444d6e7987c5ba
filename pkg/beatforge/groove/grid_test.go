package groove

import (
	"math"
	"testing"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

func TestBuildSlotsCountAndSpacing(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, Division: beatforge.DivisionSixteenth, BarCount: 1}
	slots := BuildSlots(plan)
	if len(slots) != 16 {
		t.Fatalf("len(slots) = %d, want 16 (4 beats * 4 subdivisions)", len(slots))
	}
	wantSpacing := plan.SlotMs()
	for i := 1; i < len(slots); i++ {
		if got := slots[i] - slots[i-1]; got != wantSpacing {
			t.Errorf("slot spacing at %d = %v, want %v", i, got, wantSpacing)
		}
	}
}

func TestBuildSlotsSwingOnlyAppliesToEighthSixteenth(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, Division: beatforge.DivisionQuarter, BarCount: 1, SwingAmount: 0.5, Feel: beatforge.FeelSwing}
	slots := BuildSlots(plan)
	wantSpacing := plan.SlotMs()
	for i := 1; i < len(slots); i++ {
		if got := slots[i] - slots[i-1]; got != wantSpacing {
			t.Errorf("quarter-note division should ignore swing; spacing at %d = %v, want %v", i, got, wantSpacing)
		}
	}
}

func TestBuildSlotsTripletForcesSwingOff(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, Division: beatforge.DivisionTriplet, BarCount: 1, SwingAmount: 0.9}
	slots := BuildSlots(plan)
	wantSpacing := plan.SlotMs()
	for i := 1; i < len(slots); i++ {
		if got := slots[i] - slots[i-1]; math.Abs(got-wantSpacing) > 1e-9 {
			t.Errorf("triplet+swing should collapse to straight spacing; got %v at %d, want %v", got, i, wantSpacing)
		}
	}
}

func TestNearestSlotEmpty(t *testing.T) {
	idx, _ := NearestSlot(nil, 100)
	if idx != -1 {
		t.Errorf("NearestSlot(nil, ...) index = %d, want -1", idx)
	}
}

func TestPositionOfRoundTrip(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, Division: beatforge.DivisionSixteenth, BarCount: 2}
	pos := PositionOf(plan, 17) // bar 1, beat 0, subdivision 1 (16 slots per bar)
	if pos.Bar != 1 || pos.Beat != 0 || pos.Subdivision != 1 {
		t.Errorf("PositionOf(17) = %+v, want {Bar:1 Beat:0 Subdivision:1}", pos)
	}
}
